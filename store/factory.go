package store

import (
	"fmt"

	"go.uber.org/zap"
)

// Open selects a Store implementation by driver name. path is the sqlite file
// for the sql and gorm drivers and is ignored for memory.
func Open(driver Driver, path string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch driver {
	case DriverSQL, "":
		return NewSQLStore(path, logger)
	case DriverGorm:
		return NewGormStore(path, logger)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
