package models

// StateEntry is one serialized blob stored under a key, using GORM.
// It corresponds to the 'state' table shared with the squirrel driver.
type StateEntry struct {
	Key       string `gorm:"primaryKey" json:"key"`
	Payload   []byte `gorm:"not null" json:"payload"`
	UpdatedAt int64  `gorm:"not null;autoUpdateTime:false" json:"updated_at"` // Unix millis
}

// TableName explicitly sets the table name for GORM.
func (StateEntry) TableName() string {
	return "state"
}
