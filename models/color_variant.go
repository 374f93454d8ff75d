package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ColorVariant selects one of the fixed avatar placeholder gradients.
type ColorVariant int

const (
	ColorVariant1 ColorVariant = iota + 1
	ColorVariant2
	ColorVariant3
	ColorVariant4
	ColorVariant5
	ColorVariant6
)

// PaletteSize is the number of gradients a person can be assigned.
const PaletteSize = 6

const colorClassPrefix = "bg-gradient-"

// Valid reports whether v is inside the palette.
func (v ColorVariant) Valid() bool {
	return v >= ColorVariant1 && v <= ColorVariant6
}

// Class returns the stylesheet class for the gradient, e.g. "bg-gradient-3".
func (v ColorVariant) Class() string {
	return colorClassPrefix + strconv.Itoa(int(v))
}

func (v ColorVariant) String() string {
	return v.Class()
}

// ParseColorVariant accepts the class form ("bg-gradient-4") or the bare number ("4").
func ParseColorVariant(s string) (ColorVariant, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), colorClassPrefix)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid color variant %q: %w", s, err)
	}
	v := ColorVariant(n)
	if !v.Valid() {
		return 0, fmt.Errorf("color variant %q outside palette 1..%d", s, PaletteSize)
	}
	return v, nil
}

func (v ColorVariant) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("cannot encode color variant %d", int(v))
	}
	return json.Marshal(v.Class())
}

func (v *ColorVariant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if errNum := json.Unmarshal(data, &n); errNum != nil {
			return fmt.Errorf("color variant must be a string: %w", err)
		}
		s = strconv.Itoa(n)
	}
	parsed, err := ParseColorVariant(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
