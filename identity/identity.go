// Package identity hands out person IDs and the visual identity (initials and
// color variant) shown when a person has no photo.
package identity

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/camden-git/namerecall/models"
	"github.com/google/uuid"
)

// GenerateID returns a random v4 UUID. Uniqueness is probabilistic; there is
// no central counter.
func GenerateID() string {
	return uuid.NewString()
}

// InitialsOf returns up to two uppercased initials for display, or "?" when
// the name is blank. A token that does not start with valid UTF-8 contributes
// "?" so the result is never empty.
func InitialsOf(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "?"
	case 1:
		return firstUpper(parts[0])
	default:
		return firstUpper(parts[0]) + firstUpper(parts[1])
	}
}

func firstUpper(token string) string {
	r, size := utf8.DecodeRuneInString(token)
	if r == utf8.RuneError && size <= 1 {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// RandomVariant picks uniformly among the palette gradients.
func RandomVariant() models.ColorVariant {
	return models.ColorVariant(rand.Intn(models.PaletteSize) + 1)
}

// Service bundles the generators the registry needs so tests can pin them.
type Service struct {
	NewID      func() string
	NewVariant func() models.ColorVariant
	Now        func() time.Time
}

// Default wires the real generators and the wall clock.
func Default() Service {
	return Service{
		NewID:      GenerateID,
		NewVariant: RandomVariant,
		Now:        time.Now,
	}
}

// Timestamp returns the current time in UTC at millisecond precision, which
// is what survives a round trip through the stored ISO-8601 form.
func (s Service) Timestamp() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Truncate(time.Millisecond)
}
