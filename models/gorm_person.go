package models

import (
	"time"
)

// Person is a single registered contact. It is the only entity of the app and
// is persisted as part of one serialized blob (see StateEntry), never as its
// own table row.
type Person struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Tags         []string     `json:"tags"`
	Memo         string       `json:"memo"`
	Avatar       *string      `json:"avatar"` // data URI, nil when no photo was supplied
	ColorVariant ColorVariant `json:"colorVariant"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy so callers can't mutate registry-owned slices.
func (p Person) Clone() Person {
	out := p
	if p.Tags != nil {
		out.Tags = append(make([]string, 0, len(p.Tags)), p.Tags...)
	} else {
		out.Tags = []string{}
	}
	if p.Avatar != nil {
		avatar := *p.Avatar
		out.Avatar = &avatar
	}
	return out
}

// HasTag reports whether the person carries tag, compared exactly.
func (p Person) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ClonePeople deep copies a whole sequence, preserving order.
func ClonePeople(people []Person) []Person {
	out := make([]Person, len(people))
	for i, p := range people {
		out[i] = p.Clone()
	}
	return out
}
