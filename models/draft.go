package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/camden-git/namerecall/media"
)

// ErrValidation is the sentinel behind every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a draft field that can't be accepted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Draft is the typed set of form values submitted by the view for a create or
// edit. Tags are already split; see query.ParseTagInput.
type Draft struct {
	Name   string
	Tags   []string
	Memo   string
	Avatar *string
}

const avatarURIPrefix = "data:image/"

// Normalize trims tag entries, drops empty ones and turns an empty avatar into
// no avatar. Name and memo are kept verbatim.
func (d Draft) Normalize() Draft {
	out := Draft{Name: d.Name, Memo: d.Memo, Tags: make([]string, 0, len(d.Tags))}
	for _, t := range d.Tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out.Tags = append(out.Tags, t)
		}
	}
	if d.Avatar != nil && *d.Avatar != "" {
		avatar := *d.Avatar
		out.Avatar = &avatar
	}
	return out
}

// Validate checks the draft. An empty name is allowed. An avatar must be a
// base64 image data URI whose payload decodes.
func (d Draft) Validate() error {
	if d.Avatar == nil || *d.Avatar == "" {
		return nil
	}
	if !strings.HasPrefix(*d.Avatar, avatarURIPrefix) {
		return &ValidationError{Field: "avatar", Reason: "must be an image data URI"}
	}
	_, data, err := media.DecodeDataURI(*d.Avatar)
	if err != nil {
		return &ValidationError{Field: "avatar", Reason: err.Error()}
	}
	if len(data) == 0 {
		return &ValidationError{Field: "avatar", Reason: "empty image data"}
	}
	return nil
}
