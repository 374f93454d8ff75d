package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorVariantJSONUsesClassName(t *testing.T) {
	b, err := json.Marshal(ColorVariant3)
	require.NoError(t, err)
	assert.Equal(t, `"bg-gradient-3"`, string(b))

	var v ColorVariant
	require.NoError(t, json.Unmarshal([]byte(`"bg-gradient-6"`), &v))
	assert.Equal(t, ColorVariant6, v)

	require.NoError(t, json.Unmarshal([]byte(`"2"`), &v))
	assert.Equal(t, ColorVariant2, v)

	require.NoError(t, json.Unmarshal([]byte(`5`), &v))
	assert.Equal(t, ColorVariant5, v)
}

func TestColorVariantRejectsOutsidePalette(t *testing.T) {
	var v ColorVariant
	assert.Error(t, json.Unmarshal([]byte(`"bg-gradient-7"`), &v))
	assert.Error(t, json.Unmarshal([]byte(`"purple"`), &v))

	_, err := json.Marshal(ColorVariant(0))
	assert.Error(t, err)
}

func TestPersonJSONLayout(t *testing.T) {
	p := Person{
		ID:           "abc",
		Name:         "Ada Lovelace",
		ColorVariant: ColorVariant1,
		UpdatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 6000000, time.UTC),
	}

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "abc",
		"name": "Ada Lovelace",
		"tags": null,
		"memo": "",
		"avatar": null,
		"colorVariant": "bg-gradient-1",
		"updatedAt": "2024-01-02T03:04:05.006Z"
	}`, string(b))

	b, err = json.Marshal(p.Clone())
	require.NoError(t, err)
	assert.Contains(t, string(b), `"tags":[]`)
}

func TestCloneDoesNotShareTagsOrAvatar(t *testing.T) {
	avatar := "data:image/jpeg;base64,AAAA"
	p := Person{Tags: []string{"math"}, Avatar: &avatar}

	c := p.Clone()
	c.Tags[0] = "art"
	*c.Avatar = "changed"

	assert.Equal(t, "math", p.Tags[0])
	assert.Equal(t, "data:image/jpeg;base64,AAAA", *p.Avatar)
}

func TestHasTagIsCaseSensitive(t *testing.T) {
	p := Person{Tags: []string{"Math"}}
	assert.True(t, p.HasTag("Math"))
	assert.False(t, p.HasTag("math"))
}

func TestDraftNormalize(t *testing.T) {
	empty := ""
	d := Draft{Name: " Ada ", Tags: []string{" math ", "", "  "}, Memo: " met at PyCon ", Avatar: &empty}.Normalize()

	assert.Equal(t, " Ada ", d.Name)
	assert.Equal(t, []string{"math"}, d.Tags)
	assert.Equal(t, " met at PyCon ", d.Memo)
	assert.Nil(t, d.Avatar)
}

func TestDraftValidate(t *testing.T) {
	assert.NoError(t, Draft{}.Validate())

	ok := "data:image/png;base64,AAAA"
	assert.NoError(t, Draft{Avatar: &ok}.Validate())

	bad := "https://example.com/a.png"
	err := Draft{Avatar: &bad}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "avatar", vErr.Field)
}

func TestDraftValidateDecodesAvatarPayload(t *testing.T) {
	for _, bad := range []string{
		"data:image/png;base64,@@@@",
		"data:image/png;base64,AAA",
		"data:image/png,AAAA",
		"data:image/png;base64",
		"data:image/png;base64,",
	} {
		avatar := bad
		err := Draft{Avatar: &avatar}.Validate()
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, ErrValidation), bad)
	}
}
