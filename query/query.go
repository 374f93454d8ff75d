// Package query derives the filtered views and the tag index from a snapshot
// of the registry. Everything here is a pure function over its arguments; the
// active tag and search string are owned by the caller.
package query

import (
	"slices"
	"strings"

	"github.com/camden-git/namerecall/models"
)

// TagStat annotates a tag with how many people carry it.
type TagStat struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// FilterByTag keeps people whose tags contain tag exactly. An empty tag means
// no filter is active and returns people unchanged.
func FilterByTag(people []models.Person, tag string) []models.Person {
	if tag == "" {
		return people
	}
	out := make([]models.Person, 0, len(people))
	for _, p := range people {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// Search keeps people whose name, any tag or memo contains q, ignoring case.
// A blank query returns people unchanged.
func Search(people []models.Person, q string) []models.Person {
	if strings.TrimSpace(q) == "" {
		return people
	}
	needle := strings.ToLower(q)
	out := make([]models.Person, 0, len(people))
	for _, p := range people {
		if matches(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p models.Person, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return p.Memo != "" && strings.Contains(strings.ToLower(p.Memo), needle)
}

// Visible applies the tag filter first and the text search to what is left.
func Visible(people []models.Person, tag, q string) []models.Person {
	return Search(FilterByTag(people, tag), q)
}

// UniqueTags returns every distinct tag, sorted ascending.
func UniqueTags(people []models.Person) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	for _, p := range people {
		for _, t := range p.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	return tags
}

// TagCount is the number of people whose tags include tag. A person listing
// the same tag twice counts once.
func TagCount(people []models.Person, tag string) int {
	n := 0
	for _, p := range people {
		if p.HasTag(tag) {
			n++
		}
	}
	return n
}

// TagIndex is UniqueTags annotated with TagCount, for the tag cloud.
func TagIndex(people []models.Person) []TagStat {
	tags := UniqueTags(people)
	stats := make([]TagStat, 0, len(tags))
	for _, t := range tags {
		stats = append(stats, TagStat{Tag: t, Count: TagCount(people, t)})
	}
	return stats
}

// ParseTagInput splits comma separated input into trimmed, non-empty tags,
// keeping their order and any duplicates.
func ParseTagInput(raw string) []string {
	tags := []string{}
	if strings.TrimSpace(raw) == "" {
		return tags
	}
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			tags = append(tags, piece)
		}
	}
	return tags
}
