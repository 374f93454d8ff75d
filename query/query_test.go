package query

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/camden-git/namerecall/models"
	"github.com/stretchr/testify/assert"
)

func person(id, name string, tags []string, memo string) models.Person {
	return models.Person{ID: id, Name: name, Tags: tags, Memo: memo, ColorVariant: models.ColorVariant1}
}

func ids(people []models.Person) []string {
	out := make([]string, 0, len(people))
	for _, p := range people {
		out = append(out, p.ID)
	}
	return out
}

func samplePeople() []models.Person {
	return []models.Person{
		person("1", "Ada Lovelace", []string{"math", "pioneer"}, "Met at the analytical engine demo"),
		person("2", "Grace Hopper", []string{"navy", "Math"}, ""),
		person("3", "Alan Turing", []string{"math"}, "Enigma"),
		person("4", "Frida Kahlo", []string{"art"}, "painter, loves monkeys"),
	}
}

func TestFilterByTagIsExactAndCaseSensitive(t *testing.T) {
	people := samplePeople()

	assert.Equal(t, []string{"1", "3"}, ids(FilterByTag(people, "math")))
	assert.Equal(t, []string{"2"}, ids(FilterByTag(people, "Math")))
	assert.Empty(t, FilterByTag(people, "mat"))
}

func TestFilterByTagEmptyIsPassthrough(t *testing.T) {
	people := samplePeople()
	assert.Equal(t, people, FilterByTag(people, ""))
}

func TestSearchMatchesNameTagsAndMemoIgnoringCase(t *testing.T) {
	people := samplePeople()

	assert.Equal(t, []string{"1"}, ids(Search(people, "ADA")))
	assert.Equal(t, []string{"2"}, ids(Search(people, "NAV")))
	assert.Equal(t, []string{"4"}, ids(Search(people, "monkey")))
	assert.Equal(t, []string{"1", "2", "3"}, ids(Search(people, "math")))
	assert.Empty(t, Search(people, "zebra"))
}

func TestSearchBlankQueryIsPassthrough(t *testing.T) {
	people := samplePeople()
	assert.Equal(t, people, Search(people, ""))
	assert.Equal(t, people, Search(people, "   "))
}

func TestEmptyQueryIsIdentityAfterTagFilter(t *testing.T) {
	people := samplePeople()
	filtered := FilterByTag(people, "math")
	assert.Equal(t, filtered, Search(filtered, ""))
}

func TestVisibleComposesTagFilterThenSearch(t *testing.T) {
	people := samplePeople()

	assert.Equal(t, []string{"3"}, ids(Visible(people, "math", "enigma")))
	assert.Empty(t, Visible(people, "art", "ada"))
	assert.Equal(t, ids(people), ids(Visible(people, "", "")))
}

func TestUniqueTagsScenario(t *testing.T) {
	people := []models.Person{
		person("1", "A", []string{"math"}, ""),
		person("2", "B", []string{"math", "art"}, ""),
	}

	assert.Equal(t, []string{"art", "math"}, UniqueTags(people))
	assert.Equal(t, 2, TagCount(people, "math"))
	assert.Equal(t, 1, TagCount(people, "art"))
	assert.Equal(t, 0, TagCount(people, "Math"))
}

func TestUniqueTagsIsSortedUniqueAndIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(1<<32 | 2))
	alphabet := []string{"a", "b", "B", "art", "math", "Math", "zoo", "ä"}
	for round := 0; round < 50; round++ {
		var people []models.Person
		for i := 0; i < r.Intn(10); i++ {
			var tags []string
			for j := 0; j < r.Intn(5); j++ {
				tags = append(tags, alphabet[r.Intn(len(alphabet))])
			}
			people = append(people, person(fmt.Sprint(i), "p", tags, ""))
		}

		got := UniqueTags(people)
		for i := 1; i < len(got); i++ {
			assert.Less(t, got[i-1], got[i], "round %d not strictly sorted: %v", round, got)
		}

		again := UniqueTags([]models.Person{person("x", "x", got, "")})
		assert.Equal(t, got, again)
	}
}

func TestUniqueTagsEmptyIsNotNil(t *testing.T) {
	assert.NotNil(t, UniqueTags(nil))
	assert.Empty(t, UniqueTags(nil))
}

func TestTagCountCountsPeopleNotOccurrences(t *testing.T) {
	people := []models.Person{person("1", "A", []string{"math", "math"}, "")}
	assert.Equal(t, 1, TagCount(people, "math"))
}

func TestTagIndex(t *testing.T) {
	assert.Equal(t, []TagStat{
		{Tag: "Math", Count: 1},
		{Tag: "art", Count: 1},
		{Tag: "math", Count: 2},
		{Tag: "navy", Count: 1},
		{Tag: "pioneer", Count: 1},
	}, TagIndex(samplePeople()))
}

func TestParseTagInput(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"math, pioneer", []string{"math", "pioneer"}},
		{" a ,, b ,a,", []string{"a", "b", "a"}},
		{",,,", []string{}},
		{"two words, x", []string{"two words", "x"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseTagInput(tc.in), "ParseTagInput(%q)", tc.in)
	}
}
