package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComparator(t *testing.T) {
	for _, c := range Comparators {
		got, err := ParseComparator(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseComparator("ne")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid comparison operator")

	_, err = ParseComparator("")
	assert.Error(t, err)
}

func TestComparator_Compare(t *testing.T) {
	tests := []struct {
		cmp    Comparator
		rating int
		value  int
		want   bool
	}{
		{CmpEq, 4, 4, true},
		{CmpEq, 3, 4, false},
		{CmpGt, 5, 4, true},
		{CmpGt, 4, 4, false},
		{CmpGte, 4, 4, true},
		{CmpGte, 3, 4, false},
		{CmpLt, 3, 4, true},
		{CmpLt, 4, 4, false},
		{CmpLte, 4, 4, true},
		{CmpLte, 5, 4, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cmp.Compare(tt.rating, tt.value), "%d %s %d", tt.rating, tt.cmp, tt.value)
	}
}

func TestComparator_MatchesRating_Unrated(t *testing.T) {
	b := &Book{}
	assert.False(t, CmpLte.MatchesRating(b, 5))
	assert.False(t, CmpGte.MatchesRating(b, 0))

	b.Rating = intPtr(2)
	assert.True(t, CmpLte.MatchesRating(b, 5))
}

func TestTags(t *testing.T) {
	assert.Equal(t, []string{"sf", "classic"}, ParseTags(" sf, ,classic ,"))
	assert.Empty(t, ParseTags(""))

	b := &Book{Tags: []string{"Space Opera", "classic"}}
	assert.True(t, b.HasTag("space opera"))
	assert.True(t, b.HasTag(" CLASSIC "))
	assert.False(t, b.HasTag("horror"))
	assert.False(t, b.HasTag(""))
}

func TestIsGenreOption(t *testing.T) {
	assert.True(t, IsGenreOption("Science Fiction"))
	assert.True(t, IsGenreOption(GenreOther))
	assert.False(t, IsGenreOption("science fiction"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}
