package id

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextUserID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{name: "no users", existing: nil, want: "US001"},
		{name: "gaps are ignored", existing: []string{"US001", "US002", "US005"}, want: "US006"},
		{name: "unordered input", existing: []string{"US010", "US003"}, want: "US011"},
		{name: "fallback ids skipped", existing: []string{"U_1a2b3c4d", "US002"}, want: "US003"},
		{name: "only malformed ids", existing: []string{"USx", "admin", "US", "US-4"}, want: "US001"},
		{name: "past three digits", existing: []string{"US999"}, want: "US1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextUserID(tt.existing))
		})
	}
}

func TestNextBookID(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{name: "empty collection", existing: nil, want: "BS_US001_001"},
		{name: "malformed suffix skipped", existing: []string{"BS_US001_001", "BS_US001_abc"}, want: "BS_US001_002"},
		{name: "gap after delete", existing: []string{"BS_US001_001", "BS_US001_004"}, want: "BS_US001_005"},
		{name: "no underscore", existing: []string{"BK1A2B3C"}, want: "BS_US001_001"},
		{name: "signed suffix rejected", existing: []string{"BS_US001_+7"}, want: "BS_US001_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextBookID("US001", tt.existing))
		})
	}
}

func TestNextBookID_SequentialSet(t *testing.T) {
	for _, n := range []int{1, 2, 9, 10, 99, 120} {
		existing := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			existing = append(existing, FormatBookID("US042", i))
		}

		want := fmt.Sprintf("BS_US042_%03d", n+1)
		assert.Equal(t, want, NextBookID("US042", existing), "n=%d", n)
	}
}

func TestNextBookID_RepeatedCallsIncrease(t *testing.T) {
	var existing []string
	prev := 0
	for range 5 {
		next := NextBookID("US007", existing)
		seq, ok := ParseBookSeq(next)
		assert.True(t, ok)
		assert.Greater(t, seq, prev)
		prev = seq
		existing = append(existing, next)
	}
	assert.Equal(t, "BS_US007_005", existing[len(existing)-1])
}

func TestParseUserSeq(t *testing.T) {
	seq, ok := ParseUserSeq("US017")
	assert.True(t, ok)
	assert.Equal(t, 17, seq)

	for _, bad := range []string{"", "US", "us001", "U_deadbeef", "US01a", "XUS001"} {
		_, ok := ParseUserSeq(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseBookSeq(t *testing.T) {
	seq, ok := ParseBookSeq("BS_US001_012")
	assert.True(t, ok)
	assert.Equal(t, 12, seq)

	for _, bad := range []string{"", "BS_US001_", "BS_US001_abc", "BS_US001_1.5"} {
		_, ok := ParseBookSeq(bad)
		assert.False(t, ok, bad)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "US001", FormatUserID(1))
	assert.Equal(t, "BS_U_1a2b3c4d_003", FormatBookID("U_1a2b3c4d", 3))
}
