package id

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	userPrefix = "US"
	bookPrefix = "BS_"
)

// FormatUserID renders a user sequence number: 7 -> "US007".
func FormatUserID(seq int) string {
	return fmt.Sprintf("%s%03d", userPrefix, seq)
}

// FormatBookID renders a per-user book sequence number:
// ("US001", 12) -> "BS_US001_012".
func FormatBookID(userID string, seq int) string {
	return fmt.Sprintf("%s%s_%03d", bookPrefix, userID, seq)
}

// ParseUserSeq extracts the number from a "US" + digits ID.
// Anything else (including fallback IDs) reports false.
func ParseUserSeq(userID string) (int, bool) {
	digits, ok := strings.CutPrefix(userID, userPrefix)
	if !ok {
		return 0, false
	}
	return parseDigits(digits)
}

// ParseBookSeq extracts the numeric suffix after the last underscore of a
// book ID. Malformed suffixes report false.
func ParseBookSeq(bookID string) (int, bool) {
	i := strings.LastIndexByte(bookID, '_')
	if i < 0 {
		return 0, false
	}
	return parseDigits(bookID[i+1:])
}

// MaxUserSeq returns the highest sequence among userIDs, or 0.
func MaxUserSeq(userIDs []string) int {
	maxSeq := 0
	for _, uid := range userIDs {
		if seq, ok := ParseUserSeq(uid); ok && seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq
}

// MaxBookSeq returns the highest book sequence among bookIDs, or 0.
func MaxBookSeq(bookIDs []string) int {
	maxSeq := 0
	for _, bid := range bookIDs {
		if seq, ok := ParseBookSeq(bid); ok && seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq
}

// NextUserID returns the ID following the highest existing US### ID.
// Gaps are ignored: {US001, US002, US005} -> US006.
func NextUserID(existing []string) string {
	return FormatUserID(MaxUserSeq(existing) + 1)
}

// NextBookID returns the next book ID for userID given the user's existing
// book IDs. Unparseable suffixes are skipped: {..._001, ..._abc} -> ..._002.
func NextBookID(userID string, existing []string) string {
	return FormatBookID(userID, MaxBookSeq(existing)+1)
}

func parseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
