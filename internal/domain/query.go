package domain

import "fmt"

// Comparator is a rating comparison operator.
type Comparator string

// Rating comparators.
const (
	CmpEq  Comparator = "eq"
	CmpGt  Comparator = "gt"
	CmpGte Comparator = "gte"
	CmpLt  Comparator = "lt"
	CmpLte Comparator = "lte"
)

// Comparators lists the accepted tokens.
var Comparators = []Comparator{CmpEq, CmpGt, CmpGte, CmpLt, CmpLte}

// ParseComparator validates a comparator token. An empty token is an error
// too; callers that want a default must apply it first.
func ParseComparator(s string) (Comparator, error) {
	switch c := Comparator(s); c {
	case CmpEq, CmpGt, CmpGte, CmpLt, CmpLte:
		return c, nil
	default:
		return "", fmt.Errorf("invalid comparison operator %q: use 'eq', 'gte', 'lte', 'gt', or 'lt'", s)
	}
}

// Compare evaluates "rating <c> value".
func (c Comparator) Compare(rating, value int) bool {
	switch c {
	case CmpEq:
		return rating == value
	case CmpGt:
		return rating > value
	case CmpGte:
		return rating >= value
	case CmpLt:
		return rating < value
	case CmpLte:
		return rating <= value
	default:
		return false
	}
}

// MatchesRating reports whether a rated book satisfies the comparison.
// Unrated books never match.
func (c Comparator) MatchesRating(b *Book, value int) bool {
	if !b.IsRated() {
		return false
	}
	return c.Compare(b.RatingValue(), value)
}
