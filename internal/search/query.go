package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// ErrNoOwner is returned when a query is not scoped to a reader.
var ErrNoOwner = errors.New("search query needs a user id")

// Params configures a search.
type Params struct {
	UserID string
	Query  string
	Status string // optional exact status filter
	Limit  int
	Offset int
}

// DefaultLimit is the page size when Params.Limit is unset.
const DefaultLimit = 20

// Result is one page of hits.
type Result struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []Hit        `json:"hits"`
	Genres []FacetCount `json:"genres,omitempty"`
}

// Hit is one matching book.
type Hit struct {
	BookID     string            `json:"book_id"`
	Title      string            `json:"title"`
	Author     string            `json:"author"`
	Genre      string            `json:"genre"`
	Status     string            `json:"status"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount is a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search runs a query over one reader's books.
func (s *Index) Search(ctx context.Context, p Params) (*Result, error) {
	if p.UserID == "" {
		return nil, ErrNoOwner
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(p), p.Limit, p.Offset, false)
	req.SortBy([]string{"-_score", "-created_at"})
	req.Fields = []string{"book_id", "title", "author", "genre", "status"}
	req.AddFacet("genre_key", bleve.NewFacetRequest("genre_key", 10))
	if p.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("author")
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  p.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{
			BookID: field(h.Fields, "book_id"),
			Title:  field(h.Fields, "title"),
			Author: field(h.Fields, "author"),
			Genre:  field(h.Fields, "genre"),
			Status: field(h.Fields, "status"),
			Score:  h.Score,
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for f, frags := range h.Fragments {
				if len(frags) > 0 {
					hit.Highlights[f] = frags[0]
				}
			}
		}
		out.Hits = append(out.Hits, hit)
	}
	if facet, ok := res.Facets["genre_key"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			out.Genres = append(out.Genres, FacetCount{Value: term.Term, Count: term.Count})
		}
	}
	return out, nil
}

func field(fields map[string]any, name string) string {
	s, _ := fields[name].(string)
	return s
}

// buildQuery ANDs the owner filter with the text and status clauses.
func buildQuery(p Params) query.Query {
	owner := bleve.NewTermQuery(p.UserID)
	owner.SetField("user_id")
	clauses := []query.Query{owner}

	if q := strings.TrimSpace(p.Query); q != "" {
		var text []query.Query

		title := bleve.NewMatchQuery(q)
		title.SetField("title")
		title.SetBoost(3.0)
		text = append(text, title)

		author := bleve.NewMatchQuery(q)
		author.SetField("author")
		author.SetBoost(2.0)
		text = append(text, author)

		genre := bleve.NewMatchQuery(q)
		genre.SetField("genre")
		text = append(text, genre)

		tag := bleve.NewTermQuery(strings.ToLower(q))
		tag.SetField("tags")
		tag.SetBoost(1.5)
		text = append(text, tag)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetField("title")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)
		text = append(text, fuzzy)

		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}

		clauses = append(clauses, bleve.NewDisjunctionQuery(text...))
	}

	if p.Status != "" {
		st := bleve.NewTermQuery(p.Status)
		st.SetField("status")
		clauses = append(clauses, st)
	}

	if len(clauses) == 1 {
		return owner
	}
	return bleve.NewConjunctionQuery(clauses...)
}
