package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping lays out the book document: stemmed text for title and
// author, simple text plus an exact copy for genre, and keyword fields for
// the owner, status and tags.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()

	text := func(analyzer string, vectors bool) *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = analyzer
		f.Store = true
		f.IncludeTermVectors = vectors
		return f
	}

	doc.AddFieldMappingsAt("title", text(en.AnalyzerName, true))
	doc.AddFieldMappingsAt("author", text(en.AnalyzerName, true))
	doc.AddFieldMappingsAt("genre", text(simple.Name, false))

	// Exact values for filtering and facets.
	doc.AddFieldMappingsAt("user_id", text(keyword.Name, false))
	doc.AddFieldMappingsAt("book_id", text(keyword.Name, false))
	doc.AddFieldMappingsAt("genre_key", text(keyword.Name, false))
	doc.AddFieldMappingsAt("status", text(keyword.Name, false))
	doc.AddFieldMappingsAt("tags", text(keyword.Name, false))

	created := bleve.NewNumericFieldMapping()
	created.Store = true
	doc.AddFieldMappingsAt("created_at", created)

	indexMapping.AddDocumentMapping("_default", doc)
	return indexMapping
}
