package domain

import "strings"

// SearchType selects the retrieval strategy.
type SearchType string

const (
	SearchTypeSemantic SearchType = "semantic"
	SearchTypeFulltext SearchType = "fulltext"
	SearchTypeHybrid   SearchType = "hybrid"
)

// ParseSearchType resolves a search type name. The second return value
// reports whether the name was recognized. An empty name defaults to
// hybrid; unrecognized names resolve to fulltext, the strategy that
// works regardless of embedding configuration.
func ParseSearchType(name string) (SearchType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return SearchTypeHybrid, true
	case string(SearchTypeSemantic):
		return SearchTypeSemantic, true
	case string(SearchTypeFulltext), "lexical", "keyword":
		return SearchTypeFulltext, true
	case string(SearchTypeHybrid):
		return SearchTypeHybrid, true
	default:
		return SearchTypeFulltext, false
	}
}

// SearchOptions narrows and sizes a search.
type SearchOptions struct {
	SourceType string
	Filters    map[string]string
	Limit      int
}
