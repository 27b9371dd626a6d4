package models

import "fmt"

// Default search option values applied by Validate.
const (
	DefaultLimit    = 10
	MaxLimit        = 100
	DefaultMinScore = 0.1
)

// SearchOptions is a search request. Tag optionally restricts boosting to
// documents whose topical tag contains it. MinScore filters final scores.
type SearchOptions struct {
	Query    string  `json:"query"`
	Limit    int     `json:"limit,omitempty"`
	Tag      string  `json:"tag,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
}

// Validate checks the query and fills in defaults. Limit defaults to 10 and
// is capped at 100; MinScore defaults to 0.1 when left at zero.
func (o *SearchOptions) Validate() error {
	if o.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.MinScore == 0 {
		o.MinScore = DefaultMinScore
	}
	return nil
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	Document   *Document `json:"document"`
	Score      float64   `json:"score"`
	Highlights []string  `json:"highlights,omitempty"`
	Rank       int       `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}
