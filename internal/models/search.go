package models

import "fmt"

// SearchQuery represents a search request.
type SearchQuery struct {
	Text string `json:"text"`
	// BM25 switches document scoring from TF-IDF to BM25.
	BM25 bool `json:"bm25,omitempty"`
	// Semantic expands the query tokens with nearest lexicon words
	// before n-gram extraction.
	Semantic bool `json:"semantic,omitempty"`
	// Vector additionally runs nearest-neighbor retrieval over the
	// per-video keyword vectors.
	Vector bool `json:"vector,omitempty"`
	Limit  int  `json:"limit,omitempty"`
}

// Validate rejects empty queries and normalizes the limit.
func (q *SearchQuery) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// SearchResult is a single search hit.
type SearchResult struct {
	Video *VideoRecord `json:"video"`
	Score float64      `json:"score"`
	// Distance is set for hits found only by vector retrieval
	// (cosine distance, smaller is closer).
	Distance float64 `json:"distance,omitempty"`
	Rank     int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}
