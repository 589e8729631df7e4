// Package search composes lexical and vector retrieval into ranked results.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clipseek/clipseek/internal/models"
	"github.com/clipseek/clipseek/internal/ngram"
	"github.com/clipseek/clipseek/internal/storage"
	"github.com/clipseek/clipseek/internal/text"
	"github.com/clipseek/clipseek/internal/vecsearch"
)

// Engine is the search orchestrator.
type Engine struct {
	store          storage.Storage
	ngrams         *ngram.Engine
	vectors        *vecsearch.Searcher
	expansionFloor float64
	logger         *zap.Logger
}

// NewEngine creates a search engine.
func NewEngine(store storage.Storage, ngrams *ngram.Engine, vectors *vecsearch.Searcher, expansionFloor float64, logger *zap.Logger) *Engine {
	if expansionFloor <= 0 {
		expansionFloor = 0.6
	}
	return &Engine{
		store:          store,
		ngrams:         ngrams,
		vectors:        vectors,
		expansionFloor: expansionFloor,
		logger:         logger,
	}
}

// Search runs lexical retrieval (optionally with semantic token expansion
// and BM25 scoring) and, when requested, vector retrieval. Lexical hits rank
// first by descending score; vector-only hits follow ascending by distance.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}
	tokens := text.Tokenize(query.Text)

	queryTokens := tokens
	if query.Semantic {
		expanded, err := e.vectors.ExpandTokens(ctx, tokens, e.expansionFloor)
		if err != nil {
			// Expansion is best-effort: fall back to the literal tokens.
			e.logger.Warn("semantic expansion failed", zap.Error(err))
		} else {
			queryTokens = make([]string, len(expanded))
			for i, wt := range expanded {
				queryTokens[i] = wt.Token
			}
		}
	}

	scores, err := e.ngrams.Search(ctx, queryTokens, query.BM25, 0)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(scores))
	scoreByID := make(map[string]float64, len(scores))
	for _, ds := range scores {
		ids = append(ids, ds.DocumentID)
		scoreByID[ds.DocumentID] = ds.Score
	}

	var vectorHits []vecsearch.DocDistance
	if query.Vector {
		vectorHits, err = e.vectors.SearchDocuments(ctx, tokens)
		if err != nil {
			return nil, err
		}
	}

	response := &models.SearchResponse{
		Query:     query.Text,
		Results:   make([]*models.SearchResult, 0, len(ids)),
		QueryTime: time.Since(startTime).Milliseconds(),
	}

	recs, err := e.store.GetVideosByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	recByID := make(map[string]*models.VideoRecord, len(recs))
	for _, rec := range recs {
		recByID[rec.ID] = rec
	}
	for _, ds := range scores {
		rec, ok := recByID[ds.DocumentID]
		if !ok {
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{
			Video: rec,
			Score: ds.Score,
		})
	}

	// Vector-only hits are appended rather than score-fused: lexical scores
	// and cosine distances are not commensurable.
	for _, hit := range vectorHits {
		if _, ok := scoreByID[hit.VideoID]; ok {
			continue
		}
		rec, err := e.store.GetVideo(ctx, hit.VideoID)
		if err != nil {
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{
			Video:    rec,
			Distance: hit.Distance,
		})
	}

	response.Total = len(response.Results)
	if len(response.Results) > query.Limit {
		response.Results = response.Results[:query.Limit]
	}
	for i, r := range response.Results {
		r.Rank = i + 1
	}
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}
