// Package ngram maintains the character n-gram index with TF-IDF and BM25
// scoring and answers top-k lexical queries.
package ngram

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/clipseek/clipseek/internal/models"
	"github.com/clipseek/clipseek/internal/storage"
	"github.com/clipseek/clipseek/internal/text"
)

// Options are the scoring tunables.
type Options struct {
	// Size is the n-gram width in characters.
	Size int
	// AvgDocLength is the corpus-wide average document length in n-grams
	// used by BM25 length normalization.
	AvgDocLength float64
	K1           float64
	B            float64
	// CandidatePoolPerNgram scales the query candidate pool with the number
	// of distinct query n-grams so multi-term queries are not starved.
	CandidatePoolPerNgram int
}

// Engine updates and queries the n-gram statistics in storage.
type Engine struct {
	store storage.Storage
	opts  Options
	// mu serializes index updates: global n-gram stats are shared
	// read-modify-write state across workers.
	mu sync.Mutex
}

// NewEngine creates an engine over store.
func NewEngine(store storage.Storage, opts Options) *Engine {
	if opts.Size <= 0 {
		opts.Size = 3
	}
	if opts.AvgDocLength <= 0 {
		opts.AvgDocLength = 120
	}
	if opts.K1 == 0 {
		opts.K1 = 1.5
	}
	if opts.B == 0 {
		opts.B = 0.75
	}
	if opts.CandidatePoolPerNgram <= 0 {
		opts.CandidatePoolPerNgram = 300
	}
	return &Engine{store: store, opts: opts}
}

// Index contributes a weighted token set to docID's statistics. Repeated
// calls for the same document accumulate counts, so scores reflect the union
// of all contributions (description first, transcript later).
func (e *Engine) Index(ctx context.Context, docID string, tokens []text.WeightedToken) error {
	counts := text.NgramCounts(tokens, e.opts.Size)
	if len(counts) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	corpusDocs, err := e.store.CountVideos(ctx)
	if err != nil {
		return fmt.Errorf("count corpus: %w", err)
	}
	if corpusDocs < 1 {
		corpusDocs = 1
	}

	// First pass: accumulate counts so the final document length is known
	// before any tf is computed.
	docStats := make(map[string]*models.NgramDocStat, len(counts))
	for gram, weight := range counts {
		stat, err := e.store.GetOrCreateNgram(ctx, gram)
		if err != nil {
			return fmt.Errorf("ngram %q: %w", gram, err)
		}
		docStat, err := e.store.GetNgramDoc(ctx, gram, docID)
		if err != nil {
			return fmt.Errorf("ngram doc %q: %w", gram, err)
		}
		if docStat == nil {
			docStat = &models.NgramDocStat{Ngram: gram, DocumentID: docID}
			stat.TotalDocs++
		}
		docStat.CountInDoc += weight
		stat.TotalCount += weight

		stat.IDF = math.Log(float64(corpusDocs) / float64(stat.TotalDocs))
		stat.IDFBM25 = math.Log((float64(corpusDocs)-float64(stat.TotalDocs)+0.5)/(float64(stat.TotalDocs)+0.5) + 1)
		if err := e.store.UpdateNgram(ctx, stat); err != nil {
			return fmt.Errorf("update ngram %q: %w", gram, err)
		}
		if err := e.store.UpsertNgramDoc(ctx, docStat); err != nil {
			return fmt.Errorf("upsert ngram doc %q: %w", gram, err)
		}
		docStats[gram] = docStat
	}

	docLen, err := e.store.SumDocCounts(ctx, docID)
	if err != nil {
		return fmt.Errorf("doc length: %w", err)
	}
	if docLen <= 0 {
		return nil
	}

	// Second pass: recompute tf and scores against the final length.
	for gram, docStat := range docStats {
		stat, err := e.store.GetOrCreateNgram(ctx, gram)
		if err != nil {
			return fmt.Errorf("ngram %q: %w", gram, err)
		}
		docStat.TF = docStat.CountInDoc / docLen
		docStat.TFBM25 = docStat.CountInDoc*(e.opts.K1+1)/
			(docStat.CountInDoc+e.opts.K1*(1-e.opts.B+e.opts.B*docLen/e.opts.AvgDocLength)) + 1
		docStat.Score = docStat.TF * stat.IDF
		docStat.ScoreBM25 = docStat.TFBM25 * stat.IDFBM25
		if err := e.store.UpsertNgramDoc(ctx, docStat); err != nil {
			return fmt.Errorf("upsert ngram doc %q: %w", gram, err)
		}
	}
	return nil
}

// DocScore is one ranked lexical hit.
type DocScore struct {
	DocumentID string
	Score      float64
}

// Search ranks documents containing any n-gram of the query tokens by summed
// per-document score, descending. bm25 selects the BM25 score column.
func (e *Engine) Search(ctx context.Context, tokens []string, bm25 bool, limit int) ([]DocScore, error) {
	grams := text.NgramSet(tokens, e.opts.Size)
	if len(grams) == 0 {
		return nil, nil
	}
	pool := e.opts.CandidatePoolPerNgram * len(grams)
	stats, err := e.store.TopNgramDocs(ctx, grams, pool, bm25)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	scores := make(map[string]float64)
	for _, stat := range stats {
		if bm25 {
			scores[stat.DocumentID] += stat.ScoreBM25
		} else {
			scores[stat.DocumentID] += stat.Score
		}
	}

	ranked := make([]DocScore, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, DocScore{DocumentID: id, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
