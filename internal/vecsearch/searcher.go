// Package vecsearch provides nearest-neighbor document retrieval over the
// per-video keyword vectors and query-time semantic token expansion.
package vecsearch

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/clipseek/clipseek/internal/storage"
	"github.com/clipseek/clipseek/internal/text"
)

// missingPenalty is the distance charged to a video for a query word that
// matched none of its vectors.
const missingPenalty = 1.0

// Searcher answers vector queries against the keyword vectors and the lexicon.
type Searcher struct {
	store     storage.Storage
	tolerance float64
	// candidateLimit caps the per-word nearest-neighbor scan.
	candidateLimit int
}

// NewSearcher creates a searcher with the given per-word distance tolerance.
func NewSearcher(store storage.Storage, tolerance float64) *Searcher {
	if tolerance <= 0 {
		tolerance = 0.65
	}
	return &Searcher{store: store, tolerance: tolerance, candidateLimit: 100}
}

// DocDistance is one vector retrieval hit, ascending Distance means closer.
type DocDistance struct {
	VideoID  string
	Distance float64
}

// SearchDocuments retrieves videos by embedding each query word via the
// lexicon and matching it against all stored vectors. Per video the best
// distance per word is kept, missing words are penalized at 1.0, and the
// per-word distances are averaged. The acceptance threshold relaxes as the
// query grows, capped at 0.9. Results are ranked ascending by distance.
func (s *Searcher) SearchDocuments(ctx context.Context, words []string) ([]DocDistance, error) {
	if len(words) == 0 {
		return nil, nil
	}

	// best[videoID][wordIdx] = min distance of that word to the video.
	best := make(map[string]map[int]float64)
	embedded := 0
	for i, word := range words {
		emb, err := s.store.GetWordEmbedding(ctx, word)
		if err != nil {
			return nil, fmt.Errorf("lexicon lookup %q: %w", word, err)
		}
		if emb == nil {
			continue
		}
		embedded++
		matches, err := s.store.NearestKeywordVectors(ctx, emb.Vector, s.tolerance, s.candidateLimit)
		if err != nil {
			return nil, fmt.Errorf("vector scan %q: %w", word, err)
		}
		for _, m := range matches {
			perWord, ok := best[m.VideoID]
			if !ok {
				perWord = make(map[int]float64)
				best[m.VideoID] = perWord
			}
			if d, ok := perWord[i]; !ok || m.Distance < d {
				perWord[i] = m.Distance
			}
		}
	}
	if embedded == 0 {
		return nil, nil
	}

	expected := math.Min(0.65+0.1*float64(len(words)-1), 0.9)
	var out []DocDistance
	for videoID, perWord := range best {
		var sum float64
		for i := range words {
			if d, ok := perWord[i]; ok {
				sum += d
			} else {
				sum += missingPenalty
			}
		}
		avg := sum / float64(len(words))
		if avg <= expected {
			out = append(out, DocDistance{VideoID: videoID, Distance: avg})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

// ExpandTokens augments tokens with their nearest lexicon words above floor.
// Literal tokens keep weight 1.0; injected words carry their similarity as a
// down-weighting coefficient. Duplicates keep their first (highest) weight.
func (s *Searcher) ExpandTokens(ctx context.Context, tokens []string, floor float64) ([]text.WeightedToken, error) {
	out := text.Literal(tokens)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[t] = struct{}{}
	}
	for _, t := range tokens {
		matches, err := s.store.NearestWords(ctx, t, floor, 50)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", t, err)
		}
		for _, m := range matches {
			if _, ok := seen[m.Word]; ok {
				continue
			}
			seen[m.Word] = struct{}{}
			out = append(out, text.WeightedToken{Token: m.Word, Weight: m.Similarity})
		}
	}
	return out, nil
}
