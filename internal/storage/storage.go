// Package storage defines the persistence interface for video records,
// keyword vectors, the word lexicon, and n-gram statistics.
package storage

import (
	"context"

	"github.com/clipseek/clipseek/internal/models"
)

// VectorMatch is a nearest-neighbor hit over the keyword vectors.
type VectorMatch struct {
	VideoID  string
	Word     string
	Distance float64
}

// WordMatch is a nearest-neighbor hit over the word lexicon.
type WordMatch struct {
	Word       string
	Similarity float64
}

// Storage defines all persistence operations.
type Storage interface {
	// Video records
	CreateVideo(ctx context.Context, rec *models.VideoRecord) error
	GetVideo(ctx context.Context, id string) (*models.VideoRecord, error)
	UpdateVideo(ctx context.Context, rec *models.VideoRecord) error
	ListVideos(ctx context.Context, offset, limit int) ([]*models.VideoRecord, error)
	GetVideosByIDs(ctx context.Context, ids []string) ([]*models.VideoRecord, error)
	// ListIndexed returns records whose status is VideoIndexed or FullIndexed.
	ListIndexed(ctx context.Context) ([]*models.VideoRecord, error)
	CountVideos(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.VideoStatus) (int64, error)

	// Claiming. ClaimNext atomically selects and flags the next eligible
	// record; it returns (nil, nil) when nothing is claimable.
	ClaimNext(ctx context.Context) (*models.VideoRecord, error)
	ReleaseClaim(ctx context.Context, id string) error
	ReleaseAllClaims(ctx context.Context) error

	// Keyword vectors
	ReplaceKeywordVectors(ctx context.Context, videoID string, kind models.VectorKind, vecs []*models.KeywordVector) error
	// NearestKeywordVectors returns up to limit vectors within tolerance
	// cosine distance of query, ascending by distance.
	NearestKeywordVectors(ctx context.Context, query []float32, tolerance float64, limit int) ([]*VectorMatch, error)

	// Word lexicon
	UpsertWordEmbeddings(ctx context.Context, embeddings []*models.WordEmbedding) error
	GetWordEmbedding(ctx context.Context, word string) (*models.WordEmbedding, error)
	// NearestWords returns words whose cosine similarity to word is at least
	// floor, descending by similarity. Unknown words yield an empty result.
	NearestWords(ctx context.Context, word string, floor float64, limit int) ([]*WordMatch, error)

	// N-gram statistics
	GetOrCreateNgram(ctx context.Context, ngram string) (*models.NgramStat, error)
	UpdateNgram(ctx context.Context, stat *models.NgramStat) error
	GetNgramDoc(ctx context.Context, ngram, documentID string) (*models.NgramDocStat, error)
	UpsertNgramDoc(ctx context.Context, stat *models.NgramDocStat) error
	// SumDocCounts returns the summed CountInDoc over all n-grams of a
	// document (the document length in n-grams).
	SumDocCounts(ctx context.Context, documentID string) (float64, error)
	// TopNgramDocs returns up to limit per-document stats for the given
	// n-grams, descending by Score (or ScoreBM25 when bm25 is set).
	TopNgramDocs(ctx context.Context, ngrams []string, limit int, bm25 bool) ([]*models.NgramDocStat, error)

	Close() error
}
