package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clipseek/clipseek/internal/clients"
	"github.com/clipseek/clipseek/internal/hint"
	"github.com/clipseek/clipseek/internal/models"
	"github.com/clipseek/clipseek/internal/ngram"
	"github.com/clipseek/clipseek/internal/storage"
	"github.com/clipseek/clipseek/internal/text"
)

// TranscribeStep extracts speech keywords and folds them into both indexes.
type TranscribeStep struct {
	store       storage.Storage
	transcriber clients.Transcriber
	embedder    clients.Embedder
	ngrams      *ngram.Engine
	hints       *hint.Index
	keywordCap  int
}

// NewTranscribeStep creates the transcribe step.
func NewTranscribeStep(deps Deps) *TranscribeStep {
	return &TranscribeStep{
		store:       deps.Store,
		transcriber: deps.Transcriber,
		embedder:    deps.Embedder,
		ngrams:      deps.Ngrams,
		hints:       deps.Hints,
		keywordCap:  deps.Index.TranscriptKeywordCap,
	}
}

func (s *TranscribeStep) Name() string                { return "transcribe" }
func (s *TranscribeStep) Initial() models.VideoStatus { return models.StatusVideoIndexed }
func (s *TranscribeStep) Target() models.VideoStatus  { return models.StatusFullIndexed }

// Run transcribes the video. A missing or empty speech track is a soft
// no-op: the record stays at VideoIndexed for a later pass.
func (s *TranscribeStep) Run(ctx context.Context, rec *models.VideoRecord) error {
	words, err := s.transcriber.Transcribe(ctx, rec.URL)
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return ErrNoAdvance
	}

	vectorized, err := s.embedder.Vectorize(ctx, words)
	if err != nil {
		return err
	}
	kept := make([]clients.VectorizedWord, 0, s.keywordCap)
	for _, v := range vectorized {
		if len(v.Vector) == 0 {
			continue
		}
		kept = append(kept, v)
		if len(kept) == s.keywordCap {
			break
		}
	}
	if len(kept) == 0 {
		return ErrNoAdvance
	}

	embeddings := make([]*models.WordEmbedding, len(kept))
	vecs := make([]*models.KeywordVector, len(kept))
	keywords := make([]string, len(kept))
	for i, v := range kept {
		keywords[i] = v.Word
		embeddings[i] = &models.WordEmbedding{Word: v.Word, Vector: v.Vector}
		vecs[i] = &models.KeywordVector{
			ID:          uuid.New().String(),
			VideoID:     rec.ID,
			Word:        v.Word,
			Vector:      v.Vector,
			ClusterSize: 1,
			Kind:        models.TranscriptKeywords,
		}
	}
	if err := s.store.UpsertWordEmbeddings(ctx, embeddings); err != nil {
		return fmt.Errorf("cache embeddings: %w", err)
	}

	rec.SttKeywords = keywords
	transcript := strings.Join(words, " ")
	rec.Transcript = &transcript

	if err := s.store.ReplaceKeywordVectors(ctx, rec.ID, models.TranscriptKeywords, vecs); err != nil {
		return fmt.Errorf("replace transcript vectors: %w", err)
	}
	if err := s.ngrams.Index(ctx, rec.ID, text.Literal(keywords)); err != nil {
		return fmt.Errorf("ngram index: %w", err)
	}
	s.hints.Notify()
	return nil
}
