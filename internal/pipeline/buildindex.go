package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clipseek/clipseek/internal/clients"
	"github.com/clipseek/clipseek/internal/cluster"
	"github.com/clipseek/clipseek/internal/config"
	"github.com/clipseek/clipseek/internal/hint"
	"github.com/clipseek/clipseek/internal/models"
	"github.com/clipseek/clipseek/internal/ngram"
	"github.com/clipseek/clipseek/internal/storage"
	"github.com/clipseek/clipseek/internal/text"
	"github.com/clipseek/clipseek/internal/vecsearch"
)

// BuildIndexStep turns the translated description into the video's lexical
// and vector index entries: tokenize, embed, cluster into representative
// centroids, expand semantically, and feed the n-gram index.
type BuildIndexStep struct {
	store    storage.Storage
	embedder clients.Embedder
	ngrams   *ngram.Engine
	vectors  *vecsearch.Searcher
	hints    *hint.Index
	cfg      config.IndexConfig
}

// NewBuildIndexStep creates the build-index step.
func NewBuildIndexStep(deps Deps) *BuildIndexStep {
	return &BuildIndexStep{
		store:    deps.Store,
		embedder: deps.Embedder,
		ngrams:   deps.Ngrams,
		vectors:  deps.Vectors,
		hints:    deps.Hints,
		cfg:      deps.Index,
	}
}

func (s *BuildIndexStep) Name() string                { return "build-index" }
func (s *BuildIndexStep) Initial() models.VideoStatus { return models.StatusTranslated }
func (s *BuildIndexStep) Target() models.VideoStatus  { return models.StatusVideoIndexed }

// Run builds both indexes for the video.
func (s *BuildIndexStep) Run(ctx context.Context, rec *models.VideoRecord) error {
	if rec.TranslatedDescription == nil {
		return fmt.Errorf("record has no translated description")
	}
	tokens := text.TokenizeDistinct(*rec.TranslatedDescription)

	vectorized, err := s.embedder.Vectorize(ctx, tokens)
	if err != nil {
		return err
	}
	points, embeddings := collectPoints(vectorized)
	// Cache the embeddings in the lexicon so search-time lookup and
	// expansion need no further collaborator calls.
	if err := s.store.UpsertWordEmbeddings(ctx, embeddings); err != nil {
		return fmt.Errorf("cache embeddings: %w", err)
	}

	rec.Keywords = make([]string, len(points))
	for i, p := range points {
		rec.Keywords[i] = p.Word
	}

	var clusters []cluster.Cluster
	if len(points) > s.cfg.KeywordCap {
		clusters = cluster.FixedWithPruning(points, s.cfg.KeywordCap, s.cfg.MinClusterFraction)
	} else {
		clusters = cluster.Adaptive(points, s.cfg.MinPointsPerCluster)
	}

	rec.CentroidWords = nil
	vecs := make([]*models.KeywordVector, 0, 2*len(clusters))
	for _, c := range clusters {
		center := c.MostCentral()
		rec.CentroidWords = append(rec.CentroidWords, center.Word)
		// Both the centroid itself and the closest-to-centroid word vector
		// represent the cluster at query time.
		vecs = append(vecs,
			&models.KeywordVector{
				ID:          uuid.New().String(),
				VideoID:     rec.ID,
				Word:        center.Word,
				Vector:      toFloat32(c.Centroid),
				ClusterSize: len(c.Points),
				Kind:        models.VideoKeywords,
			},
			&models.KeywordVector{
				ID:          uuid.New().String(),
				VideoID:     rec.ID,
				Word:        center.Word,
				Vector:      toFloat32(center.Vector),
				ClusterSize: len(c.Points),
				Kind:        models.VideoKeywords,
			},
		)
	}
	if err := s.store.ReplaceKeywordVectors(ctx, rec.ID, models.VideoKeywords, vecs); err != nil {
		return fmt.Errorf("replace keyword vectors: %w", err)
	}

	expanded, err := s.vectors.ExpandTokens(ctx, tokens, s.cfg.ExpansionFloor)
	if err != nil {
		return fmt.Errorf("semantic expansion: %w", err)
	}
	rec.SemanticCloud = nil
	for _, wt := range expanded {
		if wt.Weight < 1.0 {
			rec.SemanticCloud = append(rec.SemanticCloud, wt.Token)
		}
	}

	if err := s.ngrams.Index(ctx, rec.ID, expanded); err != nil {
		return fmt.Errorf("ngram index: %w", err)
	}
	s.hints.Notify()
	return nil
}

func collectPoints(vectorized []clients.VectorizedWord) ([]cluster.Point, []*models.WordEmbedding) {
	points := make([]cluster.Point, 0, len(vectorized))
	embeddings := make([]*models.WordEmbedding, 0, len(vectorized))
	for _, v := range vectorized {
		if len(v.Vector) == 0 {
			continue
		}
		vec := make([]float64, len(v.Vector))
		for i, x := range v.Vector {
			vec[i] = float64(x)
		}
		points = append(points, cluster.Point{Word: v.Word, Vector: vec})
		embeddings = append(embeddings, &models.WordEmbedding{Word: v.Word, Vector: v.Vector})
	}
	return points, embeddings
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
