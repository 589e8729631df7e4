package vecsearch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clipseek/clipseek/internal/models"
	"github.com/clipseek/clipseek/internal/storage"
)

func newTestStore(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func addIndexedVideo(t *testing.T, store storage.Storage, word string, vec []float32) string {
	t.Helper()
	ctx := context.Background()
	rec := &models.VideoRecord{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Status:    models.StatusVideoIndexed,
		URL:       "https://example.com/v.mp4",
	}
	if err := store.CreateVideo(ctx, rec); err != nil {
		t.Fatalf("create video: %v", err)
	}
	vecs := []*models.KeywordVector{
		{ID: uuid.New().String(), VideoID: rec.ID, Word: word, Vector: vec, ClusterSize: 1, Kind: models.VideoKeywords},
	}
	if err := store.ReplaceKeywordVectors(ctx, rec.ID, models.VideoKeywords, vecs); err != nil {
		t.Fatalf("replace vectors: %v", err)
	}
	return rec.ID
}

func seedLexicon(t *testing.T, store storage.Storage, words map[string][]float32) {
	t.Helper()
	embeddings := make([]*models.WordEmbedding, 0, len(words))
	for w, v := range words {
		embeddings = append(embeddings, &models.WordEmbedding{Word: w, Vector: v})
	}
	if err := store.UpsertWordEmbeddings(context.Background(), embeddings); err != nil {
		t.Fatalf("seed lexicon: %v", err)
	}
}

func TestSearchDocumentsWithinTolerance(t *testing.T) {
	store := newTestStore(t)
	catID := addIndexedVideo(t, store, "кот", []float32{1, 0, 0})
	addIndexedVideo(t, store, "стол", []float32{0, 0, 1})
	seedLexicon(t, store, map[string][]float32{"кот": {1, 0, 0}})

	s := NewSearcher(store, 0.65)
	hits, err := s.SearchDocuments(context.Background(), []string{"кот"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].VideoID != catID {
		t.Fatalf("hits = %v, want only the cat video", hits)
	}
	if hits[0].Distance > 1e-6 {
		t.Errorf("distance = %f, want ~0", hits[0].Distance)
	}
}

func TestSearchDocumentsOutsideTolerance(t *testing.T) {
	store := newTestStore(t)
	addIndexedVideo(t, store, "стол", []float32{0, 0, 1})
	seedLexicon(t, store, map[string][]float32{"кот": {1, 0, 0}})

	s := NewSearcher(store, 0.65)
	hits, err := s.SearchDocuments(context.Background(), []string{"кот"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %v, want none (orthogonal vector)", hits)
	}
}

func TestSearchDocumentsUnknownWords(t *testing.T) {
	store := newTestStore(t)
	addIndexedVideo(t, store, "кот", []float32{1, 0, 0})

	s := NewSearcher(store, 0.65)
	hits, err := s.SearchDocuments(context.Background(), []string{"неизвестно"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if hits != nil {
		t.Errorf("hits = %v, want nil for out-of-lexicon query", hits)
	}
}

func TestSearchDocumentsMissingWordPenalty(t *testing.T) {
	store := newTestStore(t)
	catID := addIndexedVideo(t, store, "кот", []float32{1, 0, 0})
	seedLexicon(t, store, map[string][]float32{
		"кот":  {1, 0, 0},
		"стол": {0, 0, 1},
	})

	s := NewSearcher(store, 0.65)

	// Two words, one matching: avg = (0 + 1.0) / 2 = 0.5 <= 0.75 threshold.
	hits, err := s.SearchDocuments(context.Background(), []string{"кот", "стол"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].VideoID != catID {
		t.Fatalf("hits = %v, want the cat video", hits)
	}
	if hits[0].Distance < 0.49 || hits[0].Distance > 0.51 {
		t.Errorf("distance = %f, want 0.5", hits[0].Distance)
	}
}

func TestSearchDocumentsRanksAscending(t *testing.T) {
	store := newTestStore(t)
	exactID := addIndexedVideo(t, store, "кот", []float32{1, 0, 0})
	nearID := addIndexedVideo(t, store, "кошка", []float32{0.8, 0.6, 0})
	seedLexicon(t, store, map[string][]float32{"кот": {1, 0, 0}})

	s := NewSearcher(store, 0.65)
	hits, err := s.SearchDocuments(context.Background(), []string{"кот"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2: %v", len(hits), hits)
	}
	if hits[0].VideoID != exactID || hits[1].VideoID != nearID {
		t.Errorf("order = %v, want exact match first", hits)
	}
}

func TestExpandTokens(t *testing.T) {
	store := newTestStore(t)
	seedLexicon(t, store, map[string][]float32{
		"кот":   {1, 0, 0},
		"кошка": {0.95, 0.05, 0},
		"стол":  {0, 0, 1},
	})

	s := NewSearcher(store, 0.65)
	out, err := s.ExpandTokens(context.Background(), []string{"кот"}, 0.6)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expanded = %v, want literal + кошка", out)
	}
	if out[0].Token != "кот" || out[0].Weight != 1.0 {
		t.Errorf("literal token = %+v", out[0])
	}
	if out[1].Token != "кошка" {
		t.Errorf("injected token = %+v", out[1])
	}
	if out[1].Weight >= 1.0 || out[1].Weight < 0.6 {
		t.Errorf("injected weight = %f, want in [0.6, 1)", out[1].Weight)
	}
}

func TestExpandTokensNoDuplicates(t *testing.T) {
	store := newTestStore(t)
	seedLexicon(t, store, map[string][]float32{
		"кот":   {1, 0, 0},
		"кошка": {0.95, 0.05, 0},
	})

	s := NewSearcher(store, 0.65)
	out, err := s.ExpandTokens(context.Background(), []string{"кот", "кошка"}, 0.6)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	seen := make(map[string]int)
	for _, wt := range out {
		seen[wt.Token]++
	}
	for tok, n := range seen {
		if n != 1 {
			t.Errorf("token %q appears %d times", tok, n)
		}
	}
	for _, tok := range []string{"кот", "кошка"} {
		if seen[tok] != 1 {
			t.Errorf("missing literal token %q: %v", tok, out)
		}
	}
}
