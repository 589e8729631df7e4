package hint

import (
	"context"
	"path/filepath"
	"reflect"
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

func addIndexedVideo(t *testing.T, store storage.Storage, keywords, sttKeywords []string) {
	t.Helper()
	rec := &models.VideoRecord{
		ID:          uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Status:      models.StatusVideoIndexed,
		URL:         "https://example.com/v.mp4",
		Keywords:    keywords,
		SttKeywords: sttKeywords,
	}
	if err := store.CreateVideo(context.Background(), rec); err != nil {
		t.Fatalf("create video: %v", err)
	}
}

func TestLookupBeforeFirstBuild(t *testing.T) {
	store := newTestStore(t)
	addIndexedVideo(t, store, []string{"собака"}, nil)

	idx := NewIndex(store)
	if got := idx.Lookup("со"); got != nil {
		t.Errorf("lookup before build = %v, want nil", got)
	}
}

func TestLookupPrefix(t *testing.T) {
	store := newTestStore(t)
	addIndexedVideo(t, store, []string{"собака", "кот"}, []string{"солнце"})

	idx := NewIndex(store)
	if err := idx.WarmUp(context.Background()); err != nil {
		t.Fatalf("warm up: %v", err)
	}

	got := idx.Lookup("со")
	want := []string{"собака", "солнце"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lookup(со) = %v, want %v", got, want)
	}

	if got := idx.Lookup("кот"); !reflect.DeepEqual(got, []string{"кот"}) {
		t.Errorf("Lookup(кот) = %v, want [кот]", got)
	}
	if got := idx.Lookup("якорь"); got != nil {
		t.Errorf("Lookup(якорь) = %v, want nil", got)
	}
	if got := idx.Lookup(""); got != nil {
		t.Errorf("Lookup(\"\") = %v, want nil", got)
	}
}

func TestLookupUsesLastWord(t *testing.T) {
	store := newTestStore(t)
	addIndexedVideo(t, store, []string{"собака", "кот"}, nil)

	idx := NewIndex(store)
	if err := idx.WarmUp(context.Background()); err != nil {
		t.Fatalf("warm up: %v", err)
	}

	got := idx.Lookup("кот со")
	if !reflect.DeepEqual(got, []string{"собака"}) {
		t.Errorf("Lookup(кот со) = %v, want [собака]", got)
	}
}

func TestLookupExcludesUnindexedRecords(t *testing.T) {
	store := newTestStore(t)
	rec := &models.VideoRecord{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Status:    models.StatusQueued,
		URL:       "https://example.com/v.mp4",
		Keywords:  []string{"черновик"},
	}
	if err := store.CreateVideo(context.Background(), rec); err != nil {
		t.Fatalf("create video: %v", err)
	}

	idx := NewIndex(store)
	if err := idx.WarmUp(context.Background()); err != nil {
		t.Fatalf("warm up: %v", err)
	}
	if got := idx.Lookup("че"); got != nil {
		t.Errorf("Lookup = %v, want nil for unindexed record", got)
	}
}

func TestNotifyDebounces(t *testing.T) {
	store := newTestStore(t)
	idx := NewIndex(store, WithQuietPeriod(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	idx.Start(ctx)

	addIndexedVideo(t, store, []string{"собака"}, nil)
	for i := 0; i < 10; i++ {
		idx.Notify()
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := idx.Lookup("со"); len(got) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("index was not rebuilt after Notify")
}

func TestNotifyNonBlocking(t *testing.T) {
	idx := NewIndex(newTestStore(t))
	// No Start loop running; bursts must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			idx.Notify()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked without a running rebuild loop")
	}
}
