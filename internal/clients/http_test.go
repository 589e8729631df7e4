package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func jsonHandler(t *testing.T, wantPath string, response interface{}) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("encode: %v", err)
		}
	}
}

func TestDescriber(t *testing.T) {
	var gotReq describeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(describeResponse{Result: "cat dog"})
	}))
	defer srv.Close()

	d, err := NewHTTPDescriber(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new describer: %v", err)
	}
	result, err := d.Describe(context.Background(), "https://example.com/v.mp4", "list keywords")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if result != "cat dog" {
		t.Errorf("result = %q", result)
	}
	if gotReq.VideoURL != "https://example.com/v.mp4" || gotReq.Prompt != "list keywords" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestDescriberErrorField(t *testing.T) {
	msg := "model overloaded"
	srv := httptest.NewServer(jsonHandler(t, "/describe", describeResponse{Error: &msg}))
	defer srv.Close()

	d, err := NewHTTPDescriber(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new describer: %v", err)
	}
	if _, err := d.Describe(context.Background(), "https://example.com/v.mp4", "p"); err == nil {
		t.Error("expected error from error field")
	}
}

func TestDescriberMultipleURLs(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode(describeResponse{Result: "ok"})
	}))
	defer srv.Close()

	// Both replicas point at the same backend; picking either must work.
	d, err := NewHTTPDescriber(srv.URL+";"+srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new describer: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := d.Describe(context.Background(), "https://example.com/v.mp4", "p"); err != nil {
			t.Fatalf("describe: %v", err)
		}
	}
	if hits != 5 {
		t.Errorf("backend hit %d times, want 5", hits)
	}
}

func TestDescriberEmptyURL(t *testing.T) {
	if _, err := NewHTTPDescriber("", time.Minute); err == nil {
		t.Error("expected error for empty base URL")
	}
}

func TestTranslator(t *testing.T) {
	var gotReq translateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Translation{
			TranslatedText: "кот собака",
			Alternatives:   []string{"кошка и пёс"},
		})
	}))
	defer srv.Close()

	tr, err := NewHTTPTranslator(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	result, err := tr.Translate(context.Background(), "cat dog", "en", "ru", 3)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if result.TranslatedText != "кот собака" {
		t.Errorf("translated = %q", result.TranslatedText)
	}
	if len(result.Alternatives) != 1 {
		t.Errorf("alternatives = %v", result.Alternatives)
	}
	want := translateRequest{Q: "cat dog", Source: "en", Target: "ru", Format: "text", Alternatives: 3}
	if gotReq != want {
		t.Errorf("request = %+v, want %+v", gotReq, want)
	}
}

func TestEmbedder(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, "/vectorize", []VectorizedWord{
		{Word: "кот", Vector: []float32{1, 0}},
		{Word: "xyz", Vector: nil},
	}))
	defer srv.Close()

	e, err := NewHTTPEmbedder(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new embedder: %v", err)
	}
	out, err := e.Vectorize(context.Background(), []string{"кот", "xyz"})
	if err != nil {
		t.Fatalf("vectorize: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d words, want 2", len(out))
	}
	if out[0].Word != "кот" || !reflect.DeepEqual(out[0].Vector, []float32{1, 0}) {
		t.Errorf("first = %+v", out[0])
	}
	if len(out[1].Vector) != 0 {
		t.Errorf("unknown word vector = %v, want empty", out[1].Vector)
	}
}

func TestTranscriber(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, "/transcribe", transcribeResponse{Result: []string{"привет", "мир"}}))
	defer srv.Close()

	tr, err := NewHTTPTranscriber(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new transcriber: %v", err)
	}
	words, err := tr.Transcribe(context.Background(), "https://example.com/v.mp4")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if !reflect.DeepEqual(words, []string{"привет", "мир"}) {
		t.Errorf("words = %v", words)
	}
}

func TestTranscriberNoAudio(t *testing.T) {
	msg := "ffmpeg: /tmp/audio.wav: No such file or directory"
	srv := httptest.NewServer(jsonHandler(t, "/transcribe", transcribeResponse{Error: &msg}))
	defer srv.Close()

	tr, err := NewHTTPTranscriber(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new transcriber: %v", err)
	}
	words, err := tr.Transcribe(context.Background(), "https://example.com/v.mp4")
	if err != nil || words != nil {
		t.Errorf("no-audio = %v, %v; want nil, nil", words, err)
	}
}

func TestTranscriberOtherError(t *testing.T) {
	msg := "gpu out of memory"
	srv := httptest.NewServer(jsonHandler(t, "/transcribe", transcribeResponse{Error: &msg}))
	defer srv.Close()

	tr, err := NewHTTPTranscriber(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new transcriber: %v", err)
	}
	if _, err := tr.Transcribe(context.Background(), "https://example.com/v.mp4"); err == nil {
		t.Error("expected error")
	}
}

func TestPostJSONNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	d, err := NewHTTPDescriber(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new describer: %v", err)
	}
	if _, err := d.Describe(context.Background(), "https://example.com/v.mp4", "p"); err == nil {
		t.Error("expected error for non-200 response")
	}
}
