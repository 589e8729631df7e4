// Package clients provides the external AI collaborator contracts and their
// JSON-over-HTTP implementations.
package clients

import "context"

// VectorizedWord is one embedded word returned by the embedder. Vector may be
// empty for words unknown to the model; callers decide whether to keep them.
type VectorizedWord struct {
	Word   string    `json:"word"`
	Vector []float32 `json:"vector"`
}

// Describer produces a textual description of a video.
type Describer interface {
	Describe(ctx context.Context, videoURL, prompt string) (string, error)
}

// Translation is the translator response: the primary phrasing plus
// alternatives.
type Translation struct {
	TranslatedText string   `json:"translatedText"`
	Alternatives   []string `json:"alternatives"`
}

// Translator translates text between languages.
type Translator interface {
	Translate(ctx context.Context, text, source, target string, alternatives int) (*Translation, error)
}

// Embedder maps words to embedding vectors.
type Embedder interface {
	Vectorize(ctx context.Context, words []string) ([]VectorizedWord, error)
}

// Transcriber extracts the ordered keyword list of a video's speech track.
// A missing audio track yields (nil, nil) rather than an error.
type Transcriber interface {
	Transcribe(ctx context.Context, videoURL string) ([]string, error)
}
