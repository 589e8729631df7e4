package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

func postJSON(ctx context.Context, client *http.Client, url string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// HTTPDescriber calls the video description service. Several base URLs may
// be given; one is picked at random per request to spread load across
// replicas.
type HTTPDescriber struct {
	baseURLs []string
	client   *http.Client
	rng      *rand.Rand
}

// NewHTTPDescriber creates a describer for baseURLs ("url1;url2;...").
func NewHTTPDescriber(baseURLs string, timeout time.Duration) (*HTTPDescriber, error) {
	urls := strings.Split(baseURLs, ";")
	if baseURLs == "" || len(urls) == 0 {
		return nil, fmt.Errorf("describer base URL is empty")
	}
	return &HTTPDescriber{
		baseURLs: urls,
		client:   &http.Client{Timeout: timeout},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

type describeRequest struct {
	VideoURL string `json:"videoUrl"`
	Prompt   string `json:"prompt"`
}

type describeResponse struct {
	Result string  `json:"result"`
	Error  *string `json:"error"`
}

// Describe requests a description for videoURL with the given prompt.
// An error field in the response body is a failure.
func (d *HTTPDescriber) Describe(ctx context.Context, videoURL, prompt string) (string, error) {
	base := d.baseURLs[d.rng.Intn(len(d.baseURLs))]
	var resp describeResponse
	if err := postJSON(ctx, d.client, base+"/describe", describeRequest{VideoURL: videoURL, Prompt: prompt}, &resp); err != nil {
		return "", fmt.Errorf("describe: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("describe: %s", *resp.Error)
	}
	return resp.Result, nil
}

// HTTPTranslator calls the translation service.
type HTTPTranslator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTranslator creates a translator client.
func NewHTTPTranslator(baseURL string, timeout time.Duration) (*HTTPTranslator, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("translator base URL is empty")
	}
	return &HTTPTranslator{baseURL: baseURL, client: &http.Client{Timeout: timeout}}, nil
}

type translateRequest struct {
	Q            string `json:"q"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Format       string `json:"format"`
	Alternatives int    `json:"alternatives"`
}

// Translate translates text from source to target and returns the primary
// phrasing plus up to alternatives alternative phrasings.
func (t *HTTPTranslator) Translate(ctx context.Context, text, source, target string, alternatives int) (*Translation, error) {
	var resp Translation
	req := translateRequest{Q: text, Source: source, Target: target, Format: "text", Alternatives: alternatives}
	if err := postJSON(ctx, t.client, t.baseURL+"/translate", req, &resp); err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	return &resp, nil
}

// HTTPEmbedder calls the word embedding service.
type HTTPEmbedder struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEmbedder creates an embedder client.
func NewHTTPEmbedder(baseURL string, timeout time.Duration) (*HTTPEmbedder, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("embedder base URL is empty")
	}
	return &HTTPEmbedder{baseURL: baseURL, client: &http.Client{Timeout: timeout}}, nil
}

type vectorizeRequest struct {
	Words []string `json:"words"`
}

// Vectorize returns one entry per input word; unknown words come back with
// empty vectors.
func (e *HTTPEmbedder) Vectorize(ctx context.Context, words []string) ([]VectorizedWord, error) {
	var resp []VectorizedWord
	if err := postJSON(ctx, e.client, e.baseURL+"/vectorize", vectorizeRequest{Words: words}, &resp); err != nil {
		return nil, fmt.Errorf("vectorize: %w", err)
	}
	return resp, nil
}

// HTTPTranscriber calls the speech transcription service.
type HTTPTranscriber struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTranscriber creates a transcriber client.
func NewHTTPTranscriber(baseURL string, timeout time.Duration) (*HTTPTranscriber, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("transcriber base URL is empty")
	}
	return &HTTPTranscriber{baseURL: baseURL, client: &http.Client{Timeout: timeout}}, nil
}

type transcribeRequest struct {
	VideoURL string `json:"videoUrl"`
}

type transcribeResponse struct {
	Result []string `json:"result"`
	Error  *string  `json:"error"`
}

// Transcribe returns the ordered transcript keywords of videoURL. A "no such
// file" error from the service means the video has no audio track and yields
// an empty result instead of an error.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, videoURL string) ([]string, error) {
	var resp transcribeResponse
	if err := postJSON(ctx, t.client, t.baseURL+"/transcribe", transcribeRequest{VideoURL: videoURL}, &resp); err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	if resp.Error != nil {
		if strings.Contains(*resp.Error, "No such file or directory") {
			return nil, nil
		}
		return nil, fmt.Errorf("transcribe: %s", *resp.Error)
	}
	return resp.Result, nil
}
