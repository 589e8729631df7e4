// Package models defines core data structures for video records, keyword
// vectors, n-gram statistics, and search results.
package models

import "time"

// VideoStatus is the indexing state of a video record.
type VideoStatus int

const (
	StatusQueued VideoStatus = iota
	StatusDescribed
	StatusTranslated
	StatusVideoIndexed
	StatusFullIndexed
	StatusError
)

// String returns the status name used in logs and API responses.
func (s VideoStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusDescribed:
		return "described"
	case StatusTranslated:
		return "translated"
	case StatusVideoIndexed:
		return "video_indexed"
	case StatusFullIndexed:
		return "full_indexed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// AllStatuses lists every status in pipeline order.
var AllStatuses = []VideoStatus{
	StatusQueued,
	StatusDescribed,
	StatusTranslated,
	StatusVideoIndexed,
	StatusFullIndexed,
	StatusError,
}

// VideoRecord is one ingested video and its derived descriptors.
// Derived text fields are pointers: nil means the producing step has not run,
// which is distinct from "ran and produced empty text".
type VideoRecord struct {
	ID              string      `json:"id"`
	CreatedAt       time.Time   `json:"created_at"`
	StatusChangedAt time.Time   `json:"status_changed_at"`
	Status          VideoStatus `json:"status"`
	Claimed         bool        `json:"claimed"`
	URL             string      `json:"url"`

	RawDescription        *string `json:"raw_description,omitempty"`
	TranslatedDescription *string `json:"translated_description,omitempty"`
	Transcript            *string `json:"transcript,omitempty"`

	Keywords      []string `json:"keywords,omitempty"`
	SttKeywords   []string `json:"stt_keywords,omitempty"`
	SemanticCloud []string `json:"semantic_cloud,omitempty"`
	CentroidWords []string `json:"centroid_words,omitempty"`
}

// SetStatus transitions the record and refreshes the status timestamp.
func (r *VideoRecord) SetStatus(s VideoStatus) {
	r.Status = s
	r.StatusChangedAt = time.Now().UTC()
}

// VideoInput is the ingestion request body.
type VideoInput struct {
	URL string `json:"url"`
}
