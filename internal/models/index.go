package models

// VectorKind distinguishes which pipeline step emitted a keyword vector.
type VectorKind int

const (
	// VideoKeywords are centroid vectors derived from the translated description.
	VideoKeywords VectorKind = iota
	// TranscriptKeywords are vectors derived from the speech transcript.
	TranscriptKeywords
)

// KeywordVector is one representative keyword emitted for a video.
// All rows for a (video, kind) pair are replaced together on re-indexing.
type KeywordVector struct {
	ID          string
	VideoID     string
	Word        string
	Vector      []float32
	ClusterSize int
	Kind        VectorKind
}

// WordEmbedding is a row of the global word lexicon.
type WordEmbedding struct {
	Word   string
	Vector []float32
}

// NgramStat holds corpus-wide statistics for one n-gram.
type NgramStat struct {
	Ngram      string
	TotalDocs  int
	TotalCount float64
	IDF        float64
	IDFBM25    float64
}

// NgramDocStat holds per-document statistics for one n-gram.
// CountInDoc is fractional because semantically injected tokens contribute
// their similarity coefficient instead of a full occurrence.
type NgramDocStat struct {
	Ngram      string
	DocumentID string
	CountInDoc float64
	TF         float64
	TFBM25     float64
	Score      float64
	ScoreBM25  float64
}
