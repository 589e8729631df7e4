package storage

import (
	"encoding/binary"
	"math"
)

// Vectors are persisted as little-endian float32 blobs, 4 bytes per component.

func encodeVector(v []float32) []byte {
	const size = 4
	out := make([]byte, len(v)*size)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(x))
	}
	return out
}

func decodeVector(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// cosineDistance returns 1 - cosine similarity. The second return value is
// false for mismatched dimensions or zero vectors.
func cosineDistance(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), true
}
