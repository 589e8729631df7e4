package storage

import (
	"math"
	"reflect"
	"testing"
)

func TestVectorEncodeDecode(t *testing.T) {
	v := []float32{0.5, -1.25, 3.0}
	got := decodeVector(encodeVector(v))
	if !reflect.DeepEqual(got, v) {
		t.Errorf("round trip = %v, want %v", got, v)
	}
	if got := decodeVector(nil); len(got) != 0 {
		t.Errorf("decode(nil) = %v, want empty", got)
	}
}

func TestCosineDistance(t *testing.T) {
	d, ok := cosineDistance([]float32{1, 0}, []float32{1, 0})
	if !ok || math.Abs(d) > 1e-9 {
		t.Errorf("identical vectors: distance = %f, ok = %v", d, ok)
	}
	d, ok = cosineDistance([]float32{1, 0}, []float32{0, 1})
	if !ok || math.Abs(d-1) > 1e-9 {
		t.Errorf("orthogonal vectors: distance = %f, ok = %v", d, ok)
	}
	if _, ok := cosineDistance([]float32{1, 0}, []float32{1}); ok {
		t.Error("mismatched dimensions should not be ok")
	}
	if _, ok := cosineDistance([]float32{0, 0}, []float32{1, 0}); ok {
		t.Error("zero vector should not be ok")
	}
}
