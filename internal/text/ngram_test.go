package text

import (
	"math"
	"reflect"
	"testing"
)

func TestNgrams(t *testing.T) {
	got := Ngrams("собака", 3)
	want := []string{"соб", "оба", "бак", "ака"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Ngrams = %v, want %v", got, want)
	}
}

func TestNgramsShortToken(t *testing.T) {
	if got := Ngrams("кот", 3); !reflect.DeepEqual(got, []string{"кот"}) {
		t.Errorf("Ngrams(кот) = %v, want [кот]", got)
	}
	if got := Ngrams("у", 3); !reflect.DeepEqual(got, []string{"у"}) {
		t.Errorf("Ngrams(у) = %v, want [у]", got)
	}
	if got := Ngrams("", 3); got != nil {
		t.Errorf("Ngrams(\"\") = %v, want nil", got)
	}
}

func TestNgramCountsWeighted(t *testing.T) {
	tokens := []WeightedToken{
		{Token: "кот", Weight: 1.0},
		{Token: "кот", Weight: 0.8},
	}
	counts := NgramCounts(tokens, 3)
	if math.Abs(counts["кот"]-1.8) > 1e-9 {
		t.Errorf("count = %f, want 1.8", counts["кот"])
	}
}

func TestNgramSet(t *testing.T) {
	got := NgramSet([]string{"кот", "коты"}, 3)
	want := []string{"кот", "оты"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NgramSet = %v, want %v", got, want)
	}
}

func TestLiteral(t *testing.T) {
	got := Literal([]string{"a", "b"})
	for _, wt := range got {
		if wt.Weight != 1.0 {
			t.Errorf("weight = %f, want 1.0", wt.Weight)
		}
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}
