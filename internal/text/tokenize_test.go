package text

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Кот, собака! и ещё 123 dog-house")
	want := []string{"кот", "собака", "ещё", "dog-house"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeDropsStopWords(t *testing.T) {
	got := Tokenize("кот и собака на крыше")
	want := []string{"кот", "собака", "крыше"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizeEmpty(t *testing.T) {
	if got := Tokenize("... 42 -- !!"); len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
}

func TestTokenizeDistinct(t *testing.T) {
	got := TokenizeDistinct("собака кот собака Кот")
	want := []string{"кот", "собака"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TokenizeDistinct = %v, want %v", got, want)
	}
}

func TestWordsKeepsStopWords(t *testing.T) {
	got := Words("Кот и со")
	want := []string{"кот", "и", "со"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words = %v, want %v", got, want)
	}
}

func TestLatinRatio(t *testing.T) {
	if r := LatinRatio("кот собака"); r != 0 {
		t.Errorf("cyrillic-only ratio = %f, want 0", r)
	}
	if r := LatinRatio("cat dog"); r != 1 {
		t.Errorf("latin-only ratio = %f, want 1", r)
	}
	r := LatinRatio("кот cat")
	if r < 0.49 || r > 0.51 {
		t.Errorf("mixed ratio = %f, want 0.5", r)
	}
	if r := LatinRatio("123 !!!"); r != 0 {
		t.Errorf("no-letter ratio = %f, want 0", r)
	}
}
