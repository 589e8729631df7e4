package text

// WeightedToken is a token with an occurrence weight. Literal tokens weigh
// 1.0; tokens injected by semantic expansion carry their similarity
// coefficient (< 1.0).
type WeightedToken struct {
	Token  string
	Weight float64
}

// Literal wraps tokens as weight-1.0 weighted tokens.
func Literal(tokens []string) []WeightedToken {
	out := make([]WeightedToken, len(tokens))
	for i, t := range tokens {
		out[i] = WeightedToken{Token: t, Weight: 1.0}
	}
	return out
}

// Ngrams returns the sliding character n-grams of width n for token.
// Tokens shorter than n contribute themselves as a single n-gram.
func Ngrams(token string, n int) []string {
	runes := []rune(token)
	if len(runes) <= n {
		if len(runes) == 0 {
			return nil
		}
		return []string{token}
	}
	out := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		out = append(out, string(runes[i:i+n]))
	}
	return out
}

// NgramCounts accumulates weighted n-gram counts over a token set.
func NgramCounts(tokens []WeightedToken, n int) map[string]float64 {
	counts := make(map[string]float64)
	for _, wt := range tokens {
		for _, g := range Ngrams(wt.Token, n) {
			counts[g] += wt.Weight
		}
	}
	return counts
}

// NgramSet returns the distinct n-grams of a plain token set.
func NgramSet(tokens []string, n int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range tokens {
		for _, g := range Ngrams(t, n) {
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}
