package summarize

import "strings"

// codeSentinel is the single token a code unit reduces to: code takes part
// in the graph without leaking lexical signal into sentence similarity.
const codeSentinel = "\x00code\x00"

// minTokenLen drops stopword-sized tokens ("a", "to", "is").
const minTokenLen = 3

// tokens returns the normalized token set of a unit.
func tokens(u Unit) map[string]struct{} {
	set := make(map[string]struct{})
	if u.Code {
		set[codeSentinel] = struct{}{}
		return set
	}

	var b strings.Builder
	b.Grow(len(u.Text))
	for _, r := range strings.ToLower(u.Text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	for _, tok := range strings.Fields(b.String()) {
		if len(tok) < minTokenLen {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// jaccard is |intersection| / |union| over two token sets, 0 when either
// is empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// buildGraph computes the symmetric pairwise lexical-overlap matrix over
// the units. The diagonal is left at zero; the ranker never reads it.
func buildGraph(units []Unit) [][]float64 {
	n := len(units)
	sets := make([]map[string]struct{}, n)
	for i, u := range units {
		sets[i] = tokens(u)
	}

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := jaccard(sets[i], sets[j])
			m[i][j] = sim
			m[j][i] = sim
		}
	}
	return m
}
