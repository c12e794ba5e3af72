package summarize

// Ranking runs a fixed number of iterations rather than checking for
// convergence: cost stays deterministic and bounded no matter the input.
const (
	rankIterations = 50
	dampingFactor  = 0.85
)

// rank scores each node of the similarity graph with a damped random walk
// (PageRank over the row-normalized matrix).
func rank(m [][]float64) []float64 {
	return rankWith(m, rankIterations, dampingFactor)
}

// rankWith is the tunable form used by tests.
func rankWith(m [][]float64, iterations int, damping float64) []float64 {
	n := len(m)
	if n == 0 {
		return nil
	}

	// Row-normalize; rows summing to zero stay as-is.
	norm := make([][]float64, n)
	for i := range m {
		row := make([]float64, n)
		sum := 0.0
		for _, v := range m[i] {
			sum += v
		}
		if sum > 0 {
			for j, v := range m[i] {
				row[j] = v / sum
			}
		} else {
			copy(row, m[i])
		}
		norm[i] = row
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	base := (1.0 - damping) / float64(n)
	next := make([]float64, n)
	for it := 0; it < iterations; it++ {
		for i := 0; i < n; i++ {
			incoming := 0.0
			for j := 0; j < n; j++ {
				incoming += norm[j][i] * scores[j]
			}
			next[i] = base + damping*incoming
		}
		scores, next = next, scores
	}
	return scores
}
