package summarize

import (
	"math"
	"sort"
	"strings"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/transcript"
)

// Below this many units there is nothing worth cutting; the text passes
// through unchanged.
const noopThreshold = 3

// Minimum number of text units always retained, regardless of ratio.
const minKeptUnits = 2

// Condense shortens a block of text to roughly ratio of its sentence
// units, keeping the highest-ranked sentences and every code block, in
// their original order. Ratio is clamped to (0, 1]; degenerate input comes
// back unchanged.
func Condense(text string, ratio float64) string {
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	units := Segment(text)
	if len(units) <= noopThreshold {
		return text
	}

	scores := rank(buildGraph(units))

	var textIdx []int
	keep := make(map[int]bool, len(units))
	for i, u := range units {
		if u.Code {
			keep[i] = true
		} else {
			textIdx = append(textIdx, i)
		}
	}

	quota := int(math.Ceil(float64(len(textIdx)) * ratio))
	if quota < minKeptUnits {
		quota = minKeptUnits
	}
	if quota > len(textIdx) {
		quota = len(textIdx)
	}

	sort.SliceStable(textIdx, func(a, b int) bool {
		return scores[textIdx[a]] > scores[textIdx[b]]
	})
	for _, i := range textIdx[:quota] {
		keep[i] = true
	}

	var kept []string
	for i, u := range units {
		if keep[i] {
			kept = append(kept, u.Text)
		}
	}
	return strings.Join(kept, "\n\n")
}

// Messages compresses a transcript for display: user messages pass through
// untouched, each assistant message is condensed independently. The input
// slice is not modified.
func Messages(msgs []transcript.Message, ratio float64) []transcript.Message {
	out := make([]transcript.Message, len(msgs))
	copy(out, msgs)
	for i := range out {
		if out[i].Role == transcript.RoleAssistant {
			out[i].Content = Condense(out[i].Content, ratio)
		}
	}
	return out
}
