// Package summarize implements unsupervised extractive summarization:
// assistant messages are segmented into sentence units, scored with a
// random-walk over a lexical-overlap graph, and reassembled from the
// top-ranked units. Fenced code blocks survive verbatim.
package summarize

import (
	"fmt"
	"regexp"
	"strings"
)

// Units shorter than this after trimming carry no summary signal
// ("Sure.", "Done.") and are discarded.
const minUnitLen = 11

var (
	codeFenceRe = regexp.MustCompile("(?s)```.*?```")
	blankLineRe = regexp.MustCompile(`\n\s*\n`)
)

// Unit is one atomic candidate for the summary: a sentence or a whole
// fenced code block.
type Unit struct {
	Text string
	Code bool
}

// Segment splits text into ordered atomic units. Code fences are pulled
// out first and re-inserted as standalone units so sentence splitting can
// never cut through code.
func Segment(text string) []Unit {
	var blocks []string
	masked := codeFenceRe.ReplaceAllStringFunc(text, func(block string) string {
		ph := placeholder(len(blocks))
		blocks = append(blocks, block)
		// Surround with blank lines so the placeholder always splits out
		// as its own unit, even mid-paragraph.
		return "\n\n" + ph + "\n\n"
	})

	var units []Unit
	for _, para := range blankLineRe.Split(masked, -1) {
		for _, sentence := range splitSentences(para) {
			sentence = strings.TrimSpace(sentence)
			if idx, ok := placeholderIndex(sentence, len(blocks)); ok {
				units = append(units, Unit{Text: blocks[idx], Code: true})
				continue
			}
			if len(sentence) < minUnitLen {
				continue
			}
			units = append(units, Unit{Text: sentence})
		}
	}
	return units
}

// splitSentences cuts after runs of sentence-terminal punctuation followed
// by whitespace.
func splitSentences(s string) []string {
	var parts []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		// Swallow the rest of the punctuation run ("?!", "...").
		j := i
		for j+1 < len(runes) && isTerminal(runes[j+1]) {
			j++
		}
		if j+1 < len(runes) && isSpace(runes[j+1]) {
			parts = append(parts, string(runes[start:j+1]))
			start = j + 1
		}
		i = j
	}
	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func placeholder(i int) string {
	return fmt.Sprintf("\x00CODEBLOCK%d\x00", i)
}

func placeholderIndex(s string, n int) (int, bool) {
	for i := 0; i < n; i++ {
		if s == placeholder(i) {
			return i, true
		}
	}
	return 0, false
}
