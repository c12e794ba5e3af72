package llm

import (
	"fmt"
	"strings"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/transcript"
)

// SummaryPrompt generates the prompt for remote transcript summarization.
// The rules mirror what the extractive fallback guarantees, so a caller
// gets comparable output from either strategy: meaning preserved, code
// blocks verbatim, user turns untouched.
func SummaryPrompt(msgs []transcript.Message, ratio float64) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString("] ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	return fmt.Sprintf(`You are a transcript compression system. Shorten the assistant turns of this conversation while preserving its meaning.

TRANSCRIPT:
%s

Rules:
- Keep every [USER] turn exactly as written
- Shorten each [ASSISTANT] turn to roughly %d%% of its length by dropping low-information sentences
- Never paraphrase: keep only sentences that appear in the original
- Keep every fenced code block character-for-character
- Keep turns in their original order
- Return the compressed transcript in the same [USER]/[ASSISTANT] format, nothing else`,
		strings.TrimSpace(b.String()), int(ratio*100))
}
