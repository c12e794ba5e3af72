// Package engine wires the reconciliation and summarization cores to the
// store and the optional LLM. The cores are pure; persistence, the
// per-workbook gatekeeping contexts, and the remote-first summarization
// strategy all live here.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/llm"
	"github.com/Sharad077/ClaudeForExcelMemory/internal/store"
	"github.com/Sharad077/ClaudeForExcelMemory/internal/summarize"
	"github.com/Sharad077/ClaudeForExcelMemory/internal/transcript"
)

// Summary sources reported to callers.
const (
	SourceLLM        = "llm"
	SourceExtractive = "extractive"
)

// Engine orchestrates snapshot ingestion and transcript summarization.
type Engine struct {
	DB  *store.DB
	LLM llm.Client // nil disables the remote summarization strategy

	// MaxSummaryBytes bounds how much transcript text one summary request
	// may process; the summarizer itself imposes no limit. Zero means
	// unbounded.
	MaxSummaryBytes int

	// DefaultRatio is the compression ratio used when a caller does not
	// ask for one.
	DefaultRatio float64

	mu     sync.Mutex
	recons map[string]*transcript.Reconciler
}

// New creates a new Engine.
func New(db *store.DB, client llm.Client) *Engine {
	return &Engine{
		DB:           db,
		LLM:          client,
		DefaultRatio: 0.3,
		recons:       make(map[string]*transcript.Reconciler),
	}
}

// IngestResult reports what one snapshot did to a workbook's transcript.
type IngestResult struct {
	Merged       bool
	MessageCount int
	CaptureID    string
}

// Ingest reconciles one snapshot of raw fragments into the workbook's
// canonical transcript, persisting the result when the snapshot is
// accepted. Rejected snapshots ("no update") are not errors; they still
// land in the capture log.
func (e *Engine) Ingest(workbook string, frags []transcript.Fragment) (*IngestResult, error) {
	if workbook == "" {
		return nil, fmt.Errorf("workbook required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	conv, err := e.DB.GetConversation(workbook)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var existing []transcript.Message
	if conv != nil {
		existing = conv.Messages
	}

	rec := e.reconcilerLocked(workbook, conv)
	merged, snapDigest, updated := rec.Reconcile(existing, frags)

	if updated {
		if err := e.DB.SaveConversation(workbook, merged, snapDigest); err != nil {
			return nil, fmt.Errorf("save conversation: %w", err)
		}
	}

	// The log carries the snapshot's own digest even when rejected, so a
	// run of unmerged rows shows what the pane actually contained.
	captureID, err := e.DB.RecordCapture(workbook, snapDigest, len(frags), len(merged), updated)
	if err != nil {
		// The merge already persisted; a failed audit entry is not worth
		// failing the ingest over.
		log.Printf("record capture for %s: %v", workbook, err)
	}

	return &IngestResult{
		Merged:       updated,
		MessageCount: len(merged),
		CaptureID:    captureID,
	}, nil
}

// SetCapture pauses or resumes snapshot acceptance for a workbook.
func (e *Engine) SetCapture(workbook string, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reconcilerLocked(workbook, nil).SetEnabled(enabled)
}

// CaptureEnabled reports whether a workbook is accepting snapshots.
func (e *Engine) CaptureEnabled(workbook string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reconcilerLocked(workbook, nil).Enabled()
}

// Forget drops a workbook's transcript, capture log, and gatekeeping
// state.
func (e *Engine) Forget(workbook string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.DB.DeleteConversation(workbook); err != nil {
		return err
	}
	if rec, ok := e.recons[workbook]; ok {
		rec.Reset()
	}
	return nil
}

// reconcilerLocked returns the workbook's gatekeeping context, creating it
// on first use. When conv is nil the stored digest is looked up so change
// detection survives restarts. Callers must hold e.mu.
func (e *Engine) reconcilerLocked(workbook string, conv *store.Conversation) *transcript.Reconciler {
	if rec, ok := e.recons[workbook]; ok {
		return rec
	}

	digest := ""
	if conv == nil {
		conv, _ = e.DB.GetConversation(workbook)
	}
	if conv != nil {
		digest = conv.LastDigest
	}

	rec := transcript.NewReconciler(digest)
	e.recons[workbook] = rec
	return rec
}

// SummaryResult is a compressed transcript plus where it came from.
type SummaryResult struct {
	Workbook string
	Messages []transcript.Message
	Source   string
}

// Summary compresses a workbook's transcript. A configured LLM is tried
// first; any failure falls back to the extractive summarizer, so the call
// succeeds whenever the workbook exists. The canonical transcript is
// never modified.
func (e *Engine) Summary(ctx context.Context, workbook string, ratio float64) (*SummaryResult, error) {
	conv, err := e.DB.GetConversation(workbook)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("no conversation for workbook %q", workbook)
	}

	msgs := conv.Messages
	if e.MaxSummaryBytes > 0 {
		msgs = capMessages(msgs, e.MaxSummaryBytes)
	}

	if e.LLM != nil {
		resp, err := e.LLM.Complete(ctx, llm.SummaryPrompt(msgs, ratio))
		if err == nil && strings.TrimSpace(resp.Content) != "" {
			return &SummaryResult{
				Workbook: workbook,
				Messages: parseSummaryTranscript(resp.Content),
				Source:   SourceLLM,
			}, nil
		}
		if err != nil {
			log.Printf("llm summary for %s failed, falling back: %v", workbook, err)
		}
	}

	return &SummaryResult{
		Workbook: workbook,
		Messages: summarize.Messages(msgs, ratio),
		Source:   SourceExtractive,
	}, nil
}

// capMessages trims the transcript from the front until its total content
// fits the byte budget: the tail of a long conversation is where the
// current context lives. Individual messages are kept whole.
func capMessages(msgs []transcript.Message, maxBytes int) []transcript.Message {
	total := 0
	for _, m := range msgs {
		total += len(m.Content)
	}
	start := 0
	for start < len(msgs)-1 && total > maxBytes {
		total -= len(msgs[start].Content)
		start++
	}
	return msgs[start:]
}

// parseSummaryTranscript reads the [USER]/[ASSISTANT] format the summary
// prompt asks for back into messages. Preamble before the first marker is
// dropped; a response with no markers at all becomes a single assistant
// message so the caller still gets the summary text.
func parseSummaryTranscript(s string) []transcript.Message {
	var msgs []transcript.Message
	role := ""
	var buf strings.Builder

	flush := func() {
		if role == "" {
			return
		}
		content := strings.TrimSpace(buf.String())
		if content != "" {
			msgs = append(msgs, transcript.Message{Role: role, Content: content})
		}
		buf.Reset()
	}

	for _, line := range strings.Split(s, "\n") {
		switch {
		case strings.HasPrefix(line, "[USER]"):
			flush()
			role = transcript.RoleUser
			buf.WriteString(strings.TrimPrefix(line, "[USER]"))
			buf.WriteString("\n")
		case strings.HasPrefix(line, "[ASSISTANT]"):
			flush()
			role = transcript.RoleAssistant
			buf.WriteString(strings.TrimPrefix(line, "[ASSISTANT]"))
			buf.WriteString("\n")
		default:
			if role != "" {
				buf.WriteString(line)
				buf.WriteString("\n")
			}
		}
	}
	flush()

	if len(msgs) == 0 && strings.TrimSpace(s) != "" {
		return []transcript.Message{{Role: transcript.RoleAssistant, Content: strings.TrimSpace(s)}}
	}
	return msgs
}
