package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/llm"
	"github.com/Sharad077/ClaudeForExcelMemory/internal/store"
	"github.com/Sharad077/ClaudeForExcelMemory/internal/transcript"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func paneFragments(assistant string) []transcript.Fragment {
	return []transcript.Fragment{
		{Role: "user", Text: "Can you total the revenue column?", Position: 100},
		{Role: "assistant", Text: assistant, Position: 200},
	}
}

func TestIngestFirstSnapshot(t *testing.T) {
	eng := New(testDB(t), nil)

	res, err := eng.Ingest("Budget.xlsx", paneFragments("Use =SUM(C:C) in an empty cell."))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !res.Merged {
		t.Fatal("first snapshot should merge")
	}
	if res.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", res.MessageCount)
	}
	if res.CaptureID == "" {
		t.Error("expected a capture log entry")
	}

	conv, err := eng.DB.GetConversation("Budget.xlsx")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if conv == nil || len(conv.Messages) != 2 {
		t.Fatalf("persisted conversation = %+v, want 2 messages", conv)
	}
}

func TestIngestDuplicateSnapshot(t *testing.T) {
	eng := New(testDB(t), nil)

	frags := paneFragments("Use =SUM(C:C) in an empty cell.")
	if _, err := eng.Ingest("Budget.xlsx", frags); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	res, err := eng.Ingest("Budget.xlsx", frags)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if res.Merged {
		t.Error("duplicate snapshot should not merge")
	}

	// Both captures logged, merged and unmerged.
	caps, err := eng.DB.RecentCaptures("Budget.xlsx", 10)
	if err != nil {
		t.Fatalf("RecentCaptures: %v", err)
	}
	if len(caps) != 2 {
		t.Fatalf("capture log entries = %d, want 2", len(caps))
	}
}

func TestIngestGrowingMessage(t *testing.T) {
	eng := New(testDB(t), nil)

	if _, err := eng.Ingest("Budget.xlsx", paneFragments("Use =SUM")); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	res, err := eng.Ingest("Budget.xlsx", paneFragments("Use =SUM(C:C) in an empty cell below the data."))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if !res.Merged {
		t.Fatal("grown snapshot should merge")
	}
	if res.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2 (no duplicates)", res.MessageCount)
	}

	conv, _ := eng.DB.GetConversation("Budget.xlsx")
	if conv.Messages[1].Content != "Use =SUM(C:C) in an empty cell below the data." {
		t.Errorf("assistant message = %q", conv.Messages[1].Content)
	}
}

func TestIngestLogsRejectedSnapshotDigest(t *testing.T) {
	eng := New(testDB(t), nil)

	if _, err := eng.Ingest("Budget.xlsx", paneFragments("Use =SUM(C:C).")); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// A user-only pane read is rejected, but its log row must carry the
	// rejected snapshot's digest, not the last accepted one.
	partial := []transcript.Fragment{
		{Role: "user", Text: "Can you total the revenue column?", Position: 100},
	}
	if _, err := eng.Ingest("Budget.xlsx", partial); err != nil {
		t.Fatalf("partial ingest: %v", err)
	}

	caps, err := eng.DB.RecentCaptures("Budget.xlsx", 10)
	if err != nil {
		t.Fatalf("RecentCaptures: %v", err)
	}
	if len(caps) != 2 {
		t.Fatalf("capture log entries = %d, want 2", len(caps))
	}
	if caps[0].Merged {
		t.Fatal("newest entry should be the rejected capture")
	}
	want := transcript.BuildSnapshot(partial).Digest
	if caps[0].Digest != want {
		t.Errorf("rejected capture digest = %q, want %q", caps[0].Digest, want)
	}
	if caps[0].Digest == caps[1].Digest {
		t.Error("rejected capture should not repeat the accepted digest")
	}
}

func TestIngestRestartResumesDigest(t *testing.T) {
	db := testDB(t)
	frags := paneFragments("Use =SUM(C:C).")

	eng := New(db, nil)
	if _, err := eng.Ingest("Budget.xlsx", frags); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	// Fresh engine over the same DB simulates a restart.
	eng2 := New(db, nil)
	res, err := eng2.Ingest("Budget.xlsx", frags)
	if err != nil {
		t.Fatalf("ingest after restart: %v", err)
	}
	if res.Merged {
		t.Error("identical snapshot should still be rejected after restart")
	}
}

func TestIngestCaptureToggle(t *testing.T) {
	eng := New(testDB(t), nil)
	eng.SetCapture("Budget.xlsx", false)

	res, err := eng.Ingest("Budget.xlsx", paneFragments("ignored while paused"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Merged {
		t.Error("paused workbook should reject snapshots")
	}
	if eng.CaptureEnabled("Budget.xlsx") {
		t.Error("CaptureEnabled should report false")
	}

	eng.SetCapture("Budget.xlsx", true)
	res, err = eng.Ingest("Budget.xlsx", paneFragments("accepted after resume"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !res.Merged {
		t.Error("resumed workbook should accept snapshots")
	}
}

func TestIngestRequiresWorkbook(t *testing.T) {
	eng := New(testDB(t), nil)
	if _, err := eng.Ingest("", paneFragments("x")); err == nil {
		t.Error("expected error for empty workbook")
	}
}

func TestForget(t *testing.T) {
	eng := New(testDB(t), nil)
	frags := paneFragments("Use =SUM(C:C).")

	if _, err := eng.Ingest("Budget.xlsx", frags); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if err := eng.Forget("Budget.xlsx"); err != nil {
		t.Fatalf("Forget: %v", err)
	}

	conv, _ := eng.DB.GetConversation("Budget.xlsx")
	if conv != nil {
		t.Error("conversation should be deleted")
	}

	// The same snapshot is acceptable again — gatekeeping state was reset.
	res, err := eng.Ingest("Budget.xlsx", frags)
	if err != nil {
		t.Fatalf("ingest after forget: %v", err)
	}
	if !res.Merged {
		t.Error("snapshot should merge again after Forget")
	}
}

func longAssistantAnswer() string {
	sentences := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		sentences = append(sentences, fmt.Sprintf("Revenue observation number %d concerns the projection model.", i))
	}
	return strings.Join(sentences, " ")
}

func seedConversation(t *testing.T, eng *Engine) {
	t.Helper()
	frags := paneFragments(longAssistantAnswer())
	if _, err := eng.Ingest("Budget.xlsx", frags); err != nil {
		t.Fatalf("seed ingest: %v", err)
	}
}

func TestSummaryExtractive(t *testing.T) {
	eng := New(testDB(t), nil)
	seedConversation(t, eng)

	res, err := eng.Summary(context.Background(), "Budget.xlsx", 0.3)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if res.Source != SourceExtractive {
		t.Errorf("source = %q, want extractive", res.Source)
	}
	if len(res.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(res.Messages))
	}
	if res.Messages[0].Content != "Can you total the revenue column?" {
		t.Error("user message must pass through untouched")
	}
	if len(res.Messages[1].Content) >= len(longAssistantAnswer()) {
		t.Error("assistant message was not compressed")
	}

	// The canonical transcript is untouched.
	conv, _ := eng.DB.GetConversation("Budget.xlsx")
	if conv.Messages[1].Content != longAssistantAnswer() {
		t.Error("Summary modified the stored transcript")
	}
}

func TestSummaryPrefersLLM(t *testing.T) {
	mock := &llm.MockClient{
		Response: &llm.Response{
			Content:  "[USER] Can you total the revenue column?\n[ASSISTANT] Revenue observation number 0 concerns the projection model.",
			Provider: "mock",
		},
	}
	eng := New(testDB(t), mock)
	seedConversation(t, eng)

	res, err := eng.Summary(context.Background(), "Budget.xlsx", 0.3)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if res.Source != SourceLLM {
		t.Errorf("source = %q, want llm", res.Source)
	}
	if len(res.Messages) != 2 {
		t.Fatalf("messages = %d, want 2: %+v", len(res.Messages), res.Messages)
	}
	if res.Messages[0].Role != "user" || res.Messages[1].Role != "assistant" {
		t.Errorf("roles = %q/%q", res.Messages[0].Role, res.Messages[1].Role)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("LLM calls = %d, want 1", len(mock.Calls))
	}
}

func TestSummaryFallsBackOnLLMError(t *testing.T) {
	mock := &llm.MockClient{Err: fmt.Errorf("api unreachable")}
	eng := New(testDB(t), mock)
	seedConversation(t, eng)

	res, err := eng.Summary(context.Background(), "Budget.xlsx", 0.3)
	if err != nil {
		t.Fatalf("Summary should fall back, got error: %v", err)
	}
	if res.Source != SourceExtractive {
		t.Errorf("source = %q, want extractive fallback", res.Source)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("LLM calls = %d, want 1", len(mock.Calls))
	}
}

func TestSummaryFallsBackOnEmptyLLMResponse(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "   ", Provider: "mock"}}
	eng := New(testDB(t), mock)
	seedConversation(t, eng)

	res, err := eng.Summary(context.Background(), "Budget.xlsx", 0.3)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if res.Source != SourceExtractive {
		t.Errorf("source = %q, want extractive for blank LLM output", res.Source)
	}
}

func TestSummaryUnknownWorkbook(t *testing.T) {
	eng := New(testDB(t), nil)
	if _, err := eng.Summary(context.Background(), "Nope.xlsx", 0.3); err == nil {
		t.Error("expected error for unknown workbook")
	}
}

func TestSummaryByteCap(t *testing.T) {
	eng := New(testDB(t), nil)
	seedConversation(t, eng)
	eng.MaxSummaryBytes = 40 // smaller than the assistant answer

	res, err := eng.Summary(context.Background(), "Budget.xlsx", 1.0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	// Only the newest message fits; the older user turn is dropped from
	// the summary input, never from the store.
	if len(res.Messages) != 1 {
		t.Errorf("messages = %d, want 1 under byte cap", len(res.Messages))
	}
	conv, _ := eng.DB.GetConversation("Budget.xlsx")
	if len(conv.Messages) != 2 {
		t.Error("byte cap must not touch the stored transcript")
	}
}

func TestParseSummaryTranscriptPlainText(t *testing.T) {
	msgs := parseSummaryTranscript("just a flat summary with no markers")
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if msgs[0].Role != "assistant" {
		t.Errorf("role = %q, want assistant", msgs[0].Role)
	}
}
