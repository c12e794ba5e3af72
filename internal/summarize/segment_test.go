package summarize

import (
	"strings"
	"testing"
)

func TestSegmentSentences(t *testing.T) {
	text := "The SUM function totals a range of cells. You can also use AVERAGE for the mean! Does that answer the question?"

	units := Segment(text)
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d: %v", len(units), units)
	}
	if units[0].Text != "The SUM function totals a range of cells." {
		t.Errorf("units[0] = %q", units[0].Text)
	}
	if units[2].Text != "Does that answer the question?" {
		t.Errorf("units[2] = %q", units[2].Text)
	}
	for i, u := range units {
		if u.Code {
			t.Errorf("units[%d] wrongly flagged as code", i)
		}
	}
}

func TestSegmentBlankLines(t *testing.T) {
	text := "First paragraph without terminal punctuation\n\nSecond paragraph also unterminated"

	units := Segment(text)
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d: %v", len(units), units)
	}
}

func TestSegmentDropsShortUnits(t *testing.T) {
	text := "Sure. Here is a much longer sentence explaining the whole approach. Done."

	units := Segment(text)
	if len(units) != 1 {
		t.Fatalf("expected 1 unit after dropping short ones, got %d: %v", len(units), units)
	}
	if !strings.Contains(units[0].Text, "longer sentence") {
		t.Errorf("kept the wrong unit: %q", units[0].Text)
	}
}

func TestSegmentCodeFenceAtomic(t *testing.T) {
	code := "```python\ntotal = 0. something!\nfor row in rows:\n    total += row.value\n```"
	text := "Here is the script you asked about. " + code + " Run it from the terminal afterwards."

	units := Segment(text)
	if len(units) != 3 {
		t.Fatalf("expected 3 units, got %d: %v", len(units), units)
	}
	if !units[1].Code {
		t.Fatal("middle unit should be flagged as code")
	}
	if units[1].Text != code {
		t.Errorf("code block altered:\n got: %q\nwant: %q", units[1].Text, code)
	}
	if units[0].Code || units[2].Code {
		t.Error("sentence units wrongly flagged as code")
	}
}

func TestSegmentMultipleCodeFencesKeepOrder(t *testing.T) {
	first := "```\n=SUM(A:A)\n```"
	second := "```\n=AVERAGE(B:B)\n```"
	text := "Use the first formula for totals. " + first + " Use the second one for the mean value. " + second

	units := Segment(text)
	if len(units) != 4 {
		t.Fatalf("expected 4 units, got %d: %v", len(units), units)
	}
	if units[1].Text != first || units[3].Text != second {
		t.Error("code blocks restored out of order")
	}
}

func TestSegmentEmpty(t *testing.T) {
	if units := Segment(""); len(units) != 0 {
		t.Errorf("Segment(\"\") = %v, want none", units)
	}
	if units := Segment("   \n\n  "); len(units) != 0 {
		t.Errorf("whitespace-only input produced units: %v", units)
	}
}

func TestSegmentEllipsisNotOverSplit(t *testing.T) {
	text := "Let me think about that for a moment... the answer is to use a pivot table here."

	units := Segment(text)
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d: %v", len(units), units)
	}
	if strings.HasPrefix(units[1].Text, ".") {
		t.Errorf("punctuation run split apart: %q", units[1].Text)
	}
}
