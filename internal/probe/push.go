package probe

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/transcript"
)

// PushResult is the server's answer to one submitted snapshot. A nil
// result means the server was unreachable and the snapshot was dropped.
type PushResult struct {
	Merged       bool   `json:"merged"`
	MessageCount int    `json:"message_count"`
	CaptureID    string `json:"capture_id"`
}

// Push reads one snapshot (a JSON array of fragments) from r and submits
// it for the workbook. Malformed input degrades to an empty snapshot; an
// unreachable server degrades to a silent drop. Neither may surface as an
// error inside the host application.
func (c *Client) Push(workbook string, r io.Reader) (*PushResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fragments: %w", err)
	}
	frags := transcript.DecodeFragments(data)

	if !c.Healthy() {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{"fragments": frags})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	resp, err := c.Post("/api/conversations/"+url.PathEscape(workbook)+"/snapshots", body)
	if err != nil {
		return nil, err
	}

	var res PushResult
	if err := json.Unmarshal(resp, &res); err != nil {
		return nil, fmt.Errorf("decode push response: %w", err)
	}
	return &res, nil
}

// SetCapture pauses or resumes capture for a workbook on the server.
func (c *Client) SetCapture(workbook string, enabled bool) error {
	body, err := json.Marshal(map[string]bool{"enabled": enabled})
	if err != nil {
		return fmt.Errorf("encode capture toggle: %w", err)
	}
	_, err = c.Post("/api/conversations/"+url.PathEscape(workbook)+"/capture", body)
	return err
}
