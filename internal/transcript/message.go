package transcript

import "encoding/json"

// Roles a conversation message can carry. Role classification happens
// upstream in the screen-reading probe; the core only distinguishes the two.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Fragment is one raw text element captured from the chat pane.
// Position is a vertical screen coordinate used only to order fragments
// within a single snapshot; it is never persisted.
type Fragment struct {
	Role     string  `json:"role"`
	Text     string  `json:"text"`
	Position float64 `json:"position"`
}

// Message is a normalized, persisted conversation unit.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Snapshot is one point-in-time, possibly-incomplete observation of the
// conversation. Digest fingerprints the whole capture so identical
// re-captures can be skipped without merging.
type Snapshot struct {
	Messages []Message
	Digest   string
}

// DecodeFragments parses a JSON array of fragments, as delivered by the
// probe. Malformed input yields an empty list, not an error.
func DecodeFragments(data []byte) []Fragment {
	var frags []Fragment
	if err := json.Unmarshal(data, &frags); err != nil {
		return nil
	}
	return frags
}

// DecodeMessages parses a stored JSON transcript. Unparsable or
// wrong-shaped history is treated as an empty transcript (fail-open) so a
// corrupt record never blocks new captures.
func DecodeMessages(data []byte) []Message {
	if len(data) == 0 {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	out := msgs[:0]
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		if m.Role != RoleUser && m.Role != RoleAssistant {
			continue
		}
		out = append(out, m)
	}
	return out
}

// EncodeMessages renders a transcript for storage.
func EncodeMessages(msgs []Message) []byte {
	if len(msgs) == 0 {
		return []byte("[]")
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return []byte("[]")
	}
	return data
}
