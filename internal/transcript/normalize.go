package transcript

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Excel appends the current selection to copied pane text, e.g.
// "...answer text\nA1 selected" or "...\nB2:D10 selected".
var cellRefSuffixRe = regexp.MustCompile(`(?i)\n+\s*[a-z]+\d+(:[a-z]+\d+)?\s+selected\s*$`)

const minFragmentRunes = 2

// CleanFragmentText strips UI noise from one raw fragment and reports
// whether anything usable remains. Rejection is a normal outcome, not an
// error: excluded fragments are simply omitted.
func CleanFragmentText(s string) (string, bool) {
	s = cellRefSuffixRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < minFragmentRunes {
		return "", false
	}
	return s, true
}

// BuildSnapshot orders raw fragments by screen position, normalizes each,
// and fingerprints the result. Fragments that normalize to nothing are
// dropped; the remaining messages keep their on-screen order.
func BuildSnapshot(frags []Fragment) Snapshot {
	ordered := make([]Fragment, len(frags))
	copy(ordered, frags)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	var msgs []Message
	for _, f := range ordered {
		if f.Role != RoleUser && f.Role != RoleAssistant {
			continue
		}
		text, ok := CleanFragmentText(f.Text)
		if !ok {
			continue
		}
		msgs = append(msgs, Message{Role: f.Role, Content: text})
	}

	return Snapshot{Messages: msgs, Digest: SnapshotDigest(msgs)}
}

// HasRolePair reports whether the messages contain at least one user and
// one assistant entry. Captures missing either side are partial screen
// reads and are not worth merging.
func HasRolePair(msgs []Message) bool {
	var user, assistant bool
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			user = true
		case RoleAssistant:
			assistant = true
		}
		if user && assistant {
			return true
		}
	}
	return false
}
