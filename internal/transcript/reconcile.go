package transcript

import (
	"strings"
	"unicode/utf8"
)

// Merge folds a newly observed message list into the canonical transcript
// and returns the updated sequence. The inputs are never mutated.
//
// Rules:
//   - empty canonical: the first observation becomes canonical as-is
//   - known fingerprint, strictly longer content: replace in place (a later
//     capture completed a message we saw partially before)
//   - known fingerprint, same or shorter: discard silently
//   - no fingerprint match but a short canonical entry is a prefix of the
//     incoming content: same message, still growing; longer-wins applies
//   - otherwise: append
//
// Existing entries are never reordered and never dropped, so the result is
// append-only except for in-place longer-wins replacement. Order reflects
// admission order, not conversation chronology: a late-arriving but
// logically earlier message lands at the end. Known quirk, kept as-is.
func Merge(canonical, incoming []Message) []Message {
	if len(canonical) == 0 {
		return incoming
	}

	merged := make([]Message, len(canonical))
	copy(merged, canonical)

	index := make(map[string]int, len(merged))
	for i, m := range merged {
		index[Fingerprint(m.Content)] = i
	}

	for _, m := range incoming {
		fp := Fingerprint(m.Content)
		at, known := index[fp]
		if !known {
			// A message still shorter than the fingerprint bound changes
			// its fingerprint as it grows, so prefix growth of short
			// entries is matched directly.
			at, known = prefixGrowthMatch(merged, m)
		}
		if !known {
			index[fp] = len(merged)
			merged = append(merged, m)
			continue
		}
		if len(m.Content) > len(merged[at].Content) {
			merged[at].Content = m.Content
			index[fp] = at
		}
	}

	return merged
}

// prefixGrowthMatch finds a canonical entry that is an earlier, shorter
// capture of m: same role, content below the fingerprint bound, and a
// case-insensitive prefix of m's content.
func prefixGrowthMatch(msgs []Message, m Message) (int, bool) {
	needle := strings.ToLower(m.Content)
	for i, c := range msgs {
		if c.Role != m.Role {
			continue
		}
		if len(c.Content) >= len(m.Content) {
			continue
		}
		if utf8.RuneCountInString(c.Content) >= fingerprintPrefixLen {
			continue
		}
		if strings.HasPrefix(needle, strings.ToLower(c.Content)) {
			return i, true
		}
	}
	return 0, false
}

// Reconciler carries the per-conversation gatekeeping state: the digest of
// the last accepted snapshot and whether capture is currently enabled.
// One Reconciler serves one conversation identity (workbook); it holds no
// transcript state of its own, so feeding it stale or duplicate snapshots
// is always safe.
type Reconciler struct {
	lastDigest string
	enabled    bool
}

// NewReconciler returns a Reconciler with capture enabled and no snapshot
// history. Pass the stored digest to resume change detection across
// restarts; empty means accept the first snapshot seen.
func NewReconciler(lastDigest string) *Reconciler {
	return &Reconciler{lastDigest: lastDigest, enabled: true}
}

// Reconcile normalizes the raw fragments into a snapshot, applies the
// gatekeeping checks, and merges accepted snapshots into existing.
//
// It returns (existing, digest, false) — "no update", not an error — when
// capture is disabled, when the snapshot digest matches the last accepted
// one, or when the snapshot lacks a user/assistant pair. Otherwise it
// returns the merged transcript and true, and remembers the digest. The
// returned digest is always the snapshot's own, accepted or not, so
// callers can log what a rejected capture actually looked like.
func (r *Reconciler) Reconcile(existing []Message, frags []Fragment) ([]Message, string, bool) {
	snap := BuildSnapshot(frags)

	if !r.enabled {
		return existing, snap.Digest, false
	}
	if snap.Digest == r.lastDigest {
		return existing, snap.Digest, false
	}
	if !HasRolePair(snap.Messages) {
		return existing, snap.Digest, false
	}

	r.lastDigest = snap.Digest
	return Merge(existing, snap.Messages), snap.Digest, true
}

// Reset forgets the last accepted digest so the next snapshot is evaluated
// fresh. Used when the stored conversation is deleted out from under us.
func (r *Reconciler) Reset() {
	r.lastDigest = ""
}

// SetEnabled toggles snapshot acceptance.
func (r *Reconciler) SetEnabled(enabled bool) {
	r.enabled = enabled
}

// Enabled reports whether capture is active.
func (r *Reconciler) Enabled() bool {
	return r.enabled
}

// LastDigest returns the digest of the most recently accepted snapshot.
func (r *Reconciler) LastDigest() string {
	return r.lastDigest
}
