package transcript

import (
	"strconv"
	"strings"
)

// fingerprintPrefixLen bounds how much of a message participates in its
// fingerprint. Partial captures of the same message share a prefix, so a
// bounded prefix is what lets re-captures converge.
const fingerprintPrefixLen = 100

// Fingerprint computes the approximate-identity digest of a message.
//
// It hashes the lower-cased, trimmed first 100 characters of the content
// with a 31-multiplier rolling hash wrapped to 32 bits. This is lossy on
// purpose: two messages with the same fingerprint are treated as the same
// logical message observed at different capture completeness. It is not a
// uniqueness or integrity guarantee — unrelated messages sharing a 100-char
// prefix (or colliding outright) will silently merge, a trade accepted for
// speed. Do not replace it with strict content equality: that breaks
// convergence when an earlier partial capture differs from the full one.
func Fingerprint(content string) string {
	runes := []rune(content)
	if len(runes) > fingerprintPrefixLen {
		runes = runes[:fingerprintPrefixLen]
	}
	prefix := strings.TrimSpace(strings.ToLower(string(runes)))
	return strconv.FormatUint(uint64(rollingHash(0, prefix)), 16)
}

// SnapshotDigest fingerprints a whole capture. Unlike Fingerprint it hashes
// every message in full — the digest must change whenever any tail of the
// conversation grows, or identical-capture short-circuiting would wrongly
// suppress real updates.
func SnapshotDigest(msgs []Message) string {
	var h uint32
	for _, m := range msgs {
		h = rollingHash(h, m.Role)
		h = rollingHash(h, "\x00")
		h = rollingHash(h, m.Content)
		h = rollingHash(h, "\x00")
	}
	return strconv.FormatUint(uint64(h), 16)
}

func rollingHash(h uint32, s string) uint32 {
	for _, r := range s {
		h = h*31 + uint32(r)
	}
	return h
}
