package store

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Capture records one processed snapshot, merged or not. The log is what
// makes the probe's behavior inspectable: a burst of unmerged captures
// usually means a partial pane read or a stuck digest.
type Capture struct {
	ID            string
	Workbook      string
	Digest        string
	FragmentCount int
	MessageCount  int
	Merged        bool
	CreatedAt     int64
}

// RecordCapture appends a capture log entry and returns its ID.
func (db *DB) RecordCapture(workbook, digest string, fragmentCount, messageCount int, merged bool) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", fmt.Errorf("generate capture id: %w", err)
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO captures (id, workbook, digest, fragment_count, message_count, merged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id.String(), workbook, digest, fragmentCount, messageCount, merged, now)
	if err != nil {
		return "", fmt.Errorf("record capture: %w", err)
	}
	return id.String(), nil
}

// RecentCaptures returns the most recent capture entries for a workbook.
func (db *DB) RecentCaptures(workbook string, limit int) ([]Capture, error) {
	rows, err := db.Query(`
		SELECT id, workbook, digest, fragment_count, message_count, merged, created_at
		FROM captures WHERE workbook = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, workbook, limit)
	if err != nil {
		return nil, fmt.Errorf("recent captures: %w", err)
	}
	defer rows.Close()

	var caps []Capture
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.Workbook, &c.Digest, &c.FragmentCount, &c.MessageCount, &c.Merged, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		caps = append(caps, c)
	}
	return caps, rows.Err()
}

// CaptureCount returns how many captures have been recorded for a workbook.
func (db *DB) CaptureCount(workbook string) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM captures WHERE workbook = ?`, workbook).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count captures: %w", err)
	}
	return count, nil
}
