package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Sharad077/ClaudeForExcelMemory/internal/transcript"
)

// Conversation is one canonical transcript keyed by workbook name.
type Conversation struct {
	ID           int64
	Workbook     string
	Messages     []transcript.Message
	LastDigest   string
	MessageCount int
	CreatedAt    int64
	UpdatedAt    int64
}

// GetConversation returns the conversation for a workbook, or nil if none
// exists yet. Unparsable stored messages decode to an empty transcript
// (fail-open) so one corrupt row never wedges capture for its workbook.
func (db *DB) GetConversation(workbook string) (*Conversation, error) {
	var c Conversation
	var raw []byte
	err := db.QueryRow(`
		SELECT id, workbook, messages, last_digest, message_count, created_at, updated_at
		FROM conversations WHERE workbook = ?
	`, workbook).Scan(&c.ID, &c.Workbook, &raw, &c.LastDigest, &c.MessageCount, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}

	c.Messages = transcript.DecodeMessages(raw)
	return &c, nil
}

// SaveConversation upserts the canonical transcript for a workbook.
func (db *DB) SaveConversation(workbook string, msgs []transcript.Message, digest string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO conversations (workbook, messages, last_digest, message_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(workbook) DO UPDATE SET
			messages      = excluded.messages,
			last_digest   = excluded.last_digest,
			message_count = excluded.message_count,
			updated_at    = excluded.updated_at
	`, workbook, transcript.EncodeMessages(msgs), digest, len(msgs), now, now)
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// ListConversations returns all conversations without their message
// bodies, most recently updated first.
func (db *DB) ListConversations() ([]Conversation, error) {
	rows, err := db.Query(`
		SELECT id, workbook, last_digest, message_count, created_at, updated_at
		FROM conversations ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Workbook, &c.LastDigest, &c.MessageCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// DeleteConversation removes a workbook's transcript and its capture log.
// Deleting an unknown workbook is a no-op.
func (db *DB) DeleteConversation(workbook string) error {
	if _, err := db.Exec(`DELETE FROM conversations WHERE workbook = ?`, workbook); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM captures WHERE workbook = ?`, workbook); err != nil {
		return fmt.Errorf("delete captures: %w", err)
	}
	return nil
}

// SearchConversations returns the workbooks whose stored transcript text
// contains the query, case-insensitively.
func (db *DB) SearchConversations(query string) ([]Conversation, error) {
	rows, err := db.Query(`
		SELECT id, workbook, last_digest, message_count, created_at, updated_at
		FROM conversations
		WHERE messages LIKE '%' || ? || '%' OR workbook LIKE '%' || ? || '%'
		ORDER BY updated_at DESC
	`, query, query)
	if err != nil {
		return nil, fmt.Errorf("search conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Workbook, &c.LastDigest, &c.MessageCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}
