package model

import "time"

// EntryKind tags one half of a buffered turn.
type EntryKind string

const (
	UserMessage EntryKind = "user_message"
	BotResponse EntryKind = "bot_response"
)

// BufferEntry is one element of the ephemeral per-session Redis list.
// Entries are appended in strict user/bot pairs; Keywords is only set on
// bot entries and carries the FAQ topics the turn matched, so the
// archival merger does not have to re-run matching at drain time.
type BufferEntry struct {
	Kind     EntryKind `json:"kind"`
	Text     string    `json:"text"`
	Keywords []string  `json:"keywords,omitempty"`
}

// ChatRecord is one completed turn in durable history. A (username,
// date_key) pair is one history bucket; rows within a bucket are ordered
// by insertion and never rewritten.
type ChatRecord struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string    `gorm:"size:100;index:idx_chat_records_bucket;not null" json:"username"`
	DateKey     string    `gorm:"size:10;index:idx_chat_records_bucket;not null" json:"dateKey"`
	UserQuery   string    `gorm:"type:text;not null" json:"user_query"`
	BotResponse string    `gorm:"type:text;not null" json:"bot_response"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (ChatRecord) TableName() string {
	return "chat_records"
}

// KeywordEntry is one member of a per-user per-date keyword set. The
// composite unique index makes the insert an atomic add-if-absent, so
// concurrent archives for one user cannot double-count a keyword.
type KeywordEntry struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"size:100;uniqueIndex:idx_keyword_entries_member;not null" json:"username"`
	DateKey   string    `gorm:"size:10;uniqueIndex:idx_keyword_entries_member;not null" json:"dateKey"`
	Keyword   string    `gorm:"size:100;uniqueIndex:idx_keyword_entries_member;not null" json:"keyword"`
	CreatedAt time.Time `json:"createdAt"`
}

func (KeywordEntry) TableName() string {
	return "keyword_entries"
}

// KeywordStat is one row of the derived global keyword frequency count.
type KeywordStat struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
}
