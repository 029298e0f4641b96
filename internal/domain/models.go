// Package domain defines the canonical message record exchanged between the
// webhook ingress and the queue consumer, plus the persistence model used for
// best-effort reply deduplication. The message types are plain JSON structs
// (they travel through the queue); the dedupe type is mapped with GORM.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// MaxMessageLength is the maximum accepted message length in runes. It matches
// the Telegram transport limit for a single sendMessage call, so the same
// constant bounds both admission at the webhook and truncation on reply.
const MaxMessageLength = 4096

// Message is the normalized inbound chat message. It is created once by the
// webhook ingress, serialized into the queue envelope, and never mutated.
//
// Fields:
//   - ChatID: Telegram chat the reply must go back to.
//   - UserID: Telegram identity of the sender; also keys the agent session.
//   - Text: the user's prompt, at most MaxMessageLength runes.
type Message struct {
	ChatID int64  `json:"chat_id"`
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// Envelope is the durable unit of work published to the queue. The wire format
// is {"message": {...}} so the payload stays extensible without breaking
// consumers that are mid-deploy.
type Envelope struct {
	Message Message `json:"message"`
}

// ProcessedRecord marks a queue record whose reply has already been sent.
// The queue guarantees at-least-once delivery, so a record can come back after
// its reply went out; this row lets the dispatcher acknowledge the redelivery
// without sending a duplicate. It is an optimization only — correctness never
// depends on it.
//
// Fields:
//   - RecordID: the queue's message ID (stable across redeliveries).
//   - ChatID: chat the reply was sent to, kept for diagnosis.
//   - CreatedAt: when the reply was first sent.
type ProcessedRecord struct {
	RecordID  string         `json:"record_id" gorm:"type:varchar(128);primaryKey"`
	ChatID    int64          `json:"chat_id"   gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-"         gorm:"index"`
}

// TableName returns the database table name for ProcessedRecord.
func (ProcessedRecord) TableName() string { return "processed_records" }
