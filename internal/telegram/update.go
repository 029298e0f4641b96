// Webhook payload normalization.
//
// Telegram update objects are large and loosely shaped; the gateway cares
// about exactly three fields: sender ID, chat ID, and text. Normalize decodes
// the raw body strictly into those fields and rejects anything that does not
// carry them, so downstream code never sees a partially formed record.
package telegram

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// update mirrors the subset of the Telegram Update object the gateway reads.
// Pointer fields distinguish "absent" from "zero" so missing required fields
// fail validation instead of silently becoming 0.
type update struct {
	Message *struct {
		From *struct {
			ID *int64 `json:"id"`
		} `json:"from"`
		Chat *struct {
			ID *int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// Normalize parses a raw webhook body into the canonical message record.
//
// It returns ErrInvalidMessage when the body is not JSON or lacks
// message.from.id or message.chat.id, and ErrMessageTooLong when the text
// exceeds domain.MaxMessageLength runes. In the too-long case the returned
// message still carries the chat ID so the caller can notify the user.
func Normalize(raw []byte) (*domain.Message, error) {
	var u update
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, ErrInvalidMessage
	}
	if u.Message == nil || u.Message.From == nil || u.Message.From.ID == nil ||
		u.Message.Chat == nil || u.Message.Chat.ID == nil {
		return nil, ErrInvalidMessage
	}

	m := &domain.Message{
		ChatID: *u.Message.Chat.ID,
		UserID: *u.Message.From.ID,
		Text:   u.Message.Text,
	}
	if utf8.RuneCountInString(m.Text) > domain.MaxMessageLength {
		return m, ErrMessageTooLong
	}
	return m, nil
}
