package telegram

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

func TestNormalize_Valid(t *testing.T) {
	raw := []byte(`{"update_id":12,"message":{"message_id":7,"from":{"id":42,"is_bot":false},"chat":{"id":555,"type":"private"},"text":"hello"}}`)

	m, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if m.ChatID != 555 || m.UserID != 42 || m.Text != "hello" {
		t.Fatalf("got %+v; want chat=555 user=42 text=hello", m)
	}
}

func TestNormalize_MissingFields(t *testing.T) {
	cases := map[string]string{
		"empty body":       ``,
		"not json":         `{"message":`,
		"no message":       `{"update_id":1}`,
		"no from":          `{"message":{"chat":{"id":1},"text":"x"}}`,
		"no from id":       `{"message":{"from":{},"chat":{"id":1},"text":"x"}}`,
		"no chat":          `{"message":{"from":{"id":1},"text":"x"}}`,
		"no chat id":       `{"message":{"from":{"id":1},"chat":{},"text":"x"}}`,
		"from id not int":  `{"message":{"from":{"id":"abc"},"chat":{"id":1},"text":"x"}}`,
		"chat id not int":  `{"message":{"from":{"id":1},"chat":{"id":true},"text":"x"}}`,
		"message not obj":  `{"message":"hi"}`,
	}
	for name, raw := range cases {
		if _, err := Normalize([]byte(raw)); !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("%s: err = %v; want ErrInvalidMessage", name, err)
		}
	}
}

func TestNormalize_MissingTextIsEmpty(t *testing.T) {
	// Non-text updates (stickers, photos) carry no text field; they normalize
	// to an empty prompt rather than failing.
	m, err := Normalize([]byte(`{"message":{"from":{"id":1},"chat":{"id":2}}}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if m.Text != "" {
		t.Fatalf("Text = %q; want empty", m.Text)
	}
}

func TestNormalize_LengthBoundary(t *testing.T) {
	body := func(text string) []byte {
		return []byte(fmt.Sprintf(`{"message":{"from":{"id":1},"chat":{"id":2},"text":%q}}`, text))
	}

	// Exactly at the limit passes.
	if _, err := Normalize(body(strings.Repeat("a", domain.MaxMessageLength))); err != nil {
		t.Fatalf("len=%d: %v", domain.MaxMessageLength, err)
	}

	// One over fails with the distinguished too-long error and still carries
	// the chat ID for the courtesy notification.
	m, err := Normalize(body(strings.Repeat("a", domain.MaxMessageLength+1)))
	if !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("err = %v; want ErrMessageTooLong", err)
	}
	if m == nil || m.ChatID != 2 {
		t.Fatalf("too-long message should keep chat id, got %+v", m)
	}
}

func TestNormalize_LengthCountsRunesNotBytes(t *testing.T) {
	// 4096 multi-byte runes is within the limit even though it is >4096 bytes.
	text := strings.Repeat("é", domain.MaxMessageLength)
	raw := []byte(fmt.Sprintf(`{"message":{"from":{"id":1},"chat":{"id":2},"text":%q}}`, text))
	if _, err := Normalize(raw); err != nil {
		t.Fatalf("multi-byte at limit: %v", err)
	}
}
