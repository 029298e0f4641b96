// Bot API client.
//
// The client wraps telego for the two calls the gateway makes against the Bot
// API: sendMessage (the reply path) and setWebhook/deleteWebhook (one-time
// provisioning). Replies are truncated to the transport limit and an empty
// answer is replaced with a fixed fallback, so a send never fails for being
// too long or too empty. A failed send surfaces ErrSendFailed; the consumer
// reports the record failed and the queue redelivers it, which means the same
// reply may be sent twice — that duplicate is accepted over dropping the
// user's message.
package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
)

// FallbackReply is sent when the agent produced no answer for a prompt.
const FallbackReply = "Sorry, I don't have an answer for that right now."

// sendTimeout bounds one Bot API call so a stalled send cannot eat the
// record's whole processing budget.
const sendTimeout = 10 * time.Second

// Client is a thin Bot API client bound to one bot token.
type Client struct {
	bot *telego.Bot
}

// ClientOption customizes the client at construction.
type ClientOption func(*clientOptions)

type clientOptions struct {
	apiBase string
}

// WithAPIBase points the client at a non-default Bot API server. Used for the
// regional api.telegram.org mirrors and for tests.
func WithAPIBase(base string) ClientOption {
	return func(o *clientOptions) { o.apiBase = base }
}

// NewClient builds a Bot API client for the given token.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	var botOpts []telego.BotOption
	if o.apiBase != "" {
		botOpts = append(botOpts, telego.WithAPIServer(o.apiBase))
	}
	bot, err := telego.NewBot(token, botOpts...)
	if err != nil {
		return nil, fmt.Errorf("create bot client: %w", err)
	}
	return &Client{bot: bot}, nil
}

// Reply sends text to the chat, substituting FallbackReply for an empty text
// and truncating to MaxMessageLength runes. Truncation is silent by design;
// a long answer is better delivered clipped than not at all.
//
// Reply is safe to call twice with the same arguments: each call is an
// independent send with no client-side state, so a queue redelivery simply
// results in a second identical message.
func (c *Client) Reply(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		text = FallbackReply
	}
	text = truncateRunes(text, domain.MaxMessageLength)

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := c.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("%w: chat %d: %v", ErrSendFailed, chatID, err)
	}
	return nil
}

// RegisterWebhook points the bot's webhook at url, restricted to message
// updates. Telegram replaces any previous registration, so the call is
// idempotent from the platform's point of view.
func (c *Client) RegisterWebhook(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	err := c.bot.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            url,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSetup, err)
	}
	return nil
}

// UnregisterWebhook removes the bot's webhook registration.
func (c *Client) UnregisterWebhook(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := c.bot.DeleteWebhook(ctx, &telego.DeleteWebhookParams{}); err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSetup, err)
	}
	return nil
}

// truncateRunes clips s to at most max runes.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
