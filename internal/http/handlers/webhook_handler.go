// Webhook HTTP handler.
//
// This file exposes the single ingress endpoint for chat-platform webhook
// deliveries:
//   - POST /webhook   (validate origin, normalize payload, enqueue)
//
// The handler is transport-thin:
//   - check the delivery's network origin against the platform's allow-list
//   - decode and validate the payload into a canonical message
//   - publish the message to the durable queue and return immediately
//
// Response bodies on this route follow the delivery contract the platform
// retries against, not the generic ErrorResponse envelope:
//   - 200 {"status": "queued"}
//   - 400 {"error": "Message too long"} / {"error": "Invalid message format"}
//   - 403 {"error": "Forbidden"}
//   - 500 {"error": "Internal server error"}
//
// The 200 is returned as soon as the queue confirms durable acceptance;
// webhook latency never includes agent processing.
package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-telegram-gateway/internal/domain"
	"github.com/tbourn/go-telegram-gateway/internal/http/middleware"
	"github.com/tbourn/go-telegram-gateway/internal/telegram"
)

// tooLongNotice is sent to the chat, best effort, when an inbound message
// exceeds the length limit. The sender gets direct feedback instead of
// silence, since the message is never enqueued.
const tooLongNotice = "Error: your message is too long."

// Enqueuer publishes a normalized message to the durable queue.
type Enqueuer interface {
	Publish(ctx context.Context, msg domain.Message) error
}

// Notifier sends a short synchronous note back to a chat. Used only for the
// too-long rejection; the asynchronous reply path lives in the worker.
type Notifier interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

// Handlers bundles the webhook endpoint's dependencies.
type Handlers struct {
	enqueuer   Enqueuer
	notifier   Notifier // may be nil; too-long notices are then skipped
	origin     *telegram.OriginPolicy
	trustProxy bool
}

// Option customizes Handlers.
type Option func(*Handlers)

// WithTrustedProxyChain controls whether the client origin is read from
// X-Forwarded-For / X-Forwarded-Port (true, the default behind a load
// balancer) or from the socket's remote address (false, direct exposure).
func WithTrustedProxyChain(trust bool) Option {
	return func(h *Handlers) { h.trustProxy = trust }
}

// New constructs the webhook Handlers.
func New(enqueuer Enqueuer, notifier Notifier, origin *telegram.OriginPolicy, opts ...Option) *Handlers {
	h := &Handlers{
		enqueuer:   enqueuer,
		notifier:   notifier,
		origin:     origin,
		trustProxy: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Webhook handles POST /webhook.
//
// Pipeline: origin check → payload normalization → enqueue. Each stage maps
// its failure to the platform-facing status above; only a queue failure is a
// 500, which makes the platform redeliver the whole webhook per its policy.
func (h *Handlers) Webhook(c *gin.Context) {
	ctx := c.Request.Context()
	lg := middleware.LoggerFrom(c)

	addr, port := h.clientOrigin(c)
	if !h.origin.IsTrustedOrigin(addr, port) {
		lg.Warn().Str("addr", addr).Str("port", port).Msg("webhook from untrusted origin")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid message format"})
		return
	}

	msg, err := telegram.Normalize(raw)
	switch {
	case err == nil:
	case errors.Is(err, telegram.ErrMessageTooLong) && msg != nil:
		lg.Warn().Int64("chat_id", msg.ChatID).Msg("message too long")
		if h.notifier != nil {
			// Best effort: the sender hears about the rejection even though
			// nothing is enqueued.
			if nerr := h.notifier.Reply(ctx, msg.ChatID, tooLongNotice); nerr != nil {
				lg.Warn().Err(nerr).Msg("too-long notice failed")
			}
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Message too long"})
		return
	default:
		lg.Warn().Err(err).Msg("invalid webhook payload")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid message format"})
		return
	}

	if err := h.enqueuer.Publish(ctx, *msg); err != nil {
		lg.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("enqueue failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	lg.Info().Int64("chat_id", msg.ChatID).Msg("message queued")
	ok(c, http.StatusOK, gin.H{"status": "queued"})
}

// clientOrigin resolves the delivery's source address and port. Behind a
// proxy chain the forwarded headers are authoritative; otherwise the socket
// address is. Empty returns fail the origin check downstream.
func (h *Handlers) clientOrigin(c *gin.Context) (addr, port string) {
	if h.trustProxy {
		fwd := c.GetHeader("X-Forwarded-For")
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		addr = strings.TrimSpace(fwd)
		port = strings.TrimSpace(c.GetHeader("X-Forwarded-Port"))
		return addr, port
	}
	host, p, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return "", ""
	}
	return host, p
}
