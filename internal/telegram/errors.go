// Package telegram implements the chat-platform edge of the gateway: webhook
// origin validation, normalization of inbound webhook payloads, and the Bot
// API client used to send replies and manage the webhook registration.
// This file centralizes the package's sentinel errors so callers can branch
// on failure kind instead of inspecting error text.
package telegram

import "errors"

var (
	// ErrInvalidMessage is returned when the webhook payload is missing a
	// required field (message, from.id, chat.id) or a field has the wrong type.
	ErrInvalidMessage = errors.New("invalid message format")

	// ErrMessageTooLong is returned when the message text exceeds the maximum
	// accepted length. It is distinguished from ErrInvalidMessage so the
	// caller can notify the user before rejecting the request.
	ErrMessageTooLong = errors.New("message too long")

	// ErrSendFailed is returned when the Bot API rejects or fails a
	// sendMessage call. The queue consumer treats it as retryable.
	ErrSendFailed = errors.New("send message failed")

	// ErrWebhookSetup is returned when webhook registration is rejected by
	// the Bot API.
	ErrWebhookSetup = errors.New("webhook setup failed")
)
