// Package users exposes the user-directory capability of the core platform
// API. Callers depend on the Directory interface only; the wire format and
// request signing live in the adapter.
package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("users: not found")

// ErrUnavailable wraps transport or server failures of the directory API.
var ErrUnavailable = errors.New("users: directory unavailable")

// User is a directory entry linking a chat-platform identity to a platform
// account.
type User struct {
	ID         string `json:"id"`
	TelegramID int64  `json:"telegram_id"`
	Name       string `json:"name"`
}

// Directory is the capability surface the gateway needs from the user
// backend.
type Directory interface {
	CreateUser(ctx context.Context, telegramID int64, name string) (*User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	DeleteUser(ctx context.Context, id string) error
}
