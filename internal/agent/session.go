// Session resolution.
//
// A conversation session is keyed by the sender's identity so that a user's
// successive prompts land in the same backend conversation. The mapping is
// pure and deterministic; nothing is persisted and the same user always
// resolves to the same session.
package agent

import (
	"errors"
	"strconv"
)

// ErrInvalidUser is returned when the user identity cannot key a session.
var ErrInvalidUser = errors.New("invalid user id")

// ResolveSession derives the stable session key for a user. Telegram user IDs
// are positive integers; zero means the field was never populated and
// negative values are chat IDs, not users, so both are rejected.
func ResolveSession(userID int64) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidUser
	}
	return strconv.FormatInt(userID, 10), nil
}
