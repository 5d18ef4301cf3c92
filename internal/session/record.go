package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/askjimmy/go-client/internal/game"
)

// RecordTTL is how long a persisted session stays restorable.
const RecordTTL = 24 * time.Hour

var ErrInvalidRecord = errors.New("invalid session record")

// Record is the persisted session: enough to rejoin a lobby after the client
// restarts. Written on create/join, deleted on expiry, leave, or when the
// server no longer knows the lobby.
type Record struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Role      game.Role `json:"role"`
	LobbyCode string    `json:"lobby_code"`
	SavedAt   time.Time `json:"saved_at"`
}

// Validate checks structural integrity. A record missing its user id, lobby
// code, or role cannot be restored.
func (r *Record) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidRecord)
	}
	if r.LobbyCode == "" {
		return fmt.Errorf("%w: missing lobby code", ErrInvalidRecord)
	}
	if !r.Role.Valid() {
		return fmt.Errorf("%w: bad role %q", ErrInvalidRecord, r.Role)
	}
	return nil
}

func (r *Record) Expired(now time.Time) bool {
	return now.Sub(r.SavedAt) > RecordTTL
}
