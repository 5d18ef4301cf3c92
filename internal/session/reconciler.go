package session

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/askjimmy/go-client/internal/api"
	"github.com/askjimmy/go-client/internal/game"
)

// SnapshotFetcher is the read-only slice of the lobby service the reconciler
// needs. *api.Client satisfies it.
type SnapshotFetcher interface {
	GetLobbyInfo(ctx context.Context, pin, userID string) (*api.LobbyInfoResponse, error)
}

type restoreState int

const (
	restoreIdle restoreState = iota
	restoreRestoring
)

// Reconciler restores a session from the persisted record: it validates and
// expires the record, fetches the authoritative snapshot, rebuilds the
// in-memory state, and navigates to the page implied by (role, status).
type Reconciler struct {
	store   *game.Store
	records *Storage
	fetcher SnapshotFetcher
	nav     game.Navigator
	clock   clockwork.Clock
	log     *zap.Logger

	mu    sync.Mutex
	state restoreState
}

func NewReconciler(store *game.Store, records *Storage, fetcher SnapshotFetcher, nav game.Navigator, clock clockwork.Clock, log *zap.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		records: records,
		fetcher: fetcher,
		nav:     nav,
		clock:   clock,
		log:     log,
	}
}

// begin moves Idle -> Restoring. A request arriving while a restoration is
// already in flight is dropped.
func (r *Reconciler) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == restoreRestoring {
		return false
	}
	r.state = restoreRestoring
	return true
}

func (r *Reconciler) finish() {
	r.mu.Lock()
	r.state = restoreIdle
	r.mu.Unlock()
}

// Restore runs the session-restore decision once for the given current page.
// Every failure path recovers locally: at worst the record is deleted and the
// user lands back on the entry page.
func (r *Reconciler) Restore(ctx context.Context, current game.Page) {
	if r.store.SessionActive() {
		return
	}
	if !r.begin() {
		r.log.Debug("restore already in flight, dropping request")
		return
	}
	defer r.finish()

	rec, err := r.records.LoadRecord()
	if err != nil {
		r.log.Warn("reading persisted session failed", zap.Error(err))
		r.toEntry(current)
		return
	}
	if rec == nil {
		r.toEntry(current)
		return
	}

	if err := rec.Validate(); err != nil {
		r.log.Warn("discarding malformed session record", zap.Error(err))
		r.discard(current)
		return
	}
	if rec.Expired(r.clock.Now()) {
		r.log.Info("discarding expired session record",
			zap.String("lobby", rec.LobbyCode),
			zap.Time("saved_at", rec.SavedAt))
		r.discard(current)
		return
	}

	info, err := r.fetcher.GetLobbyInfo(ctx, rec.LobbyCode, rec.UserID)
	if err != nil {
		r.log.Warn("session restore fetch failed, clearing record",
			zap.String("lobby", rec.LobbyCode), zap.Error(err))
		r.discard(current)
		return
	}

	user := &game.User{ID: rec.UserID, Name: rec.UserName, Role: rec.Role}
	lobby := info.Lobby()

	r.store.SetCurrentUser(user)
	r.store.SetCurrentLobby(lobby)

	target := game.TargetPage(user.Role, lobby.Status)
	r.log.Info("session restored",
		zap.String("lobby", lobby.Code),
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("page", string(target)))
	if current != target {
		r.nav.NavigateTo(target)
	}
}

// discard deletes the record and falls back to the entry page.
func (r *Reconciler) discard(current game.Page) {
	if err := r.records.ClearRecord(); err != nil {
		r.log.Warn("clearing session record failed", zap.Error(err))
	}
	r.toEntry(current)
}

func (r *Reconciler) toEntry(current game.Page) {
	if current != game.PageEntry {
		r.nav.NavigateTo(game.PageEntry)
	}
}
