package poll

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/askjimmy/go-client/internal/api"
	"github.com/askjimmy/go-client/internal/game"
)

const (
	// GameInterval paces polling on the host and participant game pages.
	GameInterval = 3 * time.Second
	// PreGameInterval paces polling on the setup and waiting-room pages,
	// where join/start transitions should show up quickly.
	PreGameInterval = 2 * time.Second
)

// IntervalFor picks the polling cadence for a page.
func IntervalFor(p game.Page) time.Duration {
	switch p {
	case game.PageHostGame, game.PageParticipantGame:
		return GameInterval
	default:
		return PreGameInterval
	}
}

// SnapshotFetcher is the slice of the lobby service the poller consumes.
type SnapshotFetcher interface {
	GetLobbyInfo(ctx context.Context, pin, userID string) (*api.LobbyInfoResponse, error)
}

// RecordClearer removes the persisted session record when the server reports
// the lobby gone.
type RecordClearer interface {
	ClearRecord() error
}

// Poller keeps the in-memory lobby consistent with the server. Each tick
// fetches the snapshot, diffs it against the store, and applies one merged
// patch; ticks that find nothing new write nothing.
type Poller struct {
	store    *game.Store
	records  RecordClearer
	fetcher  SnapshotFetcher
	nav      game.Navigator
	clock    clockwork.Clock
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	running bool
}

func New(store *game.Store, records RecordClearer, fetcher SnapshotFetcher, nav game.Navigator, clock clockwork.Clock, interval time.Duration, log *zap.Logger) *Poller {
	return &Poller{
		store:    store,
		records:  records,
		fetcher:  fetcher,
		nav:      nav,
		clock:    clock,
		interval: interval,
		log:      log,
	}
}

// Run polls until the context is cancelled or the active-session
// precondition (user and lobby present) stops holding. Starting a second Run
// while one is active is a no-op. No tick runs after cancellation.
func (p *Poller) Run(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	// first tick immediately, like the reference page loads
	if !p.tick(ctx) {
		return
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !p.tick(ctx) {
				return
			}
		}
	}
}

// tick runs one poll cycle. Reports whether polling should continue. State
// is read from the store at invocation time, never captured at timer setup.
func (p *Poller) tick(ctx context.Context) bool {
	user := p.store.CurrentUser()
	lobby := p.store.CurrentLobby()
	if user == nil || lobby == nil {
		return false
	}

	info, err := p.fetcher.GetLobbyInfo(ctx, lobby.Code, user.ID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			p.log.Info("lobby gone, clearing session", zap.String("lobby", lobby.Code))
			if cerr := p.records.ClearRecord(); cerr != nil {
				p.log.Warn("clearing session record failed", zap.Error(cerr))
			}
			p.store.Clear()
			p.nav.NavigateTo(game.PageEntry)
			return false
		}
		if ctx.Err() != nil {
			return false
		}
		// next scheduled tick is the retry
		p.log.Warn("poll failed", zap.String("lobby", lobby.Code), zap.Error(err))
		return true
	}

	patch := diff(lobby, info)

	if patch.Status != nil && lobby.Status == game.StatusWaiting && *patch.Status == game.StatusPlaying {
		target := game.TargetPage(user.Role, game.StatusPlaying)
		p.log.Info("game started", zap.String("lobby", lobby.Code), zap.String("page", string(target)))
		p.nav.NavigateTo(target)
	}

	if !patch.IsZero() {
		p.store.UpdateLobby(patch)
	}
	return true
}

// diff computes the minimal patch that brings the stored lobby in line with
// the snapshot. Unchanged fields stay nil so an identical poll is a no-op.
func diff(prev *game.Lobby, info *api.LobbyInfoResponse) game.LobbyPatch {
	var patch game.LobbyPatch

	users := info.Users()
	if keepPreviousUsers(prev.Users, users) {
		// transient/incomplete response, not real departures
		users = prev.Users
	}
	if !slices.Equal(prev.Users, users) {
		patch.Users = users
	}

	// A locally finished game stays finished; the server only knows
	// waiting/playing.
	if status := info.Status(); status != prev.Status && prev.Status != game.StatusFinished {
		patch.Status = &status
	}

	if info.StartTime != nil && (prev.StartTime == nil || !prev.StartTime.Equal(*info.StartTime)) {
		t := *info.StartTime
		patch.StartTime = &t
	}

	if info.SecretConcept != "" && info.SecretConcept != prev.Concept {
		v := info.SecretConcept
		patch.Concept = &v
	}
	if info.Context != "" && info.Context != prev.Context {
		v := info.Context
		patch.Context = &v
	}
	if info.Topic != "" && info.Topic != prev.Topic {
		v := info.Topic
		patch.Topic = &v
	}
	if info.TimeLimitSec != 0 && info.TimeLimitSec != prev.TimeLimitSec {
		v := info.TimeLimitSec
		patch.TimeLimitSec = &v
	}

	if incoming := info.GameQuestions(); incoming != nil {
		merged := mergeQuestions(prev.Questions, incoming)
		if !slices.Equal(prev.Questions, merged) {
			patch.Questions = merged
		}
	}

	return patch
}

// keepPreviousUsers is the anti-flicker rule: a list that would collapse
// from several members to just one is treated as an incomplete server
// response and discarded.
func keepPreviousUsers(prev, next []game.User) bool {
	return len(prev) > 1 && len(next) == 1
}

// mergeQuestions merges the host-visible log by question id: existing order
// is kept, genuinely new questions are appended, and answers that changed on
// existing entries are overwritten (answers may arrive a poll later than the
// question itself).
func mergeQuestions(existing, incoming []game.Question) []game.Question {
	merged := append([]game.Question(nil), existing...)
	index := make(map[string]int, len(merged))
	for i, q := range merged {
		index[q.ID] = i
	}
	for _, q := range incoming {
		i, ok := index[q.ID]
		if !ok {
			index[q.ID] = len(merged)
			merged = append(merged, q)
			continue
		}
		if merged[i].Answer != q.Answer {
			merged[i].Answer = q.Answer
		}
	}
	return merged
}
