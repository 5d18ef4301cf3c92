// Package app wires the client core together and exposes the user-facing
// actions: create, join, start, ask, guess, leave.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/askjimmy/go-client/internal/api"
	"github.com/askjimmy/go-client/internal/game"
	"github.com/askjimmy/go-client/internal/poll"
	"github.com/askjimmy/go-client/internal/session"
)

var (
	ErrNoSession    = errors.New("no active session")
	ErrNotHost      = errors.New("only the host can do this")
	ErrNotGuessing  = errors.New("the game has not started")
	ErrHostCantPlay = errors.New("the host does not ask questions")
)

type App struct {
	client  *api.Client
	store   *game.Store
	records *session.Storage
	recon   *session.Reconciler
	nav     game.Navigator
	clock   clockwork.Clock
	log     *zap.Logger
}

func New(client *api.Client, store *game.Store, records *session.Storage, nav game.Navigator, clock clockwork.Clock, log *zap.Logger) *App {
	return &App{
		client:  client,
		store:   store,
		records: records,
		recon:   session.NewReconciler(store, records, client, nav, clock, log),
		nav:     nav,
		clock:   clock,
		log:     log,
	}
}

// Restore runs session restoration for the current page.
func (a *App) Restore(ctx context.Context, current game.Page) {
	a.recon.Restore(ctx, current)
}

// NewPoller builds a poller for the given page's cadence.
func (a *App) NewPoller(page game.Page) *poll.Poller {
	return poll.New(a.store, a.records, a.client, a.nav, a.clock, poll.IntervalFor(page), a.log)
}

func (a *App) Store() *game.Store { return a.store }

// CreateLobby creates a lobby, persists the host session, and moves to the
// setup page.
func (a *App) CreateLobby(ctx context.Context, hostName, concept, gameContext, topic string, timeLimitSec int) (*game.Lobby, error) {
	resp, err := a.client.CreateLobby(ctx, api.CreateLobbyRequest{
		HostName:      hostName,
		SecretConcept: concept,
		Context:       gameContext,
		Topic:         topic,
		TimeLimitSec:  timeLimitSec,
	})
	if err != nil {
		return nil, fmt.Errorf("create lobby: %w", err)
	}

	user := &game.User{ID: resp.HostID, Name: resp.HostName, Role: game.RoleHost}
	lobby := &game.Lobby{
		Code:         resp.Pin,
		OwnerID:      resp.HostID,
		Users:        []game.User{*user},
		Status:       game.StatusWaiting,
		MaxQuestions: game.DefaultMaxQuestions,
		Concept:      concept,
		Context:      gameContext,
		Topic:        topic,
		TimeLimitSec: timeLimitSec,
	}

	a.persist(user, lobby.Code)
	a.store.SetCurrentUser(user)
	a.store.SetCurrentLobby(lobby)
	a.nav.NavigateTo(game.PageHostSetup)

	a.log.Info("lobby created", zap.String("lobby", lobby.Code), zap.String("host_id", user.ID))
	return lobby, nil
}

// JoinLobby joins as a participant, persists the session, and moves to the
// waiting room.
func (a *App) JoinLobby(ctx context.Context, pin, name string) (*game.Lobby, error) {
	resp, err := a.client.JoinLobby(ctx, api.JoinLobbyRequest{Pin: pin, ParticipantName: name})
	if err != nil {
		return nil, fmt.Errorf("join lobby: %w", err)
	}

	user := &game.User{ID: resp.UserID, Name: resp.ParticipantName, Role: game.RoleParticipant}
	users := []game.User{{ID: resp.HostID, Name: resp.HostName, Role: game.RoleHost}}
	for _, p := range resp.Participants {
		users = append(users, game.User{ID: p.UserID, Name: p.Name, Role: game.RoleParticipant})
	}
	lobby := &game.Lobby{
		Code:         resp.Pin,
		OwnerID:      resp.HostID,
		Users:        users,
		Status:       game.StatusWaiting,
		MaxQuestions: game.DefaultMaxQuestions,
	}

	a.persist(user, lobby.Code)
	a.store.SetCurrentUser(user)
	a.store.SetCurrentLobby(lobby)
	a.nav.NavigateTo(game.PageWaitingRoom)

	a.log.Info("joined lobby", zap.String("lobby", lobby.Code), zap.String("user_id", user.ID))
	return lobby, nil
}

// StartGame starts the lobby. Empty fields keep what was set at creation.
func (a *App) StartGame(ctx context.Context, concept, gameContext, topic string, timeLimitSec int) error {
	user := a.store.CurrentUser()
	lobby := a.store.CurrentLobby()
	if user == nil || lobby == nil {
		return ErrNoSession
	}
	if user.Role != game.RoleHost {
		return ErrNotHost
	}

	resp, err := a.client.StartLobby(ctx, api.StartLobbyRequest{
		Pin:           lobby.Code,
		HostID:        user.ID,
		SecretConcept: concept,
		Context:       gameContext,
		Topic:         topic,
		TimeLimitSec:  timeLimitSec,
		StartTime:     a.clock.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("start lobby: %w", err)
	}

	playing := game.StatusPlaying
	start := resp.StartTime
	patch := game.LobbyPatch{Status: &playing, StartTime: &start}
	if concept != "" {
		patch.Concept = &concept
	}
	if gameContext != "" {
		patch.Context = &gameContext
	}
	if topic != "" {
		patch.Topic = &topic
	}
	if timeLimitSec != 0 {
		patch.TimeLimitSec = &timeLimitSec
	}
	a.store.UpdateLobby(patch)
	a.nav.NavigateTo(game.PageHostGame)

	a.log.Info("game started", zap.String("lobby", lobby.Code), zap.Time("start_time", resp.StartTime))
	return nil
}

// AskQuestion submits a yes/no question to the oracle and records the
// answered entry in the local log.
func (a *App) AskQuestion(ctx context.Context, text string) (*game.Question, int, error) {
	user := a.store.CurrentUser()
	lobby := a.store.CurrentLobby()
	if user == nil || lobby == nil {
		return nil, 0, ErrNoSession
	}
	if user.Role == game.RoleHost {
		return nil, 0, ErrHostCantPlay
	}
	if lobby.Status != game.StatusPlaying {
		return nil, 0, ErrNotGuessing
	}

	resp, err := a.client.AskQuestion(ctx, lobby.Code, api.AskQuestionRequest{
		Question: text,
		UserID:   user.ID,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("ask question: %w", err)
	}

	q := game.Question{
		ID:        resp.QuestionID,
		AskerID:   user.ID,
		AskerName: user.Name,
		Text:      text,
		Answer:    resp.Response,
		AskedAt:   a.clock.Now().UTC(),
	}
	a.store.AddQuestion(q)

	remaining := game.DefaultMaxQuestions
	if resp.QuestionsRemaining != nil {
		remaining = *resp.QuestionsRemaining
	}
	return &q, remaining, nil
}

// Guess evaluates a concept guess. The host checks locally against the
// secret concept; a participant submits through the oracle and wins on a
// CORRECT classification.
func (a *App) Guess(ctx context.Context, text string) (bool, error) {
	user := a.store.CurrentUser()
	lobby := a.store.CurrentLobby()
	if user == nil || lobby == nil {
		return false, ErrNoSession
	}

	if user.Role == game.RoleHost {
		return a.store.EvaluateGuess(text), nil
	}

	if lobby.Status != game.StatusPlaying {
		return false, ErrNotGuessing
	}
	q, _, err := a.AskQuestion(ctx, text)
	if err != nil {
		return false, err
	}
	if q.Answer != game.AnswerCorrect {
		return false, nil
	}

	finished := game.StatusFinished
	winner := *user
	winner.Score = game.ScoreFor(countAskedBy(a.store.CurrentLobby(), user.ID))
	a.store.UpdateLobby(game.LobbyPatch{Status: &finished, Winner: &winner})
	return true, nil
}

// Leave tears the session down. The host deletes the lobby on the way out;
// a vanished lobby is not an error.
func (a *App) Leave(ctx context.Context) error {
	user := a.store.CurrentUser()
	lobby := a.store.CurrentLobby()

	if user != nil && lobby != nil && user.Role == game.RoleHost {
		if err := a.client.DeleteLobby(ctx, lobby.Code, user.ID); err != nil && !errors.Is(err, api.ErrNotFound) {
			a.log.Warn("deleting lobby failed", zap.String("lobby", lobby.Code), zap.Error(err))
		}
	}

	if err := a.records.ClearRecord(); err != nil {
		a.log.Warn("clearing session record failed", zap.Error(err))
	}
	a.store.Clear()
	a.nav.NavigateTo(game.PageEntry)
	return nil
}

func (a *App) persist(user *game.User, lobbyCode string) {
	rec := &session.Record{
		UserID:    user.ID,
		UserName:  user.Name,
		Role:      user.Role,
		LobbyCode: lobbyCode,
		SavedAt:   a.clock.Now().UTC(),
	}
	if err := a.records.SaveRecord(rec); err != nil {
		// the session still works for this process; only restore is lost
		a.log.Warn("persisting session record failed", zap.Error(err))
	}
}

func countAskedBy(lobby *game.Lobby, userID string) int {
	if lobby == nil {
		return 0
	}
	n := 0
	for _, q := range lobby.Questions {
		if q.AskerID == userID {
			n++
		}
	}
	return n
}
