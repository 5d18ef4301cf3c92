package session

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/askjimmy/go-client/internal/api"
	"github.com/askjimmy/go-client/internal/apitest"
	"github.com/askjimmy/go-client/internal/game"
)

type fixture struct {
	server  *apitest.Server
	client  *api.Client
	store   *game.Store
	records *Storage
	nav     *apitest.NavRecorder
	clock   *clockwork.FakeClock
	recon   *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	server := apitest.NewServer()
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)

	f := &fixture{
		server:  server,
		client:  api.NewClient(ts.URL, zap.NewNop()),
		store:   game.NewStore(),
		records: openStorage(t),
		nav:     &apitest.NavRecorder{},
		clock:   clockwork.NewFakeClock(),
	}
	f.recon = NewReconciler(f.store, f.records, f.client, f.nav, f.clock, zap.NewNop())
	return f
}

// createLobby provisions a lobby on the stub server and persists a matching
// host record saved an hour ago.
func (f *fixture) createLobby(t *testing.T) (pin, hostID string) {
	t.Helper()
	resp := f.createLobbyNoRecord(t)
	f.saveRecord(t, resp.HostID, "Prof. Anderson", game.RoleHost, resp.Pin)
	return resp.Pin, resp.HostID
}

func (f *fixture) createLobbyNoRecord(t *testing.T) *api.CreateLobbyResponse {
	t.Helper()
	resp, err := f.client.CreateLobby(context.Background(), api.CreateLobbyRequest{
		HostName:      "Prof. Anderson",
		SecretConcept: "photosynthesis",
		Context:       "plants make energy",
		Topic:         "biology",
		TimeLimitSec:  600,
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) saveRecord(t *testing.T, userID, name string, role game.Role, pin string) {
	t.Helper()
	require.NoError(t, f.records.SaveRecord(&Record{
		UserID:    userID,
		UserName:  name,
		Role:      role,
		LobbyCode: pin,
		SavedAt:   f.clock.Now().Add(-time.Hour),
	}))
}

func TestRestore_NoRecordRedirectsToEntry(t *testing.T) {
	f := newFixture(t)

	f.recon.Restore(context.Background(), game.PageHostGame)

	assert.Equal(t, []game.Page{game.PageEntry}, f.nav.Pages())
	assert.False(t, f.store.SessionActive())
}

func TestRestore_NoRecordOnEntryDoesNothing(t *testing.T) {
	f := newFixture(t)

	f.recon.Restore(context.Background(), game.PageEntry)

	assert.Empty(t, f.nav.Pages())
}

func TestRestore_ExpiredRecordDeletedNoNavigation(t *testing.T) {
	f := newFixture(t)
	pin, hostID := f.createLobby(t)
	require.NoError(t, f.records.SaveRecord(&Record{
		UserID:    hostID,
		UserName:  "Prof. Anderson",
		Role:      game.RoleHost,
		LobbyCode: pin,
		SavedAt:   f.clock.Now().Add(-25 * time.Hour),
	}))

	f.recon.Restore(context.Background(), game.PageEntry)

	assert.Empty(t, f.nav.Pages())
	assert.False(t, f.store.SessionActive())
	rec, err := f.records.LoadRecord()
	require.NoError(t, err)
	assert.Nil(t, rec)
	// no fetch happened for a dead record
	assert.Zero(t, f.server.LobbyInfoCalls())
}

func TestRestore_InvalidRecordDeleted(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.records.SaveRecord(&Record{
		UserName:  "Alex",
		Role:      game.RoleParticipant,
		LobbyCode: "AB12CD",
		SavedAt:   f.clock.Now(),
	})) // missing user id

	f.recon.Restore(context.Background(), game.PageWaitingRoom)

	assert.Equal(t, []game.Page{game.PageEntry}, f.nav.Pages())
	rec, err := f.records.LoadRecord()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRestore_HostWaitingGoesToSetup(t *testing.T) {
	f := newFixture(t)
	pin, hostID := f.createLobby(t)

	f.recon.Restore(context.Background(), game.PageEntry)

	assert.Equal(t, game.PageHostSetup, f.nav.Last())
	user := f.store.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, hostID, user.ID)
	assert.Equal(t, game.RoleHost, user.Role)
	lobby := f.store.CurrentLobby()
	require.NotNil(t, lobby)
	assert.Equal(t, pin, lobby.Code)
	assert.Equal(t, game.StatusWaiting, lobby.Status)
	// host sees the secret
	assert.Equal(t, "photosynthesis", lobby.Concept)
}

func TestRestore_HostPlayingGoesToHostGame(t *testing.T) {
	f := newFixture(t)
	pin, _ := f.createLobby(t)
	f.server.Start(pin, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	f.recon.Restore(context.Background(), game.PageEntry)

	assert.Equal(t, game.PageHostGame, f.nav.Last())
	assert.Equal(t, game.StatusPlaying, f.store.CurrentLobby().Status)
}

func TestRestore_ParticipantTargets(t *testing.T) {
	f := newFixture(t)
	resp := f.createLobbyNoRecord(t)
	joined, err := f.client.JoinLobby(context.Background(), api.JoinLobbyRequest{Pin: resp.Pin, ParticipantName: "Alex"})
	require.NoError(t, err)
	f.saveRecord(t, joined.UserID, "Alex", game.RoleParticipant, resp.Pin)

	f.recon.Restore(context.Background(), game.PageEntry)
	assert.Equal(t, game.PageWaitingRoom, f.nav.Last())
	// the secret never reaches a participant
	assert.Empty(t, f.store.CurrentLobby().Concept)

	f.store.Clear()
	f.server.Start(resp.Pin, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	f.recon.Restore(context.Background(), game.PageEntry)
	assert.Equal(t, game.PageParticipantGame, f.nav.Last())
}

func TestRestore_AlreadyOnTargetDoesNotNavigate(t *testing.T) {
	f := newFixture(t)
	f.createLobby(t)

	f.recon.Restore(context.Background(), game.PageHostSetup)

	assert.Empty(t, f.nav.Pages())
	assert.True(t, f.store.SessionActive())
}

func TestRestore_LobbyGoneClearsRecordAndRedirects(t *testing.T) {
	f := newFixture(t)
	pin, _ := f.createLobby(t)
	f.server.RemoveLobby(pin)

	f.recon.Restore(context.Background(), game.PageHostSetup)

	assert.Equal(t, []game.Page{game.PageEntry}, f.nav.Pages())
	assert.False(t, f.store.SessionActive())
	rec, err := f.records.LoadRecord()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRestore_SessionAlreadyInMemoryIsNoop(t *testing.T) {
	f := newFixture(t)
	f.createLobby(t)
	f.store.SetCurrentUser(&game.User{ID: "u1", Role: game.RoleHost})
	f.store.SetCurrentLobby(&game.Lobby{Code: "AB12CD", Status: game.StatusWaiting})

	f.recon.Restore(context.Background(), game.PageHostSetup)

	assert.Zero(t, f.server.LobbyInfoCalls())
	assert.Empty(t, f.nav.Pages())
}

func TestRestore_ReentrantCallDropped(t *testing.T) {
	f := newFixture(t)
	f.createLobby(t)

	gate := make(chan struct{})
	f.server.HoldLobbyInfo(gate)

	done := make(chan struct{})
	go func() {
		f.recon.Restore(context.Background(), game.PageEntry)
		close(done)
	}()

	// wait until the first restore is parked inside the fetch
	require.Eventually(t, func() bool { return f.server.LobbyInfoCalls() == 1 },
		2*time.Second, 10*time.Millisecond)

	// second call while restoring: dropped without fetching
	f.recon.Restore(context.Background(), game.PageEntry)
	assert.Equal(t, 1, f.server.LobbyInfoCalls())

	close(gate)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for restore to finish")
	}

	assert.Equal(t, 1, f.server.LobbyInfoCalls())
	assert.True(t, f.store.SessionActive())
}
