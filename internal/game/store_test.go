package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitingLobby() *Lobby {
	return &Lobby{
		Code:    "AB12CD",
		OwnerID: "h1",
		Users: []User{
			{ID: "h1", Name: "Prof. Anderson", Role: RoleHost},
			{ID: "p1", Name: "Alex", Role: RoleParticipant},
		},
		Status:       StatusWaiting,
		MaxQuestions: DefaultMaxQuestions,
		Concept:      "photosynthesis",
	}
}

func TestUpdateLobby_NoLobbyIsNoop(t *testing.T) {
	s := NewStore()
	status := StatusPlaying
	assert.False(t, s.UpdateLobby(LobbyPatch{Status: &status}))
	assert.Nil(t, s.CurrentLobby())
}

func TestUpdateLobby_ShallowMerge(t *testing.T) {
	s := NewStore()
	s.SetCurrentLobby(waitingLobby())

	status := StatusPlaying
	topic := "biology"
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	applied := s.UpdateLobby(LobbyPatch{Status: &status, Topic: &topic, StartTime: &start})
	require.True(t, applied)

	got := s.CurrentLobby()
	assert.Equal(t, StatusPlaying, got.Status)
	assert.Equal(t, "biology", got.Topic)
	require.NotNil(t, got.StartTime)
	assert.True(t, got.StartTime.Equal(start))
	// untouched fields survive the merge
	assert.Equal(t, "AB12CD", got.Code)
	assert.Equal(t, "photosynthesis", got.Concept)
	assert.Len(t, got.Users, 2)
}

func TestUpdateLobby_EmptyPatchIsNoop(t *testing.T) {
	s := NewStore()
	s.SetCurrentLobby(waitingLobby())
	drain(s)

	assert.False(t, s.UpdateLobby(LobbyPatch{}))
	select {
	case <-s.Changed():
		t.Fatal("empty patch must not signal a change")
	default:
	}
}

func TestAddQuestion_PreservesOrder(t *testing.T) {
	s := NewStore()
	s.SetCurrentLobby(waitingLobby())

	s.AddQuestion(Question{ID: "q1", AskerID: "p1", Text: "Is it alive?", Answer: AnswerNo})
	s.AddQuestion(Question{ID: "q2", AskerID: "p1", Text: "Is it a process?", Answer: AnswerYes})

	got := s.CurrentLobby().Questions
	require.Len(t, got, 2)
	assert.Equal(t, "q1", got[0].ID)
	assert.Equal(t, "q2", got[1].ID)
}

func TestEvaluateGuess(t *testing.T) {
	s := NewStore()
	s.SetCurrentUser(&User{ID: "p1", Name: "Alex", Role: RoleParticipant})
	s.SetCurrentLobby(waitingLobby())

	assert.False(t, s.EvaluateGuess("chlorophyll"))
	assert.Equal(t, StatusWaiting, s.CurrentLobby().Status)

	// trimmed, case-insensitive
	assert.True(t, s.EvaluateGuess("Photosynthesis "))

	got := s.CurrentLobby()
	assert.Equal(t, StatusFinished, got.Status)
	require.NotNil(t, got.Winner)
	assert.Equal(t, "p1", got.Winner.ID)
	assert.Equal(t, 100, got.Winner.Score)
}

func TestEvaluateGuess_ScoresByQuestionsUsed(t *testing.T) {
	s := NewStore()
	s.SetCurrentUser(&User{ID: "p1", Name: "Alex", Role: RoleParticipant})
	lobby := waitingLobby()
	lobby.Questions = []Question{
		{ID: "q1", AskerID: "p1", Answer: AnswerYes},
		{ID: "q2", AskerID: "p2", Answer: AnswerNo}, // someone else's
		{ID: "q3", AskerID: "p1", Answer: AnswerNo},
	}
	s.SetCurrentLobby(lobby)

	require.True(t, s.EvaluateGuess("photosynthesis"))
	assert.Equal(t, 80, s.CurrentLobby().Winner.Score)
}

func TestEvaluateGuess_NoConcept(t *testing.T) {
	s := NewStore()
	assert.False(t, s.EvaluateGuess("anything"))

	lobby := waitingLobby()
	lobby.Concept = ""
	s.SetCurrentLobby(lobby)
	assert.False(t, s.EvaluateGuess("anything"))
}

func TestClearAndSessionActive(t *testing.T) {
	s := NewStore()
	assert.False(t, s.SessionActive())

	s.SetCurrentUser(&User{ID: "u1", Role: RoleHost})
	assert.False(t, s.SessionActive())
	s.SetCurrentLobby(waitingLobby())
	assert.True(t, s.SessionActive())

	s.Clear()
	assert.False(t, s.SessionActive())
	assert.Nil(t, s.CurrentUser())
	assert.Nil(t, s.CurrentLobby())
}

func TestSelectedParticipant(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.SelectedParticipant())

	s.SetSelectedParticipant("p1")
	assert.Equal(t, "p1", s.SelectedParticipant())

	s.Clear()
	assert.Empty(t, s.SelectedParticipant())
}

func TestCurrentLobbyReturnsCopy(t *testing.T) {
	s := NewStore()
	s.SetCurrentLobby(waitingLobby())

	got := s.CurrentLobby()
	got.Users[0].Name = "mutated"
	got.Code = "XXXXXX"

	fresh := s.CurrentLobby()
	assert.Equal(t, "Prof. Anderson", fresh.Users[0].Name)
	assert.Equal(t, "AB12CD", fresh.Code)
}

// drain empties the coalescing change signal.
func drain(s *Store) {
	select {
	case <-s.Changed():
	default:
	}
}
