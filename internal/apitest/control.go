package apitest

import (
	"strconv"
	"time"

	"github.com/askjimmy/go-client/internal/api"
	"github.com/askjimmy/go-client/internal/game"
)

// Test-side controls. These mutate server state directly, the way the real
// backend would between client polls.

// FailNext makes the next n lobby-info requests return HTTP 500.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

// HoldLobbyInfo blocks lobby-info handlers until ch is closed. Used to test
// in-flight guards.
func (s *Server) HoldLobbyInfo(ch <-chan struct{}) {
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()
}

// LobbyInfoCalls reports how many lobby-info requests have been served or
// held so far.
func (s *Server) LobbyInfoCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lobbyInfoCalls
}

// Start marks the lobby started at the given time, as if the host had
// started it from another client.
func (s *Server) Start(pin string, at time.Time) {
	s.mu.Lock()
	if lb, ok := s.lobbies[pin]; ok {
		t := at
		lb.startTime = &t
	}
	s.mu.Unlock()
}

// RemoveLobby deletes a lobby so subsequent requests 404.
func (s *Server) RemoveLobby(pin string) {
	s.mu.Lock()
	delete(s.lobbies, pin)
	s.mu.Unlock()
}

// SetParticipants replaces the participant list wholesale.
func (s *Server) SetParticipants(pin string, names ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lb, ok := s.lobbies[pin]
	if !ok {
		return nil
	}
	lb.participants = nil
	ids := make([]string, 0, len(names))
	for i, name := range names {
		id := "p-" + name + "-" + strconv.Itoa(i)
		lb.participants = append(lb.participants, member{id: id, name: name})
		ids = append(ids, id)
	}
	return ids
}

// AddAnsweredQuestion appends an already-answered entry to the host-visible
// log and returns its id.
func (s *Server) AddAnsweredQuestion(pin, userID, userName, text string, answer game.Answer, at time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lb, ok := s.lobbies[pin]
	if !ok {
		return ""
	}
	entry := api.QuestionEntry{
		ID:        "q-" + strconv.Itoa(len(lb.questions)+1),
		UserID:    userID,
		UserName:  userName,
		Question:  text,
		Answer:    answer,
		Timestamp: at,
	}
	lb.questions = append(lb.questions, entry)
	return entry.ID
}

// SetQuestionAnswer overwrites the answer of an existing log entry,
// simulating an oracle verdict arriving after the question itself.
func (s *Server) SetQuestionAnswer(pin, questionID string, answer game.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lb, ok := s.lobbies[pin]
	if !ok {
		return
	}
	for i := range lb.questions {
		if lb.questions[i].ID == questionID {
			lb.questions[i].Answer = answer
			return
		}
	}
}
