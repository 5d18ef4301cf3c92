package game

import (
	"strings"
	"sync"
	"time"
)

// LobbyPatch is a partial lobby update. Nil fields are left untouched, so a
// poll cycle that found nothing new applies as a no-op.
type LobbyPatch struct {
	Users        []User
	Status       *Status
	Questions    []Question
	Concept      *string
	Context      *string
	Topic        *string
	TimeLimitSec *int
	StartTime    *time.Time
	Winner       *User
}

func (p LobbyPatch) IsZero() bool {
	return p.Users == nil &&
		p.Status == nil &&
		p.Questions == nil &&
		p.Concept == nil &&
		p.Context == nil &&
		p.Topic == nil &&
		p.TimeLimitSec == nil &&
		p.StartTime == nil &&
		p.Winner == nil
}

// Store holds the current user and lobby. It is the single writer for both:
// all external changes flow through its mutators, and each mutator applies
// its whole change under one lock so readers never see a half-applied patch.
type Store struct {
	mu                    sync.Mutex
	currentUser           *User
	currentLobby          *Lobby
	selectedParticipantID string

	// coalescing change signal for front ends; capacity 1, never blocks
	changed chan struct{}
}

func NewStore() *Store {
	return &Store{changed: make(chan struct{}, 1)}
}

// Changed signals after every applied mutation. Multiple mutations may
// coalesce into a single signal.
func (s *Store) Changed() <-chan struct{} { return s.changed }

func (s *Store) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// CurrentUser returns a copy of the current user, or nil.
func (s *Store) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentUser == nil {
		return nil
	}
	u := *s.currentUser
	return &u
}

// CurrentLobby returns a copy of the current lobby, or nil. Slices are cloned
// so callers cannot mutate the store's view.
func (s *Store) CurrentLobby() *Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLobby(s.currentLobby)
}

func (s *Store) SetCurrentUser(u *User) {
	s.mu.Lock()
	if u == nil {
		s.currentUser = nil
	} else {
		cp := *u
		s.currentUser = &cp
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Store) SetCurrentLobby(l *Lobby) {
	s.mu.Lock()
	s.currentLobby = cloneLobby(l)
	s.mu.Unlock()
	s.notify()
}

// UpdateLobby shallow-merges the patch into the current lobby. It is a no-op
// when no lobby is set or the patch is empty. Reports whether anything was
// applied.
func (s *Store) UpdateLobby(p LobbyPatch) bool {
	s.mu.Lock()
	if s.currentLobby == nil || p.IsZero() {
		s.mu.Unlock()
		return false
	}
	l := s.currentLobby
	if p.Users != nil {
		l.Users = append([]User(nil), p.Users...)
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Questions != nil {
		l.Questions = append([]Question(nil), p.Questions...)
	}
	if p.Concept != nil {
		l.Concept = *p.Concept
	}
	if p.Context != nil {
		l.Context = *p.Context
	}
	if p.Topic != nil {
		l.Topic = *p.Topic
	}
	if p.TimeLimitSec != nil {
		l.TimeLimitSec = *p.TimeLimitSec
	}
	if p.StartTime != nil {
		t := *p.StartTime
		l.StartTime = &t
	}
	if p.Winner != nil {
		w := *p.Winner
		l.Winner = &w
	}
	s.mu.Unlock()
	s.notify()
	return true
}

// AddQuestion appends to the lobby's question log, preserving insertion
// order. No-op when no lobby is set.
func (s *Store) AddQuestion(q Question) {
	s.mu.Lock()
	if s.currentLobby == nil {
		s.mu.Unlock()
		return
	}
	s.currentLobby.Questions = append(s.currentLobby.Questions, q)
	s.mu.Unlock()
	s.notify()
}

func (s *Store) SetSelectedParticipant(id string) {
	s.mu.Lock()
	s.selectedParticipantID = id
	s.mu.Unlock()
	s.notify()
}

func (s *Store) SelectedParticipant() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedParticipantID
}

// EvaluateGuess compares a candidate against the lobby's secret concept,
// ignoring case and surrounding whitespace. On a correct guess the game is
// marked finished and the current user becomes the winner, scored by how few
// questions they used.
func (s *Store) EvaluateGuess(candidate string) bool {
	s.mu.Lock()
	l := s.currentLobby
	if l == nil || l.Concept == "" {
		s.mu.Unlock()
		return false
	}
	correct := strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(l.Concept))
	if !correct || s.currentUser == nil {
		s.mu.Unlock()
		return correct
	}

	used := 0
	for _, q := range l.Questions {
		if q.AskerID == s.currentUser.ID {
			used++
		}
	}
	winner := *s.currentUser
	winner.Score = ScoreFor(used)
	l.Status = StatusFinished
	l.Winner = &winner
	s.mu.Unlock()
	s.notify()
	return true
}

// Clear drops both the current user and lobby in one step.
func (s *Store) Clear() {
	s.mu.Lock()
	s.currentUser = nil
	s.currentLobby = nil
	s.selectedParticipantID = ""
	s.mu.Unlock()
	s.notify()
}

// SessionActive reports whether both a user and a lobby are present.
func (s *Store) SessionActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentUser != nil && s.currentLobby != nil
}

func cloneLobby(l *Lobby) *Lobby {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Users = append([]User(nil), l.Users...)
	cp.Questions = append([]Question(nil), l.Questions...)
	if l.StartTime != nil {
		t := *l.StartTime
		cp.StartTime = &t
	}
	if l.Winner != nil {
		w := *l.Winner
		cp.Winner = &w
	}
	return &cp
}
