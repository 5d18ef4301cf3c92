package api

import (
	"time"

	"github.com/askjimmy/go-client/internal/game"
)

// Wire types for the lobby service. Field names follow the server's
// snake_case JSON.

// Participant is a lobby member as reported by the server. Ids are
// server-issued and stable; the client never fabricates them.
type Participant struct {
	UserID string    `json:"user_id"`
	Name   string    `json:"name"`
	Role   game.Role `json:"role"`
}

type QuestionEntry struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	UserName  string      `json:"user_name"`
	Question  string      `json:"question"`
	Answer    game.Answer `json:"answer"`
	Timestamp time.Time   `json:"timestamp"`
}

type CreateLobbyRequest struct {
	HostName      string `json:"host_name"`
	SecretConcept string `json:"secret_concept"`
	Context       string `json:"context"`
	Topic         string `json:"topic"`
	TimeLimitSec  int    `json:"time_limit"`
}

type CreateLobbyResponse struct {
	Pin      string `json:"pin"`
	HostID   string `json:"host_id"`
	HostName string `json:"host_name"`
}

type JoinLobbyRequest struct {
	Pin             string `json:"pin"`
	ParticipantName string `json:"participant_name"`
}

type JoinLobbyResponse struct {
	Pin             string        `json:"pin"`
	UserID          string        `json:"user_id"`
	ParticipantName string        `json:"participant_name"`
	HostID          string        `json:"host_id"`
	HostName        string        `json:"host_name"`
	Participants    []Participant `json:"participants"`
}

type StartLobbyRequest struct {
	Pin           string    `json:"pin"`
	HostID        string    `json:"host_id"`
	SecretConcept string    `json:"secret_concept,omitempty"`
	Context       string    `json:"context,omitempty"`
	Topic         string    `json:"topic,omitempty"`
	TimeLimitSec  int       `json:"time_limit,omitempty"`
	StartTime     time.Time `json:"start_time"`
}

type StartLobbyResponse struct {
	Pin          string        `json:"pin"`
	StartTime    time.Time     `json:"start_time"`
	Participants []Participant `json:"participants"`
}

// LobbyInfoResponse is the authoritative lobby snapshot returned by the
// polling endpoint. SecretConcept, Context and Questions are only populated
// when the requesting user is the host.
type LobbyInfoResponse struct {
	Pin           string          `json:"pin"`
	HostID        string          `json:"host_id"`
	HostName      string          `json:"host_name"`
	Participants  []Participant   `json:"participants"`
	SecretConcept string          `json:"secret_concept,omitempty"`
	Context       string          `json:"context,omitempty"`
	StartTime     *time.Time      `json:"start_time,omitempty"`
	TimeLimitSec  int             `json:"timelimit"`
	Topic         string          `json:"topic"`
	Questions     []QuestionEntry `json:"questions,omitempty"`
}

type AskQuestionRequest struct {
	Question string `json:"question"`
	UserID   string `json:"user_id"`
}

type AskQuestionResponse struct {
	QuestionID         string      `json:"question_id"`
	Response           game.Answer `json:"response"`
	QuestionsRemaining *int        `json:"questions_remaining"`
}

// Status derives the lobby status from the snapshot's start time.
func (r *LobbyInfoResponse) Status() game.Status {
	return game.StatusFor(r.StartTime)
}

// Users converts the snapshot's member list into the client model: the host
// first, then participants in server order.
func (r *LobbyInfoResponse) Users() []game.User {
	users := make([]game.User, 0, len(r.Participants)+1)
	users = append(users, game.User{ID: r.HostID, Name: r.HostName, Role: game.RoleHost})
	for _, p := range r.Participants {
		users = append(users, game.User{ID: p.UserID, Name: p.Name, Role: game.RoleParticipant})
	}
	return users
}

// GameQuestions converts the host-visible question log.
func (r *LobbyInfoResponse) GameQuestions() []game.Question {
	if len(r.Questions) == 0 {
		return nil
	}
	qs := make([]game.Question, 0, len(r.Questions))
	for _, q := range r.Questions {
		qs = append(qs, game.Question{
			ID:        q.ID,
			AskerID:   q.UserID,
			AskerName: q.UserName,
			Text:      q.Question,
			Answer:    q.Answer,
			AskedAt:   q.Timestamp,
		})
	}
	return qs
}

// Lobby reconstructs the full client-side lobby view from a snapshot.
func (r *LobbyInfoResponse) Lobby() *game.Lobby {
	var start *time.Time
	if r.StartTime != nil {
		t := *r.StartTime
		start = &t
	}
	return &game.Lobby{
		Code:         r.Pin,
		OwnerID:      r.HostID,
		Users:        r.Users(),
		Status:       r.Status(),
		Questions:    r.GameQuestions(),
		MaxQuestions: game.DefaultMaxQuestions,
		Concept:      r.SecretConcept,
		Context:      r.Context,
		Topic:        r.Topic,
		TimeLimitSec: r.TimeLimitSec,
		StartTime:    start,
	}
}
