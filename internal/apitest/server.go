// Package apitest provides an in-memory lobby service implementing the wire
// contract the client consumes. Tests drive it directly to simulate joins,
// starts, answers, and server failures.
package apitest

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/askjimmy/go-client/internal/api"
	"github.com/askjimmy/go-client/internal/game"
)

type member struct {
	id   string
	name string
}

type lobbyState struct {
	pin          string
	hostID       string
	hostName     string
	concept      string
	context      string
	topic        string
	timeLimitSec int
	startTime    *time.Time
	participants []member
	questions    []api.QuestionEntry
	asked        map[string]int // questions used per participant
}

// Server is the stub lobby service.
type Server struct {
	http.Handler

	mu             sync.Mutex
	lobbies        map[string]*lobbyState
	failNext       int
	lobbyInfoCalls int
	hold           <-chan struct{}
}

func NewServer() *Server {
	s := &Server{lobbies: make(map[string]*lobbyState)}

	r := chi.NewRouter()
	r.Post("/lobby/create", s.handleCreate)
	r.Post("/lobby/join", s.handleJoin)
	r.Post("/lobby/start", s.handleStart)
	r.Route("/lobby/{pin}", func(r chi.Router) {
		r.Get("/", s.handleInfo)
		r.Post("/question", s.handleQuestion)
		r.Delete("/", s.handleDelete)
	})
	s.Handler = r
	return s
}

func generatePin() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	pin := make([]byte, 6)
	for i := range pin {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			panic(err)
		}
		pin[i] = charset[num.Int64()]
	}
	return string(pin)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad request")
		return
	}

	s.mu.Lock()
	var pin string
	for {
		pin = generatePin()
		if _, taken := s.lobbies[pin]; !taken {
			break
		}
	}
	lb := &lobbyState{
		pin:          pin,
		hostID:       uuid.NewString(),
		hostName:     req.HostName,
		concept:      req.SecretConcept,
		context:      req.Context,
		topic:        req.Topic,
		timeLimitSec: req.TimeLimitSec,
		asked:        make(map[string]int),
	}
	s.lobbies[pin] = lb
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, api.CreateLobbyResponse{
		Pin:      pin,
		HostID:   lb.hostID,
		HostName: lb.hostName,
	})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req api.JoinLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad request")
		return
	}

	s.mu.Lock()
	lb, ok := s.lobbies[req.Pin]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Lobby not found")
		return
	}
	m := member{id: uuid.NewString(), name: req.ParticipantName}
	lb.participants = append(lb.participants, m)
	resp := api.JoinLobbyResponse{
		Pin:             lb.pin,
		UserID:          m.id,
		ParticipantName: m.name,
		HostID:          lb.hostID,
		HostName:        lb.hostName,
		Participants:    lb.participantList(),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req api.StartLobbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad request")
		return
	}

	s.mu.Lock()
	lb, ok := s.lobbies[req.Pin]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Lobby not found")
		return
	}
	if lb.hostID != req.HostID {
		s.mu.Unlock()
		writeDetail(w, http.StatusForbidden, "only the host can start the lobby")
		return
	}
	if req.SecretConcept != "" {
		lb.concept = req.SecretConcept
	}
	if req.Context != "" {
		lb.context = req.Context
	}
	if req.Topic != "" {
		lb.topic = req.Topic
	}
	if req.TimeLimitSec != 0 {
		lb.timeLimitSec = req.TimeLimitSec
	}
	start := req.StartTime
	if start.IsZero() {
		start = time.Now().UTC()
	}
	lb.startTime = &start
	resp := api.StartLobbyResponse{
		Pin:          lb.pin,
		StartTime:    start,
		Participants: lb.participantList(),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.lobbyInfoCalls++
	hold := s.hold
	if s.failNext > 0 {
		s.failNext--
		s.mu.Unlock()
		writeDetail(w, http.StatusInternalServerError, "injected failure")
		return
	}
	s.mu.Unlock()

	if hold != nil {
		<-hold
	}

	pin := chi.URLParam(r, "pin")
	userID := r.URL.Query().Get("user_id")

	s.mu.Lock()
	lb, ok := s.lobbies[pin]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Lobby not found")
		return
	}
	resp := api.LobbyInfoResponse{
		Pin:          lb.pin,
		HostID:       lb.hostID,
		HostName:     lb.hostName,
		Participants: lb.participantList(),
		TimeLimitSec: lb.timeLimitSec,
		Topic:        lb.topic,
	}
	if lb.startTime != nil {
		t := *lb.startTime
		resp.StartTime = &t
	}
	if userID == lb.hostID {
		resp.SecretConcept = lb.concept
		resp.Context = lb.context
		resp.Questions = append([]api.QuestionEntry(nil), lb.questions...)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	pin := chi.URLParam(r, "pin")
	var req api.AskQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "bad request")
		return
	}

	s.mu.Lock()
	lb, ok := s.lobbies[pin]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Lobby not found")
		return
	}
	answer := s.classify(lb, req.Question)
	name := lb.memberName(req.UserID)
	entry := api.QuestionEntry{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		UserName:  name,
		Question:  req.Question,
		Answer:    answer,
		Timestamp: time.Now().UTC(),
	}
	lb.questions = append(lb.questions, entry)
	lb.asked[req.UserID]++
	remaining := game.DefaultMaxQuestions - lb.asked[req.UserID]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.AskQuestionResponse{
		QuestionID:         entry.ID,
		Response:           answer,
		QuestionsRemaining: &remaining,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	pin := chi.URLParam(r, "pin")
	userID := r.URL.Query().Get("user_id")

	s.mu.Lock()
	lb, ok := s.lobbies[pin]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Lobby not found")
		return
	}
	if lb.hostID != userID {
		s.mu.Unlock()
		writeDetail(w, http.StatusForbidden, "only the host can delete the lobby")
		return
	}
	delete(s.lobbies, pin)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// classify is a stand-in oracle: an exact concept match is CORRECT,
// everything else is a fixed Yes. Tests needing other answers use
// SetQuestionAnswer.
func (s *Server) classify(lb *lobbyState, question string) game.Answer {
	if question == lb.concept {
		return game.AnswerCorrect
	}
	return game.AnswerYes
}

func (lb *lobbyState) participantList() []api.Participant {
	out := make([]api.Participant, 0, len(lb.participants))
	for _, m := range lb.participants {
		out = append(out, api.Participant{UserID: m.id, Name: m.name, Role: game.RoleParticipant})
	}
	return out
}

func (lb *lobbyState) memberName(userID string) string {
	if userID == lb.hostID {
		return lb.hostName
	}
	for _, m := range lb.participants {
		if m.id == userID {
			return m.name
		}
	}
	return "unknown"
}
