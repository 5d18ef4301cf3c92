package game

import "time"

type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

func (r Role) Valid() bool {
	return r == RoleHost || r == RoleParticipant
}

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// StatusFor derives the lobby status from the server-reported start time:
// a lobby without a start time has not begun.
func StatusFor(startTime *time.Time) Status {
	if startTime == nil {
		return StatusWaiting
	}
	return StatusPlaying
}

// Answer is the oracle's classification of a question. The set is closed;
// the server never returns anything else.
type Answer string

const (
	AnswerYes      Answer = "Yes"
	AnswerNo       Answer = "No"
	AnswerDontKnow Answer = "I don't know"
	AnswerOffTopic Answer = "Off-topic"
	AnswerInvalid  Answer = "Invalid question"
	AnswerCorrect  Answer = "CORRECT"
)

func (a Answer) Valid() bool {
	switch a {
	case AnswerYes, AnswerNo, AnswerDontKnow, AnswerOffTopic, AnswerInvalid, AnswerCorrect:
		return true
	}
	return false
}

type User struct {
	ID    string
	Name  string
	Role  Role
	Score int
}

// Question is immutable once created, except that the oracle's answer may be
// filled in after the fact when it arrives on a later poll.
type Question struct {
	ID        string
	AskerID   string
	AskerName string
	Text      string
	Answer    Answer
	AskedAt   time.Time
}

const DefaultMaxQuestions = 10

// Lobby is the client-side view of a game: the latest server snapshot merged
// with locally accumulated questions.
type Lobby struct {
	Code         string
	OwnerID      string
	Users        []User
	Status       Status
	Questions    []Question
	MaxQuestions int
	Concept      string // host-only; participants never receive it
	Context      string
	Topic        string
	TimeLimitSec int
	StartTime    *time.Time
	Winner       *User
}

// Score awarded for a correct guess after n questions have been used.
func ScoreFor(questionsUsed int) int {
	score := 100 - questionsUsed*10
	if score < 0 {
		return 0
	}
	return score
}
