package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusWaiting, StatusFor(nil))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, StatusPlaying, StatusFor(&start))
}

func TestTargetPage(t *testing.T) {
	tests := []struct {
		role   Role
		status Status
		want   Page
	}{
		{RoleHost, StatusWaiting, PageHostSetup},
		{RoleHost, StatusPlaying, PageHostGame},
		{RoleHost, StatusFinished, PageHostGame},
		{RoleParticipant, StatusWaiting, PageWaitingRoom},
		{RoleParticipant, StatusPlaying, PageParticipantGame},
		{RoleParticipant, StatusFinished, PageParticipantGame},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TargetPage(tt.role, tt.status), "role=%s status=%s", tt.role, tt.status)
	}
}

func TestScoreFor(t *testing.T) {
	assert.Equal(t, 100, ScoreFor(0))
	assert.Equal(t, 70, ScoreFor(3))
	assert.Equal(t, 0, ScoreFor(10))
	assert.Equal(t, 0, ScoreFor(15))
}

func TestAnswerValid(t *testing.T) {
	for _, a := range []Answer{AnswerYes, AnswerNo, AnswerDontKnow, AnswerOffTopic, AnswerInvalid, AnswerCorrect} {
		assert.True(t, a.Valid(), "%q", a)
	}
	assert.False(t, Answer("Maybe").Valid())
	assert.False(t, Answer("").Valid())
}
