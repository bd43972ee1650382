package task

import (
	"testing"
	"time"

	"github.com/scicent/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCanAccept(t *testing.T) {
	published := &models.TaskTemplate{Status: models.TemplateStatusPublished, LevelRequired: 3}

	assert.NoError(t, canAccept(published, 3))
	assert.NoError(t, canAccept(published, 10))
	assert.ErrorIs(t, canAccept(published, 2), ErrNotEligible)

	draft := &models.TaskTemplate{Status: models.TemplateStatusDraft, LevelRequired: 1}
	assert.ErrorIs(t, canAccept(draft, 5), ErrTemplateUnavailable)

	archived := &models.TaskTemplate{Status: models.TemplateStatusArchived, LevelRequired: 1}
	assert.ErrorIs(t, canAccept(archived, 5), ErrTemplateUnavailable)
}

func TestCanSubmit(t *testing.T) {
	now := time.Now()
	pending := &models.TaskAssignment{
		Status:  models.AssignmentStatusPending,
		DueDate: now.Add(24 * time.Hour),
	}
	assert.NoError(t, canSubmit(pending, now))

	late := &models.TaskAssignment{
		Status:  models.AssignmentStatusPending,
		DueDate: now.Add(-time.Minute),
	}
	assert.ErrorIs(t, canSubmit(late, now), ErrOverdue)

	for _, status := range []models.AssignmentStatus{
		models.AssignmentStatusSubmitted,
		models.AssignmentStatusApproved,
		models.AssignmentStatusRejected,
	} {
		a := &models.TaskAssignment{Status: status, DueDate: now.Add(24 * time.Hour)}
		assert.ErrorIs(t, canSubmit(a, now), ErrNotPending)
	}
}

func TestReviewTarget(t *testing.T) {
	assert.Equal(t, models.AssignmentStatusApproved, reviewTarget(DecisionApprove))
	assert.Equal(t, models.AssignmentStatusRejected, reviewTarget(DecisionReject))
}

func TestDecisionValid(t *testing.T) {
	assert.True(t, DecisionApprove.Valid())
	assert.True(t, DecisionReject.Valid())
	assert.False(t, Decision("maybe").Valid())
}

func TestXPForApproval(t *testing.T) {
	assert.Equal(t, int64(50), xpForApproval(50, 1.0))
	assert.Equal(t, int64(75), xpForApproval(50, 1.5))
	assert.Equal(t, int64(63), xpForApproval(50, 1.25), "rounds half up")
	assert.Equal(t, int64(150), xpForApproval(50, 3.0))
	assert.Equal(t, int64(50), xpForApproval(50, 0), "broken multiplier falls back to 1.0")
}

func TestOverdueReporting(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	pendingLate := &models.TaskAssignment{Status: models.AssignmentStatusPending, DueDate: past}
	assert.True(t, pendingLate.Overdue(now))

	submittedLate := &models.TaskAssignment{Status: models.AssignmentStatusSubmitted, DueDate: past}
	assert.False(t, submittedLate.Overdue(now), "submitted work is never overdue")

	pendingOnTime := &models.TaskAssignment{Status: models.AssignmentStatusPending, DueDate: now.Add(time.Hour)}
	assert.False(t, pendingOnTime.Overdue(now))
}
