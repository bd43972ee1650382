package task

import (
	"errors"
	"math"
	"time"

	"github.com/scicent/backend/internal/models"
)

var (
	// ErrTemplateUnavailable is returned when the template is not published.
	ErrTemplateUnavailable = errors.New("task template is not published")
	// ErrNotEligible is returned when the volunteer's level is too low.
	ErrNotEligible = errors.New("volunteer level below template requirement")
	// ErrAlreadyAssigned is returned when an open assignment for the
	// same template exists.
	ErrAlreadyAssigned = errors.New("volunteer already has an open assignment for this template")
	// ErrNotPending is returned on submit when the assignment left pending.
	ErrNotPending = errors.New("assignment is not pending")
	// ErrOverdue is returned on submit past the due date.
	ErrOverdue = errors.New("assignment is past its due date")
	// ErrNotSubmitted is returned on review of a non-submitted assignment.
	ErrNotSubmitted = errors.New("assignment is not submitted")
	// ErrConflict is returned when a concurrent review won the race.
	ErrConflict = errors.New("assignment was reviewed concurrently")
	// ErrNotFound is returned when the entity does not exist.
	ErrNotFound = errors.New("not found")
)

// Decision is a review outcome.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Valid reports whether the decision is one of the two review outcomes.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// canAccept checks the accept guards: published template, level gate.
// The open-assignment check needs the database and lives in the service.
func canAccept(template *models.TaskTemplate, volunteerLevel int) error {
	if template.Status != models.TemplateStatusPublished {
		return ErrTemplateUnavailable
	}
	if volunteerLevel < template.LevelRequired {
		return ErrNotEligible
	}
	return nil
}

// canSubmit checks the submit guards against the assignment state.
func canSubmit(assignment *models.TaskAssignment, now time.Time) error {
	if assignment.Status != models.AssignmentStatusPending {
		return ErrNotPending
	}
	if now.After(assignment.DueDate) {
		return ErrOverdue
	}
	return nil
}

// reviewTarget maps a decision to its terminal status.
func reviewTarget(decision Decision) models.AssignmentStatus {
	if decision == DecisionApprove {
		return models.AssignmentStatusApproved
	}
	return models.AssignmentStatusRejected
}

// xpForApproval computes the XP awarded on approval: the template
// reward scaled by the multiplier the assignee holds at approval time.
// The multiplier is then re-derived asynchronously; awarding against
// the pre-approval value is the intended ordering.
func xpForApproval(xpReward int64, activityMultiplier float64) int64 {
	if activityMultiplier <= 0 {
		activityMultiplier = 1.0
	}
	return int64(math.Round(float64(xpReward) * activityMultiplier))
}
