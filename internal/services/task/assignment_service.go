package task

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
	"github.com/scicent/backend/internal/services/ledger"
	"github.com/scicent/backend/internal/services/volunteer"
	"gorm.io/gorm"
)

// Dispatcher enqueues the asynchronous ripple effects of an approval.
type Dispatcher interface {
	DispatchMultiplierRecalc(profileID uuid.UUID, propagate bool) error
	DispatchCommissionDistribution(profileID uuid.UUID, baseAmount float64, reference string) error
}

// AssignmentService drives the pending → submitted → approved|rejected
// lifecycle. Approval is the trigger for the whole reward pipeline.
type AssignmentService struct {
	db         *gorm.DB
	ledger     *ledger.LedgerService
	profiles   *volunteer.ProfileService
	dispatcher Dispatcher
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *gorm.DB, ledgerSvc *ledger.LedgerService, profiles *volunteer.ProfileService, dispatcher Dispatcher) *AssignmentService {
	return &AssignmentService{
		db:         db,
		ledger:     ledgerSvc,
		profiles:   profiles,
		dispatcher: dispatcher,
	}
}

// Accept creates a pending assignment for a volunteer against a
// published template. Guards: template published, level requirement
// met, no other open assignment for the same template.
func (s *AssignmentService) Accept(volunteerID, templateID uuid.UUID) (*models.TaskAssignment, error) {
	var assignment *models.TaskAssignment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var template models.TaskTemplate
		if err := tx.First(&template, "id = ?", templateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTemplateUnavailable
			}
			return fmt.Errorf("error finding template: %w", err)
		}

		var profile models.VolunteerProfile
		if err := tx.First(&profile, "id = ?", volunteerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("error finding profile: %w", err)
		}

		if err := canAccept(&template, profile.Level); err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&models.TaskAssignment{}).
			Where("volunteer_id = ? AND template_id = ? AND status IN ?",
				volunteerID, templateID,
				[]models.AssignmentStatus{models.AssignmentStatusPending, models.AssignmentStatusSubmitted}).
			Count(&open).Error; err != nil {
			return fmt.Errorf("error checking open assignments: %w", err)
		}
		if open > 0 {
			return ErrAlreadyAssigned
		}

		now := time.Now()
		assignment = &models.TaskAssignment{
			ID:          uuid.New(),
			TemplateID:  templateID,
			VolunteerID: volunteerID,
			Status:      models.AssignmentStatusPending,
			AssignedAt:  now,
			DueDate:     now.AddDate(0, 0, template.DeadlineDays),
		}
		if err := tx.Create(assignment).Error; err != nil {
			return fmt.Errorf("error creating assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// Submit moves a pending assignment to submitted, recording the
// submission payload and timestamp. Rejected when already past due.
func (s *AssignmentService) Submit(assignmentID uuid.UUID, payload models.JSON) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var assignment models.TaskAssignment
		if err := tx.First(&assignment, "id = ?", assignmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("error finding assignment: %w", err)
		}

		now := time.Now()
		if err := canSubmit(&assignment, now); err != nil {
			return err
		}

		result := tx.Model(&models.TaskAssignment{}).
			Where("id = ? AND status = ?", assignmentID, models.AssignmentStatusPending).
			Updates(map[string]interface{}{
				"status":       models.AssignmentStatusSubmitted,
				"submitted_at": now,
				"submission":   payload,
				"updated_at":   now,
			})
		if result.Error != nil {
			return fmt.Errorf("error submitting assignment: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotPending
		}
		return nil
	})
}

// ReviewResult reports what a review did.
type ReviewResult struct {
	AssignmentID uuid.UUID                `json:"assignment_id"`
	Decision     Decision                 `json:"decision"`
	XPAwarded    int64                    `json:"xp_awarded"`
	Award        *volunteer.XPAwardResult `json:"award,omitempty"`
}

// Review resolves a submitted assignment. The status flip is a single
// conditional update on status=submitted: of two concurrent reviews
// exactly one wins, the other gets ErrConflict and no reward side
// effects run twice. On approval the XP award and the task_completion
// ledger entry commit atomically with the flip; the multiplier refresh
// and the commission distribution ride the queue afterwards.
func (s *AssignmentService) Review(assignmentID uuid.UUID, decision Decision, reviewerID uuid.UUID, notes string) (*ReviewResult, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("unknown decision %q", decision)
	}

	var (
		result     *ReviewResult
		template   models.TaskTemplate
		assigneeID uuid.UUID
		hasUpline  bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var assignment models.TaskAssignment
		if err := tx.First(&assignment, "id = ?", assignmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("error finding assignment: %w", err)
		}

		now := time.Now()
		target := reviewTarget(decision)

		flip := tx.Model(&models.TaskAssignment{}).
			Where("id = ? AND status = ?", assignmentID, models.AssignmentStatusSubmitted).
			Updates(map[string]interface{}{
				"status":       target,
				"reviewed_at":  now,
				"reviewer_id":  reviewerID,
				"review_notes": notes,
				"updated_at":   now,
			})
		if flip.Error != nil {
			return fmt.Errorf("error reviewing assignment: %w", flip.Error)
		}
		if flip.RowsAffected == 0 {
			// Distinguish a lost race from a plain bad state off a
			// fresh read: the first load may predate a concurrent flip.
			var current models.TaskAssignment
			if err := tx.First(&current, "id = ?", assignmentID).Error; err != nil {
				return fmt.Errorf("error re-reading assignment: %w", err)
			}
			if current.Status.Terminal() {
				return ErrConflict
			}
			return ErrNotSubmitted
		}

		result = &ReviewResult{AssignmentID: assignmentID, Decision: decision}
		if decision == DecisionReject {
			return nil
		}

		if err := tx.First(&template, "id = ?", assignment.TemplateID).Error; err != nil {
			return fmt.Errorf("error finding template: %w", err)
		}

		var assignee models.VolunteerProfile
		if err := tx.First(&assignee, "id = ?", assignment.VolunteerID).Error; err != nil {
			return fmt.Errorf("error finding assignee: %w", err)
		}
		assigneeID = assignee.ID
		hasUpline = assignee.UplineID != nil

		xp := xpForApproval(template.XPReward, assignee.ActivityMultiplier)
		award, err := s.profiles.AwardXPWithTx(tx, assignee.ID, xp, now)
		if err != nil {
			return err
		}
		result.XPAwarded = xp
		result.Award = award

		reference := taskReference(assignmentID)
		if _, err := s.ledger.AppendWithTx(tx, ledger.Entry{
			VolunteerID:       assignee.ID,
			Type:              models.TransactionTaskCompletion,
			Amount:            float64(xp),
			ExternalReference: &reference,
			Description:       fmt.Sprintf("completed task %q", template.Title),
			Metadata: models.JSON{
				"assignment_id": assignmentID.String(),
				"template_id":   template.ID.String(),
				"xp_reward":     template.XPReward,
				"multiplier":    assignee.ActivityMultiplier,
			},
		}); err != nil {
			return err
		}

		if err := tx.Model(&models.TaskAssignment{}).
			Where("id = ?", assignmentID).
			Update("xp_awarded", xp).Error; err != nil {
			return fmt.Errorf("error recording awarded xp: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Ripple effects run off the synchronous path with at-least-once
	// retry. The distribution is idempotent per task reference, so a
	// redelivery cannot double-pay.
	if decision == DecisionApprove && s.dispatcher != nil {
		if err := s.dispatcher.DispatchMultiplierRecalc(assigneeID, true); err != nil {
			log.Printf("failed to enqueue multiplier recalc for %s: %v", assigneeID, err)
		}
		if hasUpline {
			if err := s.dispatcher.DispatchCommissionDistribution(assigneeID, float64(template.XPReward), taskReference(assignmentID)); err != nil {
				log.Printf("failed to enqueue commission distribution for %s: %v", assignmentID, err)
			}
		}
	}

	return result, nil
}

// GetAssignment loads one assignment with its template.
func (s *AssignmentService) GetAssignment(assignmentID uuid.UUID) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	if err := s.db.Preload("Template").First(&assignment, "id = ?", assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding assignment: %w", err)
	}
	return &assignment, nil
}

// ListOverdue reports assignments still pending past their due date.
// The engine never auto-rejects them; surfacing is the caller's job.
func (s *AssignmentService) ListOverdue(organizationID uuid.UUID) ([]models.TaskAssignment, error) {
	var overdue []models.TaskAssignment
	err := s.db.Joins("JOIN task_templates ON task_templates.id = task_assignments.template_id").
		Where("task_templates.organization_id = ?", organizationID).
		Where("task_assignments.status = ? AND task_assignments.due_date < ?", models.AssignmentStatusPending, time.Now()).
		Find(&overdue).Error
	if err != nil {
		return nil, fmt.Errorf("error listing overdue assignments: %w", err)
	}
	return overdue, nil
}

// taskReference is the idempotency key tying an assignment's approval
// to its ledger entries and commission distribution.
func taskReference(assignmentID uuid.UUID) string {
	return fmt.Sprintf("task_%s", assignmentID)
}
