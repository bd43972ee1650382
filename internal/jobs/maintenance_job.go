package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/models"
	"github.com/scicent/backend/internal/queue"
	"gorm.io/gorm"
)

const (
	// decaySweepBatchSize bounds how many profiles one sweep touches.
	decaySweepBatchSize = 500
	// recalcStaleness is how old a stored multiplier may get before the
	// sweep re-derives it for an inactive profile.
	recalcStaleness = 24 * time.Hour
)

// DecaySweepPayload is the payload for a decay sweep job
type DecaySweepPayload struct {
	GraceDays int `json:"grace_days"`
}

// OverdueReportPayload is the payload for an overdue report job
type OverdueReportPayload struct{}

// MaintenanceJob owns the recurring background work: the multiplier
// decay sweep and the overdue assignment report. Neither mutates
// reward state directly; the sweep only fans out recalc jobs.
type MaintenanceJob struct {
	db    *gorm.DB
	queue queue.QueueInterface
}

// NewMaintenanceJob creates a new maintenance job handler
func NewMaintenanceJob(db *gorm.DB, q queue.QueueInterface) *MaintenanceJob {
	return &MaintenanceJob{db: db, queue: q}
}

// RegisterMaintenanceJobHandlers registers the maintenance job handlers
func RegisterMaintenanceJobHandlers(q queue.QueueInterface, db *gorm.DB) {
	handler := NewMaintenanceJob(db, q)
	q.RegisterHandler(queue.JobTypeDecaySweep, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return handler.ProcessDecaySweep(ctx, &job)
	})
	q.RegisterHandler(queue.JobTypeOverdueReport, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return handler.ProcessOverdueReport(ctx, &job)
	})
}

// ProcessDecaySweep finds profiles whose stored multiplier has gone
// stale through inactivity and enqueues a recalculation for each.
// Stored values only change on recompute, so without the sweep a
// profile that stops triggering events would keep its old multiplier
// forever.
func (j *MaintenanceJob) ProcessDecaySweep(ctx context.Context, job *queue.Job) (interface{}, error) {
	var payload DecaySweepPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decay sweep payload: %w", err)
	}
	if payload.GraceDays <= 0 {
		payload.GraceDays = 7
	}

	now := time.Now()
	inactiveSince := now.AddDate(0, 0, -payload.GraceDays)
	staleSince := now.Add(-recalcStaleness)

	var profiles []models.VolunteerProfile
	err := j.db.
		Where("last_activity_at < ?", inactiveSince).
		Where("last_multiplier_calculation_at IS NULL OR last_multiplier_calculation_at < ?", staleSince).
		Limit(decaySweepBatchSize).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query stale profiles: %w", err)
	}

	enqueued := 0
	for _, profile := range profiles {
		recalc := MultiplierRecalcPayload{ProfileID: profile.ID, Propagate: false}
		payloadBytes, err := json.Marshal(recalc)
		if err != nil {
			log.Printf("Failed to marshal recalc payload for %s: %v", profile.ID, err)
			continue
		}
		if err := j.queue.Enqueue(&queue.Job{
			Type:       queue.JobTypeRecalculateMultiplier,
			Payload:    payloadBytes,
			MaxRetries: 3,
		}); err != nil {
			log.Printf("Failed to enqueue decay recalc for %s: %v", profile.ID, err)
			continue
		}
		enqueued++
	}

	log.Printf("Decay sweep enqueued %d multiplier recalculations (%d candidates)", enqueued, len(profiles))

	return map[string]interface{}{
		"candidates": len(profiles),
		"enqueued":   enqueued,
	}, nil
}

// overdueCount is one row of the per-organization overdue summary.
type overdueCount struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Count          int64     `json:"count"`
}

// ProcessOverdueReport logs a per-organization summary of pending
// assignments past their due date. Overdue assignments stay acceptable
// for review, so this is purely advisory output for coordinators.
func (j *MaintenanceJob) ProcessOverdueReport(ctx context.Context, job *queue.Job) (interface{}, error) {
	var counts []overdueCount
	err := j.db.Model(&models.TaskAssignment{}).
		Select("task_templates.organization_id AS organization_id, COUNT(task_assignments.id) AS count").
		Joins("JOIN task_templates ON task_templates.id = task_assignments.template_id").
		Where("task_assignments.status = ?", models.AssignmentStatusPending).
		Where("task_assignments.due_date < ?", time.Now()).
		Group("task_templates.organization_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build overdue report: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c.Count
		log.Printf("Overdue report: organization %s has %d overdue assignments", c.OrganizationID, c.Count)
	}
	log.Printf("Overdue report complete: %d overdue assignments across %d organizations", total, len(counts))

	return map[string]interface{}{
		"organizations": len(counts),
		"total_overdue": total,
	}, nil
}
