package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/queue"
	"github.com/scicent/backend/internal/services/volunteer"
)

// MultiplierRecalcPayload is the payload for a multiplier recalc job
type MultiplierRecalcPayload struct {
	ProfileID uuid.UUID `json:"profile_id"`
	Propagate bool      `json:"propagate"`
}

// MultiplierJob recomputes a profile's activity multiplier from
// current facts. Recomputation is from scratch, so running the same
// job twice converges on the same value.
type MultiplierJob struct {
	queue    queue.QueueInterface
	profiles *volunteer.ProfileService
}

// NewMultiplierJob creates a new multiplier job handler
func NewMultiplierJob(q queue.QueueInterface, profiles *volunteer.ProfileService) *MultiplierJob {
	return &MultiplierJob{
		queue:    q,
		profiles: profiles,
	}
}

// RegisterMultiplierJobHandlers registers the multiplier job handlers
func RegisterMultiplierJobHandlers(q queue.QueueInterface, profiles *volunteer.ProfileService) {
	handler := NewMultiplierJob(q, profiles)
	q.RegisterHandler(queue.JobTypeRecalculateMultiplier, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return handler.ProcessRecalc(ctx, &job)
	})
}

// ProcessRecalc handles one recalculation job
func (j *MultiplierJob) ProcessRecalc(ctx context.Context, job *queue.Job) (interface{}, error) {
	var payload MultiplierRecalcPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal multiplier recalc payload: %w", err)
	}

	value, err := j.profiles.RecalculateMultiplier(payload.ProfileID, payload.Propagate)
	if err != nil {
		return nil, fmt.Errorf("failed to recalculate multiplier for %s: %w", payload.ProfileID, err)
	}

	log.Printf("Recalculated multiplier for profile %s: %.2f (propagate=%v)",
		payload.ProfileID, value, payload.Propagate)

	return map[string]interface{}{
		"profile_id": payload.ProfileID.String(),
		"multiplier": value,
	}, nil
}
