package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/queue"
)

// recalcCoalesceDelay holds fan-out recalculations back briefly so a
// burst of activity on one chain collapses into fewer recomputations.
const recalcCoalesceDelay = 30 * time.Second

// QueueDispatcher turns service-side dispatch calls into queued jobs.
// It is the single implementation behind the small Dispatcher
// interfaces the reward services declare.
type QueueDispatcher struct {
	queue queue.QueueInterface
}

// NewQueueDispatcher creates a dispatcher backed by the given queue
func NewQueueDispatcher(q queue.QueueInterface) *QueueDispatcher {
	return &QueueDispatcher{queue: q}
}

// DispatchMultiplierRecalc enqueues a multiplier recalculation for one
// profile. Propagation fan-out happens inside the handler, never here.
func (d *QueueDispatcher) DispatchMultiplierRecalc(profileID uuid.UUID, propagate bool) error {
	payload := MultiplierRecalcPayload{
		ProfileID: profileID,
		Propagate: propagate,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal multiplier recalc payload: %w", err)
	}

	job := &queue.Job{
		Type:       queue.JobTypeRecalculateMultiplier,
		Payload:    payloadBytes,
		MaxRetries: 3,
	}
	// Root recalcs run immediately; fan-out legs are delayed to
	// coalesce bursts.
	if !propagate {
		return d.queue.Enqueue(job, queue.WithDelay(recalcCoalesceDelay))
	}
	return d.queue.Enqueue(job)
}

// DispatchCommissionDistribution enqueues commission distribution for a
// qualifying event. The reference keys idempotence, so re-enqueueing
// the same event is harmless.
func (d *QueueDispatcher) DispatchCommissionDistribution(profileID uuid.UUID, baseAmount float64, reference string) error {
	payload := CommissionDistributionPayload{
		ProfileID:  profileID,
		BaseAmount: baseAmount,
		Reference:  reference,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal commission distribution payload: %w", err)
	}

	return d.queue.Enqueue(&queue.Job{
		Type:       queue.JobTypeDistributeCommissions,
		Payload:    payloadBytes,
		MaxRetries: 5,
	})
}
