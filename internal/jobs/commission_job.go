package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/scicent/backend/internal/queue"
	"github.com/scicent/backend/internal/services/commission"
)

// CommissionDistributionPayload is the payload for a commission
// distribution job
type CommissionDistributionPayload struct {
	ProfileID  uuid.UUID `json:"profile_id"`
	BaseAmount float64   `json:"base_amount"`
	Reference  string    `json:"reference"`
}

// CommissionJob walks the originating volunteer's referral chain and
// posts commission entries for one qualifying event.
type CommissionJob struct {
	queue       queue.QueueInterface
	distributor *commission.Distributor
}

// NewCommissionJob creates a new commission job handler
func NewCommissionJob(q queue.QueueInterface, distributor *commission.Distributor) *CommissionJob {
	return &CommissionJob{
		queue:       q,
		distributor: distributor,
	}
}

// RegisterCommissionJobHandlers registers the commission job handlers
func RegisterCommissionJobHandlers(q queue.QueueInterface, distributor *commission.Distributor) {
	handler := NewCommissionJob(q, distributor)
	q.RegisterHandler(queue.JobTypeDistributeCommissions, func(ctx context.Context, job queue.Job) (interface{}, error) {
		return handler.ProcessDistribution(ctx, &job)
	})
}

// ProcessDistribution handles one distribution job. A duplicate
// reference is a completed job, not an error: the first delivery
// already posted the entries.
func (j *CommissionJob) ProcessDistribution(ctx context.Context, job *queue.Job) (interface{}, error) {
	var payload CommissionDistributionPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal commission distribution payload: %w", err)
	}

	summary, err := j.distributor.Distribute(payload.ProfileID, payload.BaseAmount, payload.Reference, commission.EventTaskApproval)
	if err != nil {
		return nil, fmt.Errorf("failed to distribute commissions for %s: %w", payload.Reference, err)
	}

	if summary.Duplicate {
		log.Printf("Commission distribution for %s already processed, skipping", payload.Reference)
		return summary, nil
	}

	log.Printf("Distributed %.2f across %d referrers for event %s",
		summary.TotalDistributed, len(summary.Postings), payload.Reference)

	for _, flag := range summary.Flags {
		log.Printf("Fraud advisory on %s: %s (%s)", payload.Reference, flag.Kind, flag.Detail)
	}

	return summary, nil
}
