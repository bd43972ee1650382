package jobs

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scicent/backend/internal/queue"
)

type capturingQueue struct {
	jobs []*queue.Job
	opts []queue.EnqueueOptions
}

func (q *capturingQueue) RegisterHandler(queue.JobType, queue.JobHandler) {}

func (q *capturingQueue) Enqueue(job *queue.Job, opts ...queue.EnqueueOption) error {
	applied := queue.EnqueueOptions{}
	for _, opt := range opts {
		opt(&applied)
	}
	q.jobs = append(q.jobs, job)
	q.opts = append(q.opts, applied)
	return nil
}

func TestDispatchMultiplierRecalcDelaysFanOut(t *testing.T) {
	q := &capturingQueue{}
	d := NewQueueDispatcher(q)
	profileID := uuid.New()

	require.NoError(t, d.DispatchMultiplierRecalc(profileID, true))
	require.NoError(t, d.DispatchMultiplierRecalc(profileID, false))
	require.Len(t, q.jobs, 2)

	assert.Equal(t, queue.JobTypeRecalculateMultiplier, q.jobs[0].Type)
	assert.Zero(t, q.opts[0].Delay, "root recalcs run immediately")
	assert.Equal(t, recalcCoalesceDelay, q.opts[1].Delay, "fan-out legs coalesce")

	var payload MultiplierRecalcPayload
	require.NoError(t, json.Unmarshal(q.jobs[1].Payload, &payload))
	assert.Equal(t, profileID, payload.ProfileID)
	assert.False(t, payload.Propagate)
}

func TestDispatchCommissionDistribution(t *testing.T) {
	q := &capturingQueue{}
	d := NewQueueDispatcher(q)
	profileID := uuid.New()

	require.NoError(t, d.DispatchCommissionDistribution(profileID, 120.5, "task_abc"))
	require.Len(t, q.jobs, 1)

	assert.Equal(t, queue.JobTypeDistributeCommissions, q.jobs[0].Type)
	assert.Equal(t, 5, q.jobs[0].MaxRetries)
	assert.Zero(t, q.opts[0].Delay)

	var payload CommissionDistributionPayload
	require.NoError(t, json.Unmarshal(q.jobs[0].Payload, &payload))
	assert.Equal(t, "task_abc", payload.Reference)
	assert.Equal(t, 120.5, payload.BaseAmount)
}
