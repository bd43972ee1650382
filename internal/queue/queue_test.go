package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	// Backoff grows with the retry count and never exceeds the cap
	// even with jitter applied.
	var prev time.Duration
	for retry := 1; retry <= 12; retry++ {
		d := calculateBackoff(retry)
		assert.Greater(t, d, time.Duration(0), "retry %d", retry)
		assert.LessOrEqual(t, d, time.Duration(float64(time.Hour)*1.2), "retry %d", retry)
		if retry > 1 && retry < 8 {
			// Below the cap the trend is upward; jitter is ±20% while
			// each step doubles, so ordering holds.
			assert.Greater(t, d, prev, "retry %d should back off longer than retry %d", retry, retry-1)
		}
		prev = d
	}
}

func TestDefaultRecoveryConfig(t *testing.T) {
	conf := DefaultRecoveryConfig()

	// The sweep has to run well inside the staleness window, or a
	// stuck job waits almost two windows before redelivery.
	assert.Less(t, conf.Interval, conf.StaleAfter)
	assert.Greater(t, conf.BatchSize, 0)
}

func TestRedisJobConvertToJob(t *testing.T) {
	id := uuid.New()
	payload, err := json.Marshal(map[string]interface{}{"profile_id": uuid.New().String()})
	require.NoError(t, err)

	rj := &RedisJob{
		ID:         id.String(),
		Queue:      string(JobTypeRecalculateMultiplier),
		Payload:    payload,
		Status:     JobStatusPending,
		RetryCount: 2,
		MaxRetries: 5,
	}

	job := rj.ConvertToJob()
	assert.Equal(t, id, job.ID)
	assert.Equal(t, JobTypeRecalculateMultiplier, job.Type)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 2, job.RetryCount)
	assert.Equal(t, 5, job.MaxRetries)
	assert.JSONEq(t, string(payload), string(job.Payload))
}

func TestEnqueueOptions(t *testing.T) {
	opts := &EnqueueOptions{}
	WithDelay(5 * time.Minute)(opts)
	WithMaxRetry(7)(opts)

	assert.Equal(t, 5*time.Minute, opts.Delay)
	assert.Equal(t, 7, opts.MaxRetry)
}
