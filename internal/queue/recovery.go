package queue

import (
	"log"
	"time"

	"gorm.io/gorm"
)

// RecoveryConfig tunes the stuck-job recovery sweep.
type RecoveryConfig struct {
	// StaleAfter is how long a job may sit pending or processing in the
	// mirror table before it is considered lost from Redis.
	StaleAfter time.Duration
	// Interval is how often the sweep runs.
	Interval time.Duration
	// BatchSize bounds how many jobs one sweep re-enqueues.
	BatchSize int
}

// DefaultRecoveryConfig returns the production sweep settings.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		StaleAfter: 10 * time.Minute,
		Interval:   time.Minute,
		BatchSize:  100,
	}
}

// RecoveryProcessor re-enqueues jobs the durable mirror says are still
// open but Redis has lost (a crash between mirror and push, a Redis
// flush, an evicted key). Every reward job is safe to redeliver:
// multiplier recomputation is from scratch and distributions are
// idempotent per reference, so at-least-once is the default.
type RecoveryProcessor struct {
	db    *gorm.DB
	queue *RedisQueue
	conf  RecoveryConfig
	quit  chan struct{}
}

// NewRecoveryProcessor creates a recovery processor over the mirror table
func NewRecoveryProcessor(db *gorm.DB, queue *RedisQueue, conf RecoveryConfig) *RecoveryProcessor {
	return &RecoveryProcessor{
		db:    db,
		queue: queue,
		conf:  conf,
		quit:  make(chan struct{}),
	}
}

// RequeueStuckJobs runs one sweep and returns how many jobs it pushed
// back onto the queue.
func (p *RecoveryProcessor) RequeueStuckJobs() int {
	cutoff := time.Now().Add(-p.conf.StaleAfter)

	var stuck []Job
	err := p.db.
		Where("status IN ?", []JobStatus{JobStatusPending, JobStatusProcessing}).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(p.conf.BatchSize).
		Find(&stuck).Error
	if err != nil {
		log.Printf("Failed to query stuck jobs: %v", err)
		return 0
	}

	requeued := 0
	for _, job := range stuck {
		// Re-enqueue under the same ID so the mirror row is reused and
		// a second sweep cannot duplicate the job.
		_, err := p.queue.Enqueue(string(job.Type), job.Payload,
			WithJobID(job.ID.String()),
			WithMaxRetries(job.MaxRetries),
		)
		if err != nil {
			log.Printf("Failed to requeue stuck job %s: %v", job.ID, err)
			continue
		}

		if err := p.db.Model(&Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
			"status":     JobStatusPending,
			"updated_at": time.Now(),
		}).Error; err != nil {
			log.Printf("Failed to refresh stuck job %s: %v", job.ID, err)
		}
		requeued++
	}

	if requeued > 0 {
		log.Printf("Recovery sweep requeued %d stuck jobs", requeued)
	}
	return requeued
}

// Start runs the sweep on its interval until Stop is called
func (p *RecoveryProcessor) Start() {
	go func() {
		ticker := time.NewTicker(p.conf.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-p.quit:
				return
			case <-ticker.C:
				p.RequeueStuckJobs()
			}
		}
	}()

	log.Printf("Job recovery processor started with interval %v", p.conf.Interval)
}

// Stop stops the recovery sweep
func (p *RecoveryProcessor) Stop() {
	close(p.quit)
}
