package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scicent/backend/internal/queue"
)

// QueueHandler exposes background-job observability to the back office.
type QueueHandler struct {
	queue *queue.RedisQueue
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(q *queue.RedisQueue) *QueueHandler {
	return &QueueHandler{queue: q}
}

// GetStats returns per-queue depth and terminal counts for every job type.
func (h *QueueHandler) GetStats(c *gin.Context) {
	jobTypes := []queue.JobType{
		queue.JobTypeRecalculateMultiplier,
		queue.JobTypeDistributeCommissions,
		queue.JobTypeDecaySweep,
		queue.JobTypeOverdueReport,
	}

	stats := make([]queue.QueueStats, 0, len(jobTypes))
	for _, jobType := range jobTypes {
		s, err := h.queue.Stats(string(jobType))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read queue stats"})
			return
		}
		stats = append(stats, s)
	}

	c.JSON(http.StatusOK, gin.H{"queues": stats})
}
