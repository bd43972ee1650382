package jobs

import (
	"time"

	"github.com/scicent/backend/internal/queue"
	"github.com/scicent/backend/internal/services/commission"
	"github.com/scicent/backend/internal/services/volunteer"
	"gorm.io/gorm"
)

// RegisterAllJobHandlers registers all job handlers with the queue
func RegisterAllJobHandlers(
	q queue.QueueInterface,
	db *gorm.DB,
	profiles *volunteer.ProfileService,
	distributor *commission.Distributor,
) {
	RegisterMultiplierJobHandlers(q, profiles)
	RegisterCommissionJobHandlers(q, distributor)
	RegisterMaintenanceJobHandlers(q, db)
}

// ScheduleRecurringJobs registers the recurring maintenance jobs with
// the worker manager's scheduler: the decay sweep once a day and the
// overdue report hourly.
func ScheduleRecurringJobs(manager *queue.WorkerManager, graceDays int) error {
	if err := manager.ScheduleRecurring(queue.JobTypeDecaySweep, 24*time.Hour, func() interface{} {
		return DecaySweepPayload{GraceDays: graceDays}
	}); err != nil {
		return err
	}

	return manager.ScheduleRecurring(queue.JobTypeOverdueReport, time.Hour, func() interface{} {
		return OverdueReportPayload{}
	})
}
