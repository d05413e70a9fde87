package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/bohemiyan/taskflow"
	"github.com/bohemiyan/taskflow/zapLogger"
	"github.com/robfig/cron/v3"
)

// OverdueSource lists overdue tasks at a point in time.
type OverdueSource interface {
	OverdueTasks(ctx context.Context, now time.Time) ([]taskflow.Task, error)
}

// OverdueSweeper periodically counts and logs overdue tasks.
type OverdueSweeper struct {
	cronScheduler *cron.Cron
	source        OverdueSource
	spec          string
	jobID         cron.EntryID
	now           func() time.Time
}

// NewOverdueSweeper creates a sweeper running on a seconds-resolution cron spec.
func NewOverdueSweeper(source OverdueSource, spec string) *OverdueSweeper {
	return &OverdueSweeper{
		cronScheduler: cron.New(cron.WithSeconds()),
		source:        source,
		spec:          spec,
		now:           time.Now,
	}
}

// Start schedules the sweep and starts the scheduler.
func (o *OverdueSweeper) Start() error {
	var err error
	o.jobID, err = o.cronScheduler.AddFunc(o.spec, func() {
		if _, err := o.Sweep(context.Background()); err != nil {
			zapLogger.Log.Errorw("overdue sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling overdue sweep: %w", err)
	}

	o.cronScheduler.Start()
	zapLogger.Log.Infow("overdue sweep scheduled", "spec", o.spec)
	return nil
}

// Stop terminates the scheduler and waits for a running sweep.
func (o *OverdueSweeper) Stop() {
	ctx := o.cronScheduler.Stop()
	<-ctx.Done()
}

// Sweep runs one pass and returns the number of overdue tasks.
func (o *OverdueSweeper) Sweep(ctx context.Context) (int, error) {
	tasks, err := o.source.OverdueTasks(ctx, o.now())
	if err != nil {
		return 0, err
	}
	for _, t := range tasks {
		zapLogger.Log.Infow("task overdue", "task", t.ID, "sno", t.SNo, "assignee", t.AssignedToEmail, "due", t.DueDate)
	}
	zapLogger.Log.Infow("overdue sweep finished", "count", len(tasks))
	return len(tasks), nil
}
