package vdisnap

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
)

const (
	DefaultJanitorInterval = 10 * time.Minute
	DefaultTaskRetention   = time.Hour
)

// TaskJanitor 定期清理已经结束的后端任务
type TaskJanitor struct {
	tasks     *hypervisor.TaskManager
	interval  time.Duration
	retention time.Duration
	stop      chan struct{}
}

func NewTaskJanitor(tasks *hypervisor.TaskManager, interval, retention time.Duration) *TaskJanitor {
	return &TaskJanitor{
		tasks:     tasks,
		interval:  interval,
		retention: retention,
		stop:      make(chan struct{}),
	}
}

func (j *TaskJanitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-j.stop:
			return nil
		case <-ticker.C:
			if removed := j.tasks.CleanupOldTasks(j.retention); removed > 0 {
				zerolog.Ctx(ctx).Debug().Int("removed", removed).Msg("Cleaned up finished tasks")
			}
		}
	}
}

func (j *TaskJanitor) Shutdown(ctx context.Context) error {
	select {
	case <-j.stop:
	default:
		close(j.stop)
	}
	return nil
}
