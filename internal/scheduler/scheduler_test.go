package scheduler_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"syncoracle/internal/scheduler"
)

func TestSchedulerRunsAllTasks(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()

	var executed int64
	for i := 0; i < 5; i++ {
		s.Schedule(scheduler.Task{
			Name: "count",
			Execute: func() error {
				atomic.AddInt64(&executed, 1)
				return nil
			},
		})
	}

	s.StopScheduler()

	if got := atomic.LoadInt64(&executed); got != 5 {
		t.Errorf("executed %d tasks, want 5", got)
	}
}

func TestSchedulerContinuesAfterTaskError(t *testing.T) {
	s := scheduler.NewScheduler(10)
	s.RunScheduler()

	var executed int64
	s.Schedule(scheduler.Task{
		Name: "failing",
		Execute: func() error {
			return errors.New("boom")
		},
	})
	s.Schedule(scheduler.Task{
		Name: "following",
		Execute: func() error {
			atomic.AddInt64(&executed, 1)
			return nil
		},
	})

	s.StopScheduler()

	if got := atomic.LoadInt64(&executed); got != 1 {
		t.Errorf("task after a failing task did not run (executed=%d)", got)
	}
}
