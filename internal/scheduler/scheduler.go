// Package scheduler runs queued tasks on a single worker goroutine. The fuzz
// driver uses it to batch validation sessions.
package scheduler

import (
	"sync"

	"github.com/tliron/commonlog"
)

type Task struct {
	Name    string
	Execute func() error
}

type Scheduler struct {
	taskQueue chan Task
	stopChan  chan struct{}
	wg        sync.WaitGroup
	log       commonlog.Logger
}

// NewScheduler creates a new Scheduler with the specified queue size
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
		log:       commonlog.GetLogger("syncoracle.scheduler"),
	}
}

// RunScheduler starts the scheduler loop
func (s *Scheduler) RunScheduler() {
	go func() {
		for {
			select {
			case task, ok := <-s.taskQueue:
				if !ok {
					// Channel closed, exit the loop
					return
				}
				s.run(task)
			case <-s.stopChan:
				// Stop signal received, drain the taskQueue and exit
				for task := range s.taskQueue {
					s.run(task)
				}
				return
			}
		}
	}()
}

func (s *Scheduler) run(task Task) {
	defer s.wg.Done()
	s.log.Debugf("executing task %s", task.Name)
	if err := task.Execute(); err != nil {
		s.log.Errorf("task %s: %s", task.Name, err.Error())
	}
}

// Schedule queues a task for execution.
func (s *Scheduler) Schedule(task Task) {
	s.wg.Add(1)
	s.taskQueue <- task
}

// StopScheduler waits for all queued tasks to complete and stops the scheduler
func (s *Scheduler) StopScheduler() {
	close(s.stopChan)
	close(s.taskQueue)
	s.wg.Wait()
}
