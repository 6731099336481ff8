package rtos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoTasks        = errors.New("no tasks spawned")
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// Task is the body of a scheduled task. It runs until ctx is cancelled or it
// fails.
type Task func(ctx context.Context) error

type taskEntry struct {
	name     string
	priority int
	run      Task
}

// Scheduler dispatches spawned tasks in descending priority order. Go has no
// task priorities once goroutines are running, so priority only fixes the
// start order.
type Scheduler struct {
	logger  *zap.Logger
	mu      sync.Mutex
	tasks   []taskEntry
	started bool
}

func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Spawn registers a task. Tasks cannot be added once Start has been called.
func (s *Scheduler) Spawn(name string, priority int, run Task) error {
	if run == nil {
		return fmt.Errorf("spawn %q: nil task", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("spawn %q: %w", name, ErrAlreadyStarted)
	}

	s.tasks = append(s.tasks, taskEntry{name: name, priority: priority, run: run})
	return nil
}

// Start runs every spawned task and blocks until all of them have returned.
// Cancellation of ctx is a normal stop and yields nil; the first task failure
// cancels the others and is returned.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return ErrNoTasks
	}
	s.started = true
	tasks := make([]taskEntry, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].priority > tasks[j].priority
	})

	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		s.logger.Info("[scheduler] starting task", zap.String("task", task.name), zap.Int("priority", task.priority))
		g.Go(func() error {
			err := task.run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("task %q: %w", task.name, err)
			}
			s.logger.Info("[scheduler] task stopped", zap.String("task", task.name))
			return nil
		})
	}

	return g.Wait()
}
