// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/samber/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reactor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abenhmida/reactor-core/internal/xtime"
)

// Scheduler is the injectable capability asynchronous publishers use to run
// work off the subscribing goroutine (spec §5: "the core is thread-agnostic
// ... delivers signals on a worker obtained from an injected scheduler
// capability"). The core only consumes this interface; concrete scheduler
// implementations (thread pools, timer wheels) are an external collaborator
// (spec §1) — standardScheduler below is one reference implementation, not
// part of the core contract.
type Scheduler interface {
	// Schedule runs task once, as soon as a worker is available.
	Schedule(task func()) Disposable
	// ScheduleDelayed runs task once, after delay has elapsed.
	ScheduleDelayed(task func(), delay time.Duration) Disposable
	// SchedulePeriodic runs task repeatedly, every period, until disposed.
	SchedulePeriodic(task func(), period time.Duration) Disposable
	// Dispose stops every periodic task and releases any owned worker
	// threads. Idempotent.
	Dispose()
}

// standardScheduler backs one-shot and delayed work with plain goroutines
// and time.Timer, and periodic work with a github.com/go-co-op/gocron/v2
// scheduler, grounded on the teacher's cron source plugin (plugins/cron/
// source.go) which wraps the same library's NewScheduler/NewJob/Start/
// Shutdown around a push source. Here it backs a capability instead of a
// source, since the core only ever calls Schedule*, never subscribes to it.
type standardScheduler struct {
	mu      sync.Mutex
	closed  bool
	started bool
	cron    gocron.Scheduler
}

// NewScheduler constructs the reference Scheduler implementation.
func NewScheduler() (Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, NewOperatorError(err)
	}

	return &standardScheduler{cron: cron}, nil
}

func (s *standardScheduler) Schedule(task func()) Disposable {
	var cancelled int32

	go func() {
		if atomic.LoadInt32(&cancelled) == 1 {
			return
		}

		s.runTask(task)
	}()

	return disposeFunc(func() { atomic.StoreInt32(&cancelled, 1) })
}

func (s *standardScheduler) ScheduleDelayed(task func(), delay time.Duration) Disposable {
	timer := time.AfterFunc(delay, func() { s.runTask(task) })

	return disposeFunc(func() { timer.Stop() })
}

func (s *standardScheduler) SchedulePeriodic(task func(), period time.Duration) Disposable {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return disposeFunc(func() {})
	}

	if !s.started {
		s.cron.Start()
		s.started = true
	}

	cron := s.cron
	s.mu.Unlock()

	job, err := cron.NewJob(
		gocron.DurationJob(period),
		gocron.NewTask(func() { s.runTask(task) }),
	)
	if err != nil {
		processLogger.Warn("reactor: failed to schedule periodic task", zap.Error(err))
		return disposeFunc(func() {})
	}

	var jobID uuid.UUID = job.ID()

	return disposeFunc(func() {
		_ = cron.RemoveJob(jobID)
	})
}

// Dispose shuts down the periodic-job scheduler; later SchedulePeriodic calls
// return a no-op Disposable. Tasks already passed to Schedule or
// ScheduleDelayed are not cancelled and still run.
func (s *standardScheduler) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true

	if s.started {
		_ = s.cron.Shutdown()
	}
}

// runTask recovers a panicking task into an OperatorError and routes it to
// UnhandledErrorHandler, since a scheduled task has no downstream consumer
// of its own to deliver onError to (spec §7's error-dropped case, the
// scheduler-driven analog).
func (s *standardScheduler) runTask(task func()) {
	start := xtime.NowNanoMonotonic()

	err := runProtected(task)

	processLogger.Debug("reactor: scheduled task finished",
		zap.Duration("elapsed", time.Duration(xtime.NowNanoMonotonic()-start)))

	if err != nil {
		reportUnhandled(context.Background(), err)
	}
}

type disposeFunc func()

func (f disposeFunc) Dispose() {
	f()
}
