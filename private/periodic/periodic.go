// Copyright 2026 SCION Association
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package periodic runs a task at a fixed period until it is stopped.
package periodic

import (
	"context"
	"time"

	"github.com/tschsched/alice/pkg/log"
	"github.com/tschsched/alice/pkg/metrics"
)

// Event types recorded in Metrics.Events.
const (
	EventStop    = "stop"
	EventKill    = "kill"
	EventTrigger = "triggered"
)

// Task is a task that can be run periodically.
type Task interface {
	// Run runs the task. The context is canceled once the timeout of the
	// runner expires or the runner is killed.
	Run(context.Context)
	// Name returns the name of the task, used in logs.
	Name() string
}

// Metrics are the optional metrics of a runner. Nil fields are ignored.
type Metrics struct {
	// Events returns the counter for the given event type.
	Events    func(string) metrics.Counter
	Runtime   metrics.Gauge
	StartTime metrics.Gauge
	Period    metrics.Gauge
}

func (m *Metrics) event(t string) {
	if m == nil || m.Events == nil {
		return
	}
	metrics.CounterInc(m.Events(t))
}

func (m *Metrics) setRuntime(d time.Duration) {
	if m == nil {
		return
	}
	metrics.GaugeSet(m.Runtime, d.Seconds())
}

func (m *Metrics) setStartTime(t time.Time) {
	if m == nil {
		return
	}
	metrics.GaugeSet(m.StartTime, float64(t.UnixNano()/1e9))
}

func (m *Metrics) setPeriod(d time.Duration) {
	if m == nil {
		return
	}
	metrics.GaugeSet(m.Period, d.Seconds())
}

// Runner runs a task periodically.
type Runner struct {
	task         Task
	ticker       *time.Ticker
	timeout      time.Duration
	stop         chan struct{}
	loopFinished chan struct{}
	ctx          context.Context
	cancelF      context.CancelFunc
	trigger      chan struct{}
	metrics      *Metrics
	logger       log.Logger
}

// Start creates and starts a new Runner to run the given task periodically.
// The timeout is used for the context timeout of the task. The timeout can be
// larger than the period.
func Start(task Task, period, timeout time.Duration) *Runner {
	return StartWithMetrics(task, nil, period, timeout)
}

// StartWithMetrics is identical to Start but allows the caller to specify the
// metrics of the runner.
func StartWithMetrics(task Task, m *Metrics, period, timeout time.Duration) *Runner {
	ctx, cancelF := context.WithCancel(context.Background())
	r := &Runner{
		task:         task,
		ticker:       time.NewTicker(period),
		timeout:      timeout,
		stop:         make(chan struct{}),
		loopFinished: make(chan struct{}),
		ctx:          ctx,
		cancelF:      cancelF,
		trigger:      make(chan struct{}),
		metrics:      m,
		logger:       log.New("task", task.Name()),
	}
	r.logger.Debug("Starting periodic task", "period", period, "timeout", timeout)
	r.metrics.setStartTime(time.Now())
	r.metrics.setPeriod(period)
	go func() {
		defer log.HandlePanic()
		r.runLoop()
	}()
	return r
}

// Stop stops the periodic execution of the Runner. If the task is currently
// running this method blocks until it is done.
func (r *Runner) Stop() {
	r.ticker.Stop()
	close(r.stop)
	<-r.loopFinished
	r.cancelF()
	r.metrics.event(EventStop)
}

// Kill is like Stop but it also cancels the context of the current running
// method.
func (r *Runner) Kill() {
	r.ticker.Stop()
	close(r.stop)
	r.cancelF()
	<-r.loopFinished
	r.metrics.event(EventKill)
}

// TriggerRun triggers the periodic task to run now. This does not impact the
// normal periodicity of this task. That means if the task is triggered it
// will still run at the next tick.
//
// If the task is currently running, this method blocks until the current run
// is done and the triggered run has started.
func (r *Runner) TriggerRun() {
	select {
	case <-r.stop:
	case r.trigger <- struct{}{}:
		r.metrics.event(EventTrigger)
	}
}

func (r *Runner) runLoop() {
	defer close(r.loopFinished)
	defer r.logger.Debug("Stopped periodic task")
	r.onTick()
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C:
			r.onTick()
		case <-r.trigger:
			r.onTick()
		}
	}
}

func (r *Runner) onTick() {
	select {
	// Make sure that stop case is evaluated first, so that when Stop is
	// called and there are also ticks, stop takes precedence.
	case <-r.stop:
		return
	default:
	}
	ctx, cancelF := context.WithTimeout(r.ctx, r.timeout)
	start := time.Now()
	r.task.Run(ctx)
	r.metrics.setRuntime(time.Since(start))
	cancelF()
}
