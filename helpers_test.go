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
	"sync"

	"github.com/samber/lo"
)

// recordingConsumer accumulates every signal it observes, in order, as the
// Signal[T] tagged variant (spec §3), so tests can assert exact emission
// sequences without hand-rolling a Consumer per test.
type recordingConsumer[T any] struct {
	mu      sync.Mutex
	sub     Subscription
	signals []Signal[T]
}

func newRecordingConsumer[T any]() *recordingConsumer[T] {
	return &recordingConsumer[T]{}
}

func (c *recordingConsumer[T]) OnSubscribe(sub Subscription) {
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
}

func (c *recordingConsumer[T]) OnNext(v T) {
	c.record(NewSignalNext(v))
}

func (c *recordingConsumer[T]) OnComplete() {
	c.record(NewSignalComplete[T]())
}

func (c *recordingConsumer[T]) OnError(err error) {
	c.record(NewSignalError[T](err))
}

func (c *recordingConsumer[T]) record(s Signal[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals = append(c.signals, s)
}

// Request forwards to the Subscription captured from OnSubscribe.
func (c *recordingConsumer[T]) Request(n uint64) {
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()

	if sub != nil {
		sub.Request(n)
	}
}

func (c *recordingConsumer[T]) Cancel() {
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

func (c *recordingConsumer[T]) Signals() []Signal[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Signal[T], len(c.signals))
	copy(out, c.signals)

	return out
}

// Values extracts the payload of every onNext signal, in order, the same
// way the teacher's own test helpers extract one field out of a recorded
// slice (t2ToSliceB in the teacher's helpers_test.go).
func (c *recordingConsumer[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	nexts := lo.Filter(c.signals, func(s Signal[T], _ int) bool { return s.Kind == KindNext })

	return lo.Map(nexts, func(s Signal[T], _ int) T { return s.Value })
}

// Terminal returns the stream's terminal signal, or nil if none arrived yet.
func (c *recordingConsumer[T]) Terminal() *Signal[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.signals {
		if c.signals[i].IsTerminal() {
			sig := c.signals[i]
			return &sig
		}
	}

	return nil
}

var _ Consumer[int] = (*recordingConsumer[int])(nil)

// replaySignalsTo delivers a pre-recorded sequence to consumer verbatim,
// stopping at the first terminal signal (uses the deliver dispatch helper
// from signal.go). Lets a test express an expected sequence as a []Signal[T]
// literal and drive it through a real Consumer rather than a Publisher.
func replaySignalsTo[T any](signals []Signal[T], consumer Consumer[T]) {
	for _, s := range signals {
		if !deliver(s, consumer.OnNext, consumer.OnComplete, consumer.OnError) {
			return
		}
	}
}
