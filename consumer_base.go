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

import "sync/atomic"

// TerminalSignal tags which pathway ended a BaseConsumer's subscription.
type TerminalSignal uint8

const (
	TerminalComplete TerminalSignal = iota
	TerminalError
	TerminalCancel
)

func (t TerminalSignal) String() string {
	switch t {
	case TerminalComplete:
		return "Complete"
	case TerminalError:
		return "Error"
	case TerminalCancel:
		return "Cancel"
	}

	panic("reactor: unknown terminal signal")
}

// BaseConsumer is the template described in spec §4.6: it stores the
// incoming Subscription, requires its two mandatory hooks at construction,
// and guarantees Finally runs exactly once on any terminal pathway.
//
// Grounded on the teacher's subscriberImpl, which holds a destination plus
// specialized direct-call closures (nextDirect/errorDirect/completeDirect);
// here the closures are supplied by the embedding consumer instead of
// derived by reflection, since "required hooks enforced at construction"
// (spec §9) is most directly a nil check on constructor arguments in Go.
type BaseConsumer[T any] struct {
	subscription Subscription

	onSubscribe func(Subscription)
	onNext      func(T)

	OnCompleteFn func()
	OnErrorFn    func(error)
	OnCancelFn   func()
	FinallyFn    func(TerminalSignal)

	finalized int32
}

// NewBaseConsumer constructs a BaseConsumer. onSubscribe and onNext are
// required; a nil value panics with a NullArgument error, since this is a
// programmer mistake caught at construction time, not a stream error
// (spec §7).
func NewBaseConsumer[T any](onSubscribe func(Subscription), onNext func(T)) *BaseConsumer[T] {
	if onSubscribe == nil {
		panic(NewNullArgumentError("NewBaseConsumer: onSubscribe must not be nil"))
	}

	if onNext == nil {
		panic(NewNullArgumentError("NewBaseConsumer: onNext must not be nil"))
	}

	return &BaseConsumer[T]{
		onSubscribe: onSubscribe,
		onNext:      onNext,
	}
}

var _ Consumer[any] = (*BaseConsumer[any])(nil)

func (c *BaseConsumer[T]) OnSubscribe(sub Subscription) {
	c.subscription = sub
	c.onSubscribe(sub)
}

func (c *BaseConsumer[T]) OnNext(value T) {
	c.onNext(value)
}

func (c *BaseConsumer[T]) OnComplete() {
	if c.OnCompleteFn != nil {
		c.OnCompleteFn()
	}

	c.runFinally(TerminalComplete)
}

func (c *BaseConsumer[T]) OnError(err error) {
	if c.OnErrorFn != nil {
		c.OnErrorFn(err)
	}

	c.runFinally(TerminalError)
}

// Request forwards to the stored Subscription. Safe to call from any
// goroutine, including from within onSubscribe/onNext (spec §4.1).
func (c *BaseConsumer[T]) Request(n uint64) {
	if c.subscription != nil {
		c.subscription.Request(n)
	}
}

// Cancel forwards to the stored Subscription and runs Finally with
// TerminalCancel, unless a terminal signal already ran Finally first.
func (c *BaseConsumer[T]) Cancel() {
	if c.subscription != nil {
		c.subscription.Cancel()
	}

	if c.OnCancelFn != nil {
		c.OnCancelFn()
	}

	c.runFinally(TerminalCancel)
}

func (c *BaseConsumer[T]) runFinally(signal TerminalSignal) {
	if atomic.CompareAndSwapInt32(&c.finalized, 0, 1) && c.FinallyFn != nil {
		c.FinallyFn(signal)
	}
}
