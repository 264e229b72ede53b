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

// Subscription is the live link produced by Publisher.Subscribe. Both
// methods are safe to call from any goroutine, at any time, including
// re-entrantly from within a signal callback delivered on this same
// Subscription (spec §4.1).
type Subscription interface {
	// Request authorizes the upstream to deliver up to n more onNext
	// signals. n == 0 is illegal and terminates the stream with an
	// IllegalDemand error delivered to the downstream consumer.
	Request(n uint64)
	// Cancel stops further signal delivery. Idempotent.
	Cancel()
}

// Disposable is any entity with an idempotent Dispose. Every Subscription
// implements it by aliasing Cancel (spec §6).
type Disposable interface {
	Dispose()
}

// Consumer receives the signal stream produced by a Publisher.
type Consumer[T any] interface {
	OnSubscribe(sub Subscription)
	OnNext(value T)
	OnComplete()
	OnError(err error)
}

// Publisher exposes a single operation: Subscribe. Subscribing has the side
// effect of delivering exactly one OnSubscribe to consumer before any other
// signal (spec §4.1).
type Publisher[T any] interface {
	Subscribe(consumer Consumer[T])
}

// subscriptionState is the shared state every producer-owned Subscription
// is built from: a saturating demand counter, a cancellation flag, a
// terminal-delivery guard, and the drain loop that serializes access to
// producer-private state (spec §3, §5, §9).
//
// It has no teacher analog: samber/ro has no demand protocol at all (see
// the removed backpressure.go's Block/Drop knob). The drain loop itself
// follows the single-writer, atomic work-in-progress design note of spec §9.
type subscriptionState struct {
	demand     demand
	wip        int32
	cancelled  int32
	terminated int32
}

func (s *subscriptionState) isCancelled() bool {
	return atomic.LoadInt32(&s.cancelled) == 1
}

// cancelOnce flips cancelled to true and reports whether this call won the
// race (so callers can run cancel-propagation exactly once).
func (s *subscriptionState) cancelOnce() bool {
	return atomic.CompareAndSwapInt32(&s.cancelled, 0, 1)
}

func (s *subscriptionState) isTerminated() bool {
	return atomic.LoadInt32(&s.terminated) == 1
}

// terminateOnce flips terminated to true and reports whether this call won
// the race, guaranteeing exactly one terminal signal is ever delivered.
func (s *subscriptionState) terminateOnce() bool {
	return atomic.CompareAndSwapInt32(&s.terminated, 0, 1)
}

// drain runs work at least once, serialized against concurrent callers:
// a goroutine that arrives while another is already draining bumps the
// work-in-progress counter and returns immediately; the active loop
// observes the bump and runs work again, so re-entrant Request calls from
// inside onNext never recurse the stack (spec §5).
func (s *subscriptionState) drain(work func()) {
	if atomic.AddInt32(&s.wip, 1) != 1 {
		return
	}

	for {
		work()

		if atomic.AddInt32(&s.wip, -1) == 0 {
			return
		}
	}
}
