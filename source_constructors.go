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

// Grounded on the teacher's operator_creation.go (Of/Just/Range/Throw/
// Never/FromSlice), rebuilt around the demand-driven drain loop instead of
// samber/ro's fire-and-forget goroutine-per-subscribe model: every source
// below is synchronous and pull-based, honoring downstream demand exactly
// (spec §4.2).

// Iterator pulls one value at a time from a sequence. Next returns
// (zero value, false) once exhausted. A panic from Next is caught and
// delivered downstream as an error (spec §4.2: "an exception from the
// sequence becomes onError").
type Iterator[T any] interface {
	Next() (T, bool)
}

// Iterable produces a fresh, independent Iterator on every call, so that a
// cold Publisher built from it can be subscribed to more than once
// (spec §3 lifecycle: subscriptions are exclusively owned per-subscriber).
type Iterable[T any] interface {
	Iterator() Iterator[T]
}

type closer interface {
	Close()
}

// terminalSubscription backs sources that deliver exactly one signal
// synchronously from within Subscribe (Empty, Error), gated only by
// cancellation racing the synchronous delivery.
type terminalSubscription[T any] struct {
	state    subscriptionState
	consumer Consumer[T]
}

func (s *terminalSubscription[T]) Request(n uint64) {
	rejectIllegalDemand(&s.state, n, s.consumer.OnError)
}

func (s *terminalSubscription[T]) Cancel() {
	s.state.cancelOnce()
}

func (s *terminalSubscription[T]) Dispose() {
	s.Cancel()
}

// Empty emits onSubscribe then onComplete, deferred until after
// onSubscribe returns, independent of downstream demand (spec §4.2).
func Empty[T any]() Publisher[T] {
	return publisherFunc[T](func(consumer Consumer[T]) {
		sub := &terminalSubscription[T]{consumer: consumer}
		consumer.OnSubscribe(sub)

		if !sub.state.isCancelled() && sub.state.terminateOnce() {
			consumer.OnComplete()
		}
	})
}

// Error emits onSubscribe then onError(err), deferred until after
// onSubscribe returns (spec §4.2).
func Error[T any](err error) Publisher[T] {
	return publisherFunc[T](func(consumer Consumer[T]) {
		sub := &terminalSubscription[T]{consumer: consumer}
		consumer.OnSubscribe(sub)

		if !sub.state.isCancelled() && sub.state.terminateOnce() {
			consumer.OnError(err)
		}
	})
}

// neverSubscription backs Never: onSubscribe only, no further signal ever.
type neverSubscription[T any] struct {
	state    subscriptionState
	consumer Consumer[T]
}

func (s *neverSubscription[T]) Request(n uint64) {
	rejectIllegalDemand(&s.state, n, s.consumer.OnError)
}

func (s *neverSubscription[T]) Cancel() {
	s.state.cancelOnce()
}

func (s *neverSubscription[T]) Dispose() {
	s.Cancel()
}

// Never emits onSubscribe and then nothing, ever (spec §4.2).
func Never[T any]() Publisher[T] {
	return publisherFunc[T](func(consumer Consumer[T]) {
		consumer.OnSubscribe(&neverSubscription[T]{consumer: consumer})
	})
}

// pullSubscription backs every source that produces a bounded or unbounded
// sequence of values one at a time under explicit demand (Just, Range,
// FromIterable). Completion is detected with a one-value lookahead so
// that a finite source completes as soon as it is exhausted, without
// waiting for additional demand it does not need (spec §4.2, scenario 1:
// empty()-shaped completion must not depend on demand).
type pullSubscription[T any] struct {
	state    subscriptionState
	consumer Consumer[T]
	pull     func() (T, bool)
	release  func()

	peeked   T
	havePeek bool
	peekedOK bool
}

func newPullPublisher[T any](setup func() (pull func() (T, bool), release func())) Publisher[T] {
	return publisherFunc[T](func(consumer Consumer[T]) {
		pull, release := setup()
		sub := &pullSubscription[T]{consumer: consumer, pull: pull, release: release}
		consumer.OnSubscribe(sub)
	})
}

func (s *pullSubscription[T]) Request(n uint64) {
	if rejectIllegalDemand(&s.state, n, s.consumer.OnError) {
		return
	}

	s.state.demand.add(n)
	s.state.drain(s.emit)
}

func (s *pullSubscription[T]) Cancel() {
	if s.state.cancelOnce() && s.release != nil {
		s.release()
	}
}

func (s *pullSubscription[T]) Dispose() {
	s.Cancel()
}

func (s *pullSubscription[T]) ensurePeek() error {
	if s.havePeek {
		return nil
	}

	var value T

	var ok bool

	if err := runProtected(func() {
		value, ok = s.pull()
	}); err != nil {
		return err
	}

	s.peeked, s.peekedOK, s.havePeek = value, ok, true

	return nil
}

func (s *pullSubscription[T]) emit() {
	for {
		if s.state.isCancelled() || s.state.isTerminated() {
			return
		}

		// On either terminal path the sequence is released; claiming the
		// cancel flag first keeps a later Cancel from releasing it twice.
		if err := s.ensurePeek(); err != nil {
			if s.state.terminateOnce() {
				if s.release != nil && s.state.cancelOnce() {
					s.release()
				}

				s.consumer.OnError(err)
			}

			return
		}

		if !s.peekedOK {
			if s.state.terminateOnce() {
				if s.release != nil && s.state.cancelOnce() {
					s.release()
				}

				s.consumer.OnComplete()
			}

			return
		}

		if !s.state.demand.tryConsume() {
			return
		}

		value := s.peeked
		s.havePeek = false
		s.consumer.OnNext(value)
	}
}

// Just emits the given values in order, then completes (spec §4.2).
func Just[T any](values ...T) Publisher[T] {
	return newPullPublisher[T](func() (func() (T, bool), func()) {
		idx := 0

		return func() (T, bool) {
			if idx >= len(values) {
				var zero T

				return zero, false
			}

			v := values[idx]
			idx++

			return v, true
		}, nil
	})
}

// Range emits count consecutive int64 values starting at start, then
// completes (spec §4.2).
func Range(start int64, count uint64) Publisher[int64] {
	return newPullPublisher[int64](func() (func() (int64, bool), func()) {
		i := uint64(0)

		return func() (int64, bool) {
			if i >= count {
				return 0, false
			}

			v := start + int64(i)
			i++

			return v, true
		}, nil
	})
}

// FromIterable pulls from a fresh Iterator per subscription, under demand.
// If the Iterator also implements an idiomatic Close() method, it is
// closed once, when the stream completes, fails, or is cancelled
// (spec §4.2: "on cancel, releases the sequence").
func FromIterable[T any](seq Iterable[T]) Publisher[T] {
	if seq == nil {
		panic(NewNullArgumentError("FromIterable: sequence must not be nil"))
	}

	return newPullPublisher[T](func() (func() (T, bool), func()) {
		it := seq.Iterator()

		var release func()
		if c, ok := it.(closer); ok {
			release = c.Close
		}

		return it.Next, release
	})
}
