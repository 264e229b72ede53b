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

import "sync"

// flatMapSignalOperator is the Consumer[T] subscribed to the outer upstream
// and the Subscription handed to downstream. Each upstream signal produces
// an inner Publisher (via fN/fE/fC); inners are kept in a FIFO queue and
// subscribed one at a time, so that the downstream always observes values
// from exactly one inner at a time, in the order their upstream signals
// arrived — the arrival-order choice recorded for the async-inner Open
// Question (SPEC_FULL.md §9). The terminal hook's inner is only started
// once every value-inner queued before it has fully drained.
//
// Grounded on the teacher's FlatMap/ConcatAll (operator_transformations.go)
// for the one-inner-at-a-time shape; the pending-inner queue and the
// carried-demand bookkeeping have no teacher analog (samber/ro has no
// demand protocol to carry).
type flatMapSignalOperator[T, U any] struct {
	downstream Consumer[U]
	fN         func(T) Publisher[U]
	fE         func(error) Publisher[U]
	fC         func() Publisher[U]

	upstreamSub Subscription

	mu          sync.Mutex
	done        bool
	carryDemand uint64
	queue       []func() Publisher[U]
	activeSub   Subscription

	outerDone           bool
	finalAction         func()
	finalActionHasInner bool
	finalActionStarted  bool
}

var _ Subscription = (*flatMapSignalOperator[int, int])(nil)

// FlatMapSignal is map-signal's counterpart where each hook returns an
// inner Publisher instead of a value; inner emissions are merged into the
// downstream one inner at a time, in upstream arrival order (spec §4.4).
func FlatMapSignal[T, U any](upstream Publisher[T], fN func(T) Publisher[U], fE func(error) Publisher[U], fC func() Publisher[U]) Publisher[U] {
	return publisherFunc[U](func(downstream Consumer[U]) {
		op := &flatMapSignalOperator[T, U]{
			downstream: downstream,
			fN:         fN,
			fE:         fE,
			fC:         fC,
		}
		upstream.Subscribe(op)
	})
}

func (op *flatMapSignalOperator[T, U]) OnSubscribe(sub Subscription) {
	op.upstreamSub = sub
	op.downstream.OnSubscribe(op)
	// The outer sequence is decoupled from downstream backpressure: only
	// the currently active inner's emissions are demand-gated.
	sub.Request(UnboundedDemand)
}

func (op *flatMapSignalOperator[T, U]) OnNext(v T) {
	if op.fN == nil {
		return
	}

	value := v
	op.enqueue(func() Publisher[U] {
		return op.buildInner(func() (Publisher[U], error) { return op.fN(value), nil })
	})
}

func (op *flatMapSignalOperator[T, U]) OnComplete() {
	if op.fC == nil {
		op.handleOuterTerminal(nil, op.downstream.OnComplete)
		return
	}

	op.handleOuterTerminal(func() Publisher[U] {
		return op.buildInner(func() (Publisher[U], error) { return op.fC(), nil })
	}, nil)
}

func (op *flatMapSignalOperator[T, U]) OnError(e error) {
	if op.fE == nil {
		op.handleOuterTerminal(nil, func() { op.downstream.OnError(e) })
		return
	}

	op.handleOuterTerminal(func() Publisher[U] {
		return op.buildInner(func() (Publisher[U], error) { return op.fE(e), nil })
	}, nil)
}

// buildInner runs a hook under panic protection and validates it did not
// return a nil Publisher, converting either failure into an error inner so
// the normal inner-lifecycle machinery reports it consistently.
func (op *flatMapSignalOperator[T, U]) buildInner(call func() (Publisher[U], error)) Publisher[U] {
	var inner Publisher[U]

	err := runProtected(func() {
		var callErr error

		inner, callErr = call()
		if callErr != nil {
			panic(callErr)
		}
	})
	if err != nil {
		return Error[U](err)
	}

	if inner == nil {
		return Error[U](NewNullArgumentError("FlatMapSignal: hook returned a nil Publisher"))
	}

	return inner
}

func (op *flatMapSignalOperator[T, U]) enqueue(factory func() Publisher[U]) {
	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	if op.activeSub == nil {
		op.mu.Unlock()
		op.startInner(factory)

		return
	}

	op.queue = append(op.queue, factory)
	op.mu.Unlock()
}

func (op *flatMapSignalOperator[T, U]) startInner(factory func() Publisher[U]) {
	inner := factory()
	inner.Subscribe(&flatMapInnerConsumer[T, U]{op: op})
}

// advance runs when the active inner terminates. err == nil means it
// completed normally: the next queued inner (if any) starts, or — once the
// outer has also terminated and the queue is drained — the terminal action
// fires. A non-nil err fails the whole flattened stream (spec §7: inner
// publisher errors become InnerError).
func (op *flatMapSignalOperator[T, U]) advance(err error) {
	if err != nil {
		op.terminateDownstream(NewInnerError(err))
		return
	}

	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	if len(op.queue) > 0 {
		next := op.queue[0]
		op.queue = op.queue[1:]
		op.activeSub = nil
		op.mu.Unlock()
		op.startInner(next)

		return
	}

	op.activeSub = nil
	op.mu.Unlock()
	op.tryFireFinalAction()
}

func (op *flatMapSignalOperator[T, U]) handleOuterTerminal(buildInner func() Publisher[U], plainAction func()) {
	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	op.outerDone = true

	if buildInner != nil {
		op.finalAction = func() { op.startInner(buildInner) }
		op.finalActionHasInner = true
	} else {
		op.finalAction = plainAction
		op.finalActionHasInner = false
	}

	op.mu.Unlock()
	op.tryFireFinalAction()
}

// tryFireFinalAction runs once the outer has terminated and no inner is in
// flight: first call either delivers the plain terminal signal (no hook
// set) or starts the terminal hook's inner; a later call — once that
// terminal inner itself drains — delivers the overall onComplete.
func (op *flatMapSignalOperator[T, U]) tryFireFinalAction() {
	op.mu.Lock()

	if op.done || !op.outerDone || op.activeSub != nil || len(op.queue) > 0 {
		op.mu.Unlock()
		return
	}

	if op.finalActionStarted {
		op.done = true
		op.mu.Unlock()
		op.downstream.OnComplete()

		return
	}

	op.finalActionStarted = true
	hasInner := op.finalActionHasInner
	action := op.finalAction

	if !hasInner {
		op.done = true
	}

	op.mu.Unlock()

	if action != nil {
		action()
	}
}

func (op *flatMapSignalOperator[T, U]) terminateDownstream(err error) {
	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	op.done = true
	active := op.activeSub
	op.mu.Unlock()

	if active != nil {
		active.Cancel()
	}

	if op.upstreamSub != nil {
		op.upstreamSub.Cancel()
	}

	op.downstream.OnError(err)
}

// Request implements Subscription for the downstream consumer: demand is
// tracked as a running outstanding total and (re-)granted in full to
// whichever inner is, or next becomes, active.
func (op *flatMapSignalOperator[T, U]) Request(n uint64) {
	if n == 0 {
		op.mu.Lock()

		if op.done {
			op.mu.Unlock()
			return
		}

		op.done = true
		active := op.activeSub
		op.mu.Unlock()

		if active != nil {
			active.Cancel()
		}

		if op.upstreamSub != nil {
			op.upstreamSub.Cancel()
		}

		op.downstream.OnError(NewIllegalDemandError(0))

		return
	}

	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	if op.carryDemand != UnboundedDemand {
		next := op.carryDemand + n
		if next < op.carryDemand {
			next = UnboundedDemand
		}

		op.carryDemand = next
	}

	active := op.activeSub
	op.mu.Unlock()

	if active != nil {
		active.Request(n)
	}
}

func (op *flatMapSignalOperator[T, U]) Cancel() {
	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	op.done = true
	active := op.activeSub
	op.mu.Unlock()

	if active != nil {
		active.Cancel()
	}

	if op.upstreamSub != nil {
		op.upstreamSub.Cancel()
	}
}

func (op *flatMapSignalOperator[T, U]) Dispose() {
	op.Cancel()
}

// flatMapInnerConsumer is the Consumer[U] subscribed to exactly one inner
// Publisher at a time on behalf of a flatMapSignalOperator.
type flatMapInnerConsumer[T, U any] struct {
	op *flatMapSignalOperator[T, U]
}

func (ic *flatMapInnerConsumer[T, U]) OnSubscribe(sub Subscription) {
	ic.op.mu.Lock()
	ic.op.activeSub = sub
	carry := ic.op.carryDemand
	ic.op.mu.Unlock()

	if carry > 0 {
		sub.Request(carry)
	}
}

func (ic *flatMapInnerConsumer[T, U]) OnNext(v U) {
	ic.op.mu.Lock()
	if ic.op.carryDemand != UnboundedDemand && ic.op.carryDemand > 0 {
		ic.op.carryDemand--
	}
	ic.op.mu.Unlock()

	ic.op.downstream.OnNext(v)
}

func (ic *flatMapInnerConsumer[T, U]) OnComplete() {
	ic.op.advance(nil)
}

func (ic *flatMapInnerConsumer[T, U]) OnError(err error) {
	ic.op.advance(err)
}
