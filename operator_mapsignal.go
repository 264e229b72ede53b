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

type mapSignalState int8

const (
	mapSignalRunning mapSignalState = iota
	mapSignalPendingTerminal
	mapSignalDone
)

// mapSignalOperator is both the Consumer[T] subscribed to upstream and the
// Subscription handed to downstream: it tracks, under mu, how much
// downstream demand is currently outstanding, so that a synthetic terminal
// value produced by fE/fC can be withheld until demand actually arrives
// (spec §4.3's PendingTerminalValue state). Grounded loosely on the
// teacher's Map/MapErr (operator_transformations.go) for the "subscribe
// upstream, transform, forward" shape; the withheld-terminal-value state
// machine has no teacher analog.
type mapSignalOperator[T, U any] struct {
	downstream Consumer[U]
	fN         func(T) U
	fE         func(error) U
	fC         func() U

	upstreamSub Subscription

	mu          sync.Mutex
	state       mapSignalState
	localDemand uint64
	pendingVal  U
}

var _ Subscription = (*mapSignalOperator[int, int])(nil)

// MapSignal replaces each upstream signal with an optional synthetic value:
// fN(v) replaces onNext, fE(err) replaces onError with an onNext+onComplete,
// fC() replaces onComplete with an onNext+onComplete. Any of the three may
// be nil; a nil fN drops the corresponding value (still releasing one unit
// of upstream demand), a nil fE/fC passes the terminal signal through
// unchanged (spec §4.3).
func MapSignal[T, U any](upstream Publisher[T], fN func(T) U, fE func(error) U, fC func() U) Publisher[U] {
	return publisherFunc[U](func(downstream Consumer[U]) {
		op := &mapSignalOperator[T, U]{
			downstream: downstream,
			fN:         fN,
			fE:         fE,
			fC:         fC,
		}
		upstream.Subscribe(op)
	})
}

func (op *mapSignalOperator[T, U]) OnSubscribe(sub Subscription) {
	op.upstreamSub = sub
	op.downstream.OnSubscribe(op)
}

func (op *mapSignalOperator[T, U]) OnNext(v T) {
	if op.fN == nil {
		// The value is dropped, but upstream must not stall waiting for a
		// request that will never come because we never forward a value
		// downstream for it (spec §4.3).
		op.upstreamSub.Request(1)
		return
	}

	var out U

	if err := runProtected(func() { out = op.fN(v) }); err != nil {
		op.terminateWithError(err)
		return
	}

	op.consumeLocalDemand()
	op.downstream.OnNext(out)
}

func (op *mapSignalOperator[T, U]) OnError(e error) {
	if op.fE == nil {
		if op.markDone() {
			op.downstream.OnError(e)
		}

		return
	}

	op.deliverTerminalValue(func() (U, error) {
		var out U
		err := runProtected(func() { out = op.fE(e) })

		return out, err
	})
}

func (op *mapSignalOperator[T, U]) OnComplete() {
	if op.fC == nil {
		if op.markDone() {
			op.downstream.OnComplete()
		}

		return
	}

	op.deliverTerminalValue(func() (U, error) {
		var out U
		err := runProtected(func() { out = op.fC() })

		return out, err
	})
}

func (op *mapSignalOperator[T, U]) markDone() bool {
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.state == mapSignalDone {
		return false
	}

	op.state = mapSignalDone

	return true
}

func (op *mapSignalOperator[T, U]) terminateWithError(err error) {
	if !op.markDone() {
		return
	}

	op.upstreamSub.Cancel()
	op.downstream.OnError(err)
}

func (op *mapSignalOperator[T, U]) consumeLocalDemand() {
	op.mu.Lock()
	if op.localDemand > 0 && op.localDemand != UnboundedDemand {
		op.localDemand--
	}
	op.mu.Unlock()
}

// deliverTerminalValue implements the PendingTerminalValue transition of
// spec §4.3: if downstream demand is currently available, the synthetic
// value and the completion fire immediately; otherwise they are held until
// Request observes outstanding demand.
func (op *mapSignalOperator[T, U]) deliverTerminalValue(compute func() (U, error)) {
	out, err := compute()

	op.mu.Lock()

	if op.state == mapSignalDone {
		op.mu.Unlock()
		return
	}

	if err != nil {
		op.state = mapSignalDone
		op.mu.Unlock()
		op.downstream.OnError(err)

		return
	}

	if op.localDemand > 0 {
		if op.localDemand != UnboundedDemand {
			op.localDemand--
		}

		op.state = mapSignalDone
		op.mu.Unlock()
		op.downstream.OnNext(out)
		op.downstream.OnComplete()

		return
	}

	op.pendingVal = out
	op.state = mapSignalPendingTerminal
	op.mu.Unlock()
}

// Request implements Subscription for the downstream consumer.
func (op *mapSignalOperator[T, U]) Request(n uint64) {
	op.mu.Lock()

	if n == 0 {
		if op.state == mapSignalDone {
			op.mu.Unlock()
			return
		}

		op.state = mapSignalDone
		op.mu.Unlock()
		op.downstream.OnError(NewIllegalDemandError(0))

		if op.upstreamSub != nil {
			op.upstreamSub.Cancel()
		}

		return
	}

	switch op.state {
	case mapSignalDone:
		op.mu.Unlock()
	case mapSignalPendingTerminal:
		value := op.pendingVal
		op.state = mapSignalDone
		op.mu.Unlock()
		op.downstream.OnNext(value)
		op.downstream.OnComplete()
	default:
		if op.localDemand != UnboundedDemand {
			next := op.localDemand + n
			if next < op.localDemand {
				next = UnboundedDemand
			}

			op.localDemand = next
		}

		op.mu.Unlock()
		op.upstreamSub.Request(n)
	}
}

// Cancel implements Subscription for the downstream consumer.
func (op *mapSignalOperator[T, U]) Cancel() {
	if !op.markDone() {
		return
	}

	if op.upstreamSub != nil {
		op.upstreamSub.Cancel()
	}
}

func (op *mapSignalOperator[T, U]) Dispose() {
	op.Cancel()
}
