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
	"reflect"

	"github.com/abenhmida/reactor-core/internal/xsync"
)

// Container accumulates the values that fall into one buffer window. The
// caller's factory produces a fresh one per opened window (spec §4.5:
// "opaque container created by the user-provided factory").
type Container[T any] interface {
	Add(value T)
}

// SliceContainer is the slice-backed Container most callers reach for.
type SliceContainer[T any] struct {
	Items []T
}

func (c *SliceContainer[T]) Add(value T) {
	c.Items = append(c.Items, value)
}

// NewSliceContainer is a ready-made factory for Buffer's C parameter.
func NewSliceContainer[T any]() *SliceContainer[T] {
	return &SliceContainer[T]{}
}

type bufferWindow[T any, C Container[T]] struct {
	seq       uint64
	container C
	filled    uint32
}

// bufferOperator is both the Consumer[T] subscribed to upstream and the
// Subscription handed to downstream. A window list holds every window
// still accepting items; a FIFO ready queue holds windows waiting on
// downstream demand before they can be delivered (spec §4.5's three
// regimes all fall out of "open a window every skip items, append to
// every currently open window, retire a window once it has size items").
//
// Grounded on the teacher's Buffer/BufferWithTime shape (operator_utility.go)
// for the open/retire window bookkeeping; the ready-queue-gated-by-demand
// and the upstream-demand replenishment formula have no teacher analog,
// since the teacher's buffer had no backpressure to honor. The window list
// is guarded by internal/xsync.Mutex rather than a bare sync.Mutex because
// it is the one piece of state touched both from the upstream's drain loop
// (OnNext/OnComplete/OnError) and from the downstream's calls into Request,
// which can arrive on an unrelated goroutine.
type bufferOperator[T any, C Container[T]] struct {
	downstream Consumer[C]
	size       uint32
	skip       uint32
	factory    func() C

	upstreamSub Subscription

	mu           xsync.Mutex
	done         bool
	upstreamDone bool

	itemsSeen      uint64
	nextSeq        uint64
	windows        []*bufferWindow[T, C]
	ready          []C
	downDemand     demand
	windowsAsked   uint64 // cumulative windows ever authorized by downstream
	upstreamAsked  uint64 // cumulative items ever requested from upstream
}

var _ Subscription = (*bufferOperator[int, *SliceContainer[int]])(nil)

// Buffer groups upstream values into fixed-size, possibly overlapping or
// gapped windows (spec §4.5). size and skip must both be >= 1 and factory
// must not be nil; violations panic synchronously at construction, since
// they are programmer errors rather than stream errors (spec §7).
func Buffer[T any, C Container[T]](upstream Publisher[T], size uint32, skip uint32, factory func() C) Publisher[C] {
	if size == 0 {
		panic(newStreamError(IllegalArgument, ErrBufferWrongSize))
	}

	if skip == 0 {
		panic(newStreamError(IllegalArgument, ErrBufferWrongSkip))
	}

	if factory == nil {
		panic(newStreamError(NullArgument, ErrBufferNilFactory))
	}

	return publisherFunc[C](func(downstream Consumer[C]) {
		op := &bufferOperator[T, C]{
			downstream: downstream,
			size:       size,
			skip:       skip,
			factory:    factory,
			mu:         xsync.NewMutexWithLock(),
		}
		upstream.Subscribe(op)
	})
}

func (op *bufferOperator[T, C]) OnSubscribe(sub Subscription) {
	op.upstreamSub = sub
	op.downstream.OnSubscribe(op)
}

func (op *bufferOperator[T, C]) OnNext(v T) {
	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	if op.itemsSeen%uint64(op.skip) == 0 {
		container, err := op.openWindow()
		if err != nil {
			op.mu.Unlock()
			op.fail(err)

			return
		}

		op.windows = append(op.windows, &bufferWindow[T, C]{seq: op.nextSeq, container: container})
		op.nextSeq++
	}

	op.itemsSeen++

	kept := op.windows[:0]

	for _, w := range op.windows {
		w.container.Add(v)
		w.filled++

		if w.filled >= op.size {
			op.ready = append(op.ready, w.container)
		} else {
			kept = append(kept, w)
		}
	}

	op.windows = kept

	op.mu.Unlock()
	op.drainReady()
}

// openWindow runs the factory under panic protection and rejects a nil
// result, matching the construction-time rules applied at window-open time
// (spec §4.5).
func (op *bufferOperator[T, C]) openWindow() (C, error) {
	var container C

	err := runProtected(func() {
		container = op.factory()
	})
	if err != nil {
		return container, err
	}

	if isNilContainer(container) {
		return container, NewNullArgumentError("Buffer: factory returned a nil container")
	}

	return container, nil
}

// isNilContainer detects a nil factory result even when C is instantiated to
// a concrete pointer type: boxing a typed nil pointer into any produces a
// non-nil interface (the type descriptor is set, only the data word is nil),
// so a plain `any(container) == nil` comparison never fires. Only the kinds
// that can themselves be nil are inspected; everything else (e.g. a
// value-typed Container) cannot be nil and is reported as such.
func isNilContainer[C any](container C) bool {
	v := reflect.ValueOf(container)

	switch v.Kind() {
	case reflect.Invalid:
		// C itself was instantiated to an interface type and container held
		// a true nil interface value, which boxes to a nil any directly.
		return true
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}

func (op *bufferOperator[T, C]) OnComplete() {
	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	for _, w := range op.windows {
		op.ready = append(op.ready, w.container)
	}

	op.windows = nil
	op.upstreamDone = true
	op.mu.Unlock()
	op.drainReady()
}

func (op *bufferOperator[T, C]) OnError(err error) {
	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	op.done = true
	op.windows = nil
	op.ready = nil
	op.mu.Unlock()
	op.downstream.OnError(err)
}

func (op *bufferOperator[T, C]) fail(err error) {
	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	op.done = true
	op.windows = nil
	op.ready = nil
	op.mu.Unlock()

	if op.upstreamSub != nil {
		op.upstreamSub.Cancel()
	}

	op.downstream.OnError(err)
}

// drainReady delivers as many ready windows as current demand allows, then
// completes the stream once upstream has finished and every window has
// been delivered.
func (op *bufferOperator[T, C]) drainReady() {
	for {
		op.mu.Lock()

		if op.done || len(op.ready) == 0 || !op.downDemand.tryConsume() {
			if op.done {
				op.mu.Unlock()
				return
			}

			if len(op.ready) == 0 && op.upstreamDone && len(op.windows) == 0 {
				op.done = true
				op.mu.Unlock()
				op.downstream.OnComplete()

				return
			}

			op.mu.Unlock()

			return
		}

		next := op.ready[0]
		op.ready = op.ready[1:]
		op.mu.Unlock()
		op.downstream.OnNext(next)
	}
}

// Request implements Subscription for the downstream consumer. Demand is
// counted in emitted windows; upstream is asked for just enough additional
// items to fill the newly authorized windows. Window k (1-indexed) opens at
// item (k-1)*skip+1 and needs size items from there, so filling the first
// windowsAsked windows requires (windowsAsked-1)*skip+size items in total —
// equivalently windowsAsked*skip plus the overlap size-skip when windows
// overlap (spec §4.5's "upstream-outstanding-demand >= outstanding-windows *
// skip - partial-progress", generalized to the overlapping case).
func (op *bufferOperator[T, C]) Request(n uint64) {
	if n == 0 {
		op.mu.Lock()

		if op.done {
			op.mu.Unlock()
			return
		}

		op.done = true
		op.windows = nil
		op.ready = nil
		op.mu.Unlock()

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

	op.downDemand.add(n)
	op.windowsAsked = saturatingAdd(op.windowsAsked, n)

	var overlap uint64
	if op.size > op.skip {
		overlap = uint64(op.size - op.skip)
	}

	target := saturatingAdd(saturatingMul(op.windowsAsked, uint64(op.skip)), overlap)
	extra := saturatingSub(target, op.upstreamAsked)

	if extra > 0 {
		op.upstreamAsked = saturatingAdd(op.upstreamAsked, extra)
	}

	op.mu.Unlock()

	if extra > 0 && op.upstreamSub != nil {
		op.upstreamSub.Request(extra)
	}

	op.drainReady()
}

func (op *bufferOperator[T, C]) Cancel() {
	op.mu.Lock()

	if op.done {
		op.mu.Unlock()
		return
	}

	op.done = true
	op.windows = nil
	op.ready = nil
	op.mu.Unlock()

	if op.upstreamSub != nil {
		op.upstreamSub.Cancel()
	}
}

func (op *bufferOperator[T, C]) Dispose() {
	op.Cancel()
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return UnboundedDemand
	}

	return sum
}

func saturatingMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}

	product := a * b
	if product/a != b {
		return UnboundedDemand
	}

	return product
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}

	return a - b
}
