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

// UnboundedDemand is the sentinel value meaning "no limit on further
// requests" (spec §3, §9: "reserved sentinel u64::MAX").
const UnboundedDemand uint64 = ^uint64(0)

// demand is a saturating atomic 64-bit counter, incremented by downstream
// request(n) calls and decremented by one per delivered onNext. It never
// underflows below zero and never overflows past UnboundedDemand.
type demand struct {
	n uint64
}

// add folds extra into the counter with saturation at UnboundedDemand.
// Returns the counter's value before the add.
func (d *demand) add(extra uint64) uint64 {
	for {
		cur := atomic.LoadUint64(&d.n)
		if cur == UnboundedDemand {
			return cur
		}

		next := cur + extra
		if next < cur || next == UnboundedDemand { // overflow, or landed exactly on the sentinel
			next = UnboundedDemand
		}

		if atomic.CompareAndSwapUint64(&d.n, cur, next) {
			return cur
		}
	}
}

// tryConsume decrements the counter by one if at least one unit is
// available (or the counter is unbounded, which is never decremented).
// Returns whether a unit was consumed.
func (d *demand) tryConsume() bool {
	for {
		cur := atomic.LoadUint64(&d.n)
		if cur == UnboundedDemand {
			return true
		}

		if cur == 0 {
			return false
		}

		if atomic.CompareAndSwapUint64(&d.n, cur, cur-1) {
			return true
		}
	}
}

// consumeUpTo decrements the counter by min(n, available) and reports how
// many units were actually consumed. An unbounded counter is left
// unchanged and reports all n as consumed.
func (d *demand) consumeUpTo(n uint64) uint64 {
	for {
		cur := atomic.LoadUint64(&d.n)
		if cur == UnboundedDemand {
			return n
		}

		take := n
		if take > cur {
			take = cur
		}

		if atomic.CompareAndSwapUint64(&d.n, cur, cur-take) {
			return take
		}
	}
}

func (d *demand) get() uint64 {
	return atomic.LoadUint64(&d.n)
}

func (d *demand) isPositive() bool {
	return d.get() > 0
}
