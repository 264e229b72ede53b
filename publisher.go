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

// publisherFunc adapts a plain function to the Publisher interface, the
// same way teacher's observableImpl wraps a `subscribe func(...)` field —
// generalized here to a bare function since Publisher.Subscribe takes the
// consumer directly and returns nothing (spec §4.1/§6), unlike the
// teacher's Subscribe which returns a Teardown.
type publisherFunc[T any] func(Consumer[T])

func (f publisherFunc[T]) Subscribe(consumer Consumer[T]) {
	f(consumer)
}

// rejectIllegalDemand enforces the request(0) contract shared by every
// Subscription implementation in this package (spec §3, §4.1): n == 0 is
// illegal and, unless the stream already ended, delivers a single
// IllegalDemand error and marks the Subscription terminated. It reports
// whether the caller should return immediately (either the demand was
// illegal, or the subscription was already done).
func rejectIllegalDemand(state *subscriptionState, n uint64, onError func(error)) bool {
	if n != 0 {
		return false
	}

	if state.isCancelled() || state.isTerminated() {
		return true
	}

	if state.terminateOnce() {
		onError(NewIllegalDemandError(0))
	}

	return true
}
