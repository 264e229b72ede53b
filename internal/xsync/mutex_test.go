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

package xsync

import (
	"sync"
	"testing"
)

func TestMutexWithLock_TryLock(t *testing.T) {
	t.Parallel()
	mutex := NewMutexWithLock()

	// Test TryLock on unlocked mutex
	if !mutex.TryLock() {
		t.Error("TryLock should return true on unlocked mutex")
	}

	// Test TryLock on locked mutex
	if mutex.TryLock() {
		t.Error("TryLock should return false on locked mutex")
	}

	// Unlock and test again
	mutex.Unlock()

	if !mutex.TryLock() {
		t.Error("TryLock should return true after unlock")
	}

	mutex.Unlock()
}

func TestMutexWithLock_LockUnlock(t *testing.T) {
	t.Parallel()
	mutex := NewMutexWithLock()

	var counter int

	// Test basic lock/unlock
	mutex.Lock()

	counter++

	mutex.Unlock()

	if counter != 1 {
		t.Error("Lock/Unlock should allow access to critical section")
	}
}

func TestMutexWithLock_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	mutex := NewMutexWithLock()

	var counter int

	var wg sync.WaitGroup

	numGoroutines := 100
	iterations := 1000

	// Start multiple goroutines that increment counter
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < iterations; j++ {
				mutex.Lock()

				counter++

				mutex.Unlock()
			}
		}()
	}

	wg.Wait()

	expected := numGoroutines * iterations
	if counter != expected {
		t.Errorf("Expected counter to be %d, got %d", expected, counter)
	}
}

func TestMutexEdgeCases(t *testing.T) {
	t.Parallel()

	mutex := NewMutexWithLock()

	// Test multiple rapid lock/unlock operations
	for i := 0; i < 1000; i++ {
		mutex.Lock()
		mutex.Unlock() //nolint:staticcheck
	}

	// Test TryLock in rapid succession
	for i := 0; i < 100; i++ {
		mutex.TryLock()
		mutex.Unlock()
	}

	// Test mixed operations
	for i := 0; i < 100; i++ {
		if mutex.TryLock() {
			mutex.Unlock()
		} else {
			mutex.Lock()
			mutex.Unlock() //nolint:staticcheck
		}
	}
}
