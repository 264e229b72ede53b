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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemandAddAndConsume(t *testing.T) {
	t.Parallel()

	var d demand

	d.add(3)
	assert.Equal(t, uint64(3), d.get())
	assert.True(t, d.isPositive())

	assert.True(t, d.tryConsume())
	assert.True(t, d.tryConsume())
	assert.True(t, d.tryConsume())
	assert.Equal(t, uint64(0), d.get())
	assert.False(t, d.tryConsume())
}

func TestDemandSaturatesAtUnbounded(t *testing.T) {
	t.Parallel()

	var d demand

	d.add(UnboundedDemand - 1)
	d.add(10)
	assert.Equal(t, UnboundedDemand, d.get())

	// Unbounded demand never decrements.
	assert.True(t, d.tryConsume())
	assert.Equal(t, UnboundedDemand, d.get())
}

func TestDemandConsumeUpTo(t *testing.T) {
	t.Parallel()

	var d demand

	d.add(5)
	assert.Equal(t, uint64(3), d.consumeUpTo(3))
	assert.Equal(t, uint64(2), d.consumeUpTo(10))
	assert.Equal(t, uint64(0), d.get())
}

func TestDemandConcurrentAddIsRaceFree(t *testing.T) {
	t.Parallel()

	var d demand

	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			d.add(1)
		}()
	}

	wg.Wait()

	assert.Equal(t, uint64(100), d.get())
}
