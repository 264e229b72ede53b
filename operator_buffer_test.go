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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func windowItems(c *SliceContainer[int64]) []int64 {
	return c.Items
}

// TestBufferLargerSkipGapsBetweenWindows is scenario 5 (spec §8):
// range(1,10).buffer(2, 3) emits [[1,2], [4,5], [7,8], [10]] then onComplete.
func TestBufferLargerSkipGapsBetweenWindows(t *testing.T) {
	t.Parallel()

	c := newRecordingConsumer[*SliceContainer[int64]]()
	Buffer[int64, *SliceContainer[int64]](Range(1, 10), 2, 3, NewSliceContainer[int64]).Subscribe(c)
	c.Request(UnboundedDemand)

	require.NotNil(t, c.Terminal())
	assert.Equal(t, KindComplete, c.Terminal().Kind)

	got := c.Values()
	require.Len(t, got, 4)
	assert.Equal(t, []int64{1, 2}, windowItems(got[0]))
	assert.Equal(t, []int64{4, 5}, windowItems(got[1]))
	assert.Equal(t, []int64{7, 8}, windowItems(got[2]))
	assert.Equal(t, []int64{10}, windowItems(got[3]))
}

// TestBufferSmallerSkipOverlapsAndEventuallyDeliversAll is scenario 6: a
// sliding buffer(3, 1) over range(1,10) yields 10 overlapping windows once
// enough demand has been granted across several Request calls.
func TestBufferSmallerSkipOverlapsAndEventuallyDeliversAll(t *testing.T) {
	t.Parallel()

	c := newRecordingConsumer[*SliceContainer[int64]]()
	Buffer[int64, *SliceContainer[int64]](Range(1, 10), 3, 1, NewSliceContainer[int64]).Subscribe(c)

	for _, n := range []uint64{2, 2, 4, 1, 1} {
		c.Request(n)
	}

	got := c.Values()
	require.Len(t, got, 10)

	assert.Equal(t, []int64{1, 2, 3}, windowItems(got[0]))
	assert.Equal(t, []int64{2, 3, 4}, windowItems(got[1]))
	assert.Equal(t, []int64{8, 9, 10}, windowItems(got[7]))
	assert.Equal(t, []int64{9, 10}, windowItems(got[8]))
	assert.Equal(t, []int64{10}, windowItems(got[9]))

	require.NotNil(t, c.Terminal())
	assert.Equal(t, KindComplete, c.Terminal().Kind)
}

// TestBufferNilFactoryErrors is scenario 7: buffer(2, 1, () -> null) on
// range(1,10) delivers no values, then onError(NullArgument).
func TestBufferNilFactoryErrors(t *testing.T) {
	t.Parallel()

	c := newRecordingConsumer[*SliceContainer[int64]]()
	Buffer[int64, *SliceContainer[int64]](Range(1, 10), 2, 1, func() *SliceContainer[int64] { return nil }).Subscribe(c)
	c.Request(UnboundedDemand)

	assert.Empty(t, c.Values())
	require.NotNil(t, c.Terminal())
	assert.Equal(t, KindError, c.Terminal().Kind)

	var streamErr *StreamError
	require.ErrorAs(t, c.Terminal().Err, &streamErr)
	assert.Equal(t, NullArgument, streamErr.Kind)
}

// TestBufferFactoryPanicWrapsAsOperatorError is scenario 8:
// buffer(2, 1, () -> throw RTE("forced failure")) on range(1,10) delivers
// onError with kind OperatorError wrapping "forced failure".
func TestBufferFactoryPanicWrapsAsOperatorError(t *testing.T) {
	t.Parallel()

	c := newRecordingConsumer[*SliceContainer[int64]]()
	Buffer[int64, *SliceContainer[int64]](Range(1, 10), 2, 1, func() *SliceContainer[int64] {
		panic(errors.New("forced failure"))
	}).Subscribe(c)
	c.Request(UnboundedDemand)

	require.NotNil(t, c.Terminal())
	assert.Equal(t, KindError, c.Terminal().Kind)

	var streamErr *StreamError
	require.ErrorAs(t, c.Terminal().Err, &streamErr)
	assert.Equal(t, OperatorError, streamErr.Kind)
	assert.Contains(t, c.Terminal().Err.Error(), "forced failure")
}

// TestBufferExactNonOverlappingLaw is the round-trip law from spec §8:
// buffer(n, n) applied to range(a, k*n) yields exactly k windows of size n.
func TestBufferExactNonOverlappingLaw(t *testing.T) {
	t.Parallel()

	c := newRecordingConsumer[*SliceContainer[int64]]()
	Buffer[int64, *SliceContainer[int64]](Range(1, 12), 3, 3, NewSliceContainer[int64]).Subscribe(c)
	c.Request(UnboundedDemand)

	got := c.Values()
	require.Len(t, got, 4)

	for _, w := range got {
		assert.Len(t, windowItems(w), 3)
	}

	assert.Equal(t, []int64{1, 2, 3}, windowItems(got[0]))
	assert.Equal(t, []int64{10, 11, 12}, windowItems(got[3]))
}

func TestBufferConstructionValidation(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		Buffer[int64, *SliceContainer[int64]](Range(1, 10), 0, 1, NewSliceContainer[int64])
	})
	assert.Panics(t, func() {
		Buffer[int64, *SliceContainer[int64]](Range(1, 10), 1, 0, NewSliceContainer[int64])
	})
	assert.Panics(t, func() {
		Buffer[int64, *SliceContainer[int64]](Range(1, 10), 1, 1, nil)
	})
}

func TestBufferErrorDiscardsOpenWindows(t *testing.T) {
	t.Parallel()

	boom := errors.New("upstream boom")
	upstream := seqThenErrPublisher{values: []int{1, 2}, err: boom}

	c := newRecordingConsumer[*SliceContainer[int]]()
	Buffer[int, *SliceContainer[int]](upstream, 5, 5, NewSliceContainer[int]).Subscribe(c)
	c.Request(UnboundedDemand)

	assert.Empty(t, c.Values())
	require.NotNil(t, c.Terminal())
	assert.Equal(t, KindError, c.Terminal().Kind)
	assert.ErrorIs(t, c.Terminal().Err, boom)
}
