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
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// ErrorKind classifies the failures described in spec §7.
type ErrorKind int8

const (
	IllegalArgument ErrorKind = iota
	NullArgument
	IllegalDemand
	UpstreamError
	OperatorError
	InnerError
)

func (k ErrorKind) String() string {
	switch k {
	case IllegalArgument:
		return "IllegalArgument"
	case NullArgument:
		return "NullArgument"
	case IllegalDemand:
		return "IllegalDemand"
	case UpstreamError:
		return "UpstreamError"
	case OperatorError:
		return "OperatorError"
	case InnerError:
		return "InnerError"
	}

	return "UnknownErrorKind"
}

// StreamError wraps a failure observed by the runtime with the ErrorKind
// that produced it, following the teacher's wrapped-error-plus-Unwrap
// convention (see errors.go's observerError/timeoutError/castError family).
type StreamError struct {
	Kind ErrorKind
	err  error
}

func newStreamError(kind ErrorKind, err error) *StreamError {
	return &StreamError{Kind: kind, err: err}
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("reactor.%s: %s", e.Kind, e.err.Error())
}

func (e *StreamError) Unwrap() error {
	return e.err
}

// NewIllegalArgumentError reports an invalid operator/source construction
// parameter. Raised synchronously at the call site, never via onError.
func NewIllegalArgumentError(format string, args ...any) *StreamError {
	return newStreamError(IllegalArgument, fmt.Errorf(format, args...))
}

// NewNullArgumentError reports a required argument that was nil/zero.
func NewNullArgumentError(format string, args ...any) *StreamError {
	return newStreamError(NullArgument, fmt.Errorf(format, args...))
}

// NewIllegalDemandError reports a request(n) with n <= 0.
func NewIllegalDemandError(n int64) *StreamError {
	return newStreamError(IllegalDemand, fmt.Errorf("request(%d): demand must be strictly positive", n))
}

// NewUpstreamError wraps a failure forwarded verbatim from a source.
func NewUpstreamError(err error) *StreamError {
	return newStreamError(UpstreamError, err)
}

// NewOperatorError wraps a panic or error raised by a user-supplied
// callback (fN/fE/fC/factory).
func NewOperatorError(err error) *StreamError {
	return newStreamError(OperatorError, err)
}

// NewInnerError wraps a failure raised by a flat-map-signal inner publisher.
func NewInnerError(err error) *StreamError {
	return newStreamError(InnerError, err)
}

// Sentinel errors for construction-time parameter checks, following the
// teacher's package-level errors.New("ro.<Op>: <msg>") convention.
var (
	ErrBufferWrongSize    = errors.New("reactor.Buffer: size must be greater than 0")
	ErrBufferWrongSkip    = errors.New("reactor.Buffer: skip must be greater than 0")
	ErrBufferNilFactory   = errors.New("reactor.Buffer: factory must not be nil")
	ErrRangeNegativeCount = errors.New("reactor.Range: count must be greater or equal to 0")
	ErrFromIterableNil    = errors.New("reactor.FromIterable: sequence must not be nil")
)

// recoverValueToError normalizes a recover() value into an error, mirroring
// the teacher's errors.go helper of the same name.
func recoverValueToError(e any) error {
	if err, ok := e.(error); ok {
		return err
	}

	return fmt.Errorf("reactor: recovered panic: %v", e)
}

// runProtected invokes fn, converting any panic into an *OperatorError
// instead of letting it unwind across the drain loop. Used at every
// callback boundary that calls into user-supplied code.
func runProtected(fn func()) (err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			fn()
			return nil
		},
		func(e any) {
			err = NewOperatorError(recoverValueToError(e))
		},
	)

	return err
}

// UnhandledErrorHandler receives errors with no live downstream to deliver
// them to. Its only source is a panic recovered from a task run by the
// reference Scheduler (see scheduler.go); signals and errors arriving after
// a stream has terminated are dropped without reaching it. The default
// implementation logs via zap (see logging.go).
var UnhandledErrorHandler = func(ctx context.Context, err error) {
	defaultUnhandledErrorLogger(ctx, err)
}

func reportUnhandled(ctx context.Context, err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			UnhandledErrorHandler(ctx, err)
			return nil
		},
		func(e any) {
			// The handler itself panicked; there is nowhere left to report
			// this, so it is dropped rather than re-panicking the drain loop.
			_ = recoverValueToError(e)
		},
	)
}
