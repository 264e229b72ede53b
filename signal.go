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

import "fmt"

// Kind identifies which variant of a Signal is populated.
type Kind uint8

const (
	KindNext Kind = iota
	KindComplete
	KindError
)

// String returns the human-readable name of a Kind.
func (k Kind) String() string {
	switch k {
	case KindNext:
		return "Next"
	case KindComplete:
		return "Complete"
	case KindError:
		return "Error"
	}

	panic("reactor: unknown signal kind")
}

// Signal is the tagged variant delivered from a Publisher to a Consumer:
// exactly one of Next, Complete, or Error per value. Complete and Error are
// terminal; at most one terminal Signal is ever delivered for a given
// Subscription.
type Signal[T any] struct {
	Kind  Kind
	Value T
	Err   error
}

func NewSignalNext[T any](value T) Signal[T] {
	return Signal[T]{Kind: KindNext, Value: value}
}

func NewSignalComplete[T any]() Signal[T] {
	return Signal[T]{Kind: KindComplete}
}

func NewSignalError[T any](err error) Signal[T] {
	return Signal[T]{Kind: KindError, Err: err}
}

// IsTerminal reports whether the signal ends the stream.
func (s Signal[T]) IsTerminal() bool {
	return s.Kind != KindNext
}

func (s Signal[T]) String() string {
	switch s.Kind {
	case KindNext:
		return fmt.Sprintf("Next(%+v)", s.Value)
	case KindComplete:
		return "Complete()"
	case KindError:
		if s.Err == nil {
			return "Error(nil)"
		}

		return fmt.Sprintf("Error(%s)", s.Err.Error())
	}

	panic("reactor: unknown signal kind")
}

// deliver dispatches a Signal to the three consumer callbacks and reports
// whether the stream may continue (false once a terminal signal fires).
func deliver[T any](s Signal[T], onNext func(T), onComplete func(), onError func(error)) bool {
	switch s.Kind {
	case KindNext:
		onNext(s.Value)
		return true
	case KindComplete:
		onComplete()
		return false
	case KindError:
		onError(s.Err)
		return false
	}

	panic("reactor: unknown signal kind")
}
