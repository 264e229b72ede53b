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

	"go.uber.org/zap"
)

var processLogger = mustBuildDefaultLogger()

func mustBuildDefaultLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a misconfigured encoder/sink,
		// which cannot happen with the default config.
		return zap.NewNop()
	}

	return logger
}

// SetLogger replaces the *zap.Logger backing the default
// UnhandledErrorHandler. Call it once during process startup.
func SetLogger(logger *zap.Logger) {
	processLogger = logger
}

func defaultUnhandledErrorLogger(ctx context.Context, err error) {
	processLogger.Warn("reactor: unhandled error", zap.Error(err))
}
