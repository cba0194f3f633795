// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func s() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// WithContext returns a sugared logger carrying trace_id and span_id when
// ctx holds a valid span.
func WithContext(ctx context.Context) *zap.SugaredLogger {
	l := s()
	if ctx == nil {
		return l
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}

func Info(args ...any) {
	s().Info(args...)
}

func Infof(format string, args ...any) {
	s().Infof(format, args...)
}

func Infow(msg string, keysAndValues ...any) {
	s().Infow(msg, keysAndValues...)
}

func Debug(args ...any) {
	s().Debug(args...)
}

func Debugf(format string, args ...any) {
	s().Debugf(format, args...)
}

func Debugw(msg string, keysAndValues ...any) {
	s().Debugw(msg, keysAndValues...)
}

func Warn(args ...any) {
	s().Warn(args...)
}

func Warnf(format string, args ...any) {
	s().Warnf(format, args...)
}

func Warnw(msg string, keysAndValues ...any) {
	s().Warnw(msg, keysAndValues...)
}

func Error(args ...any) {
	s().Error(args...)
}

func Errorf(format string, args ...any) {
	s().Errorf(format, args...)
}

func Errorw(msg string, keysAndValues ...any) {
	s().Errorw(msg, keysAndValues...)
}

func Fatalf(format string, args ...any) {
	s().Fatalf(format, args...)
}
