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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfValidate(t *testing.T) {
	c := &Conf{Output: "file"}
	assert.Error(t, c.Validate())

	c = &Conf{Output: "file", Path: t.TempDir()}
	require.NoError(t, c.Validate())
	assert.Equal(t, 100, c.RotateSize)
	assert.Equal(t, 10, c.RotateNum)
	assert.Equal(t, 7, c.KeepDays)

	assert.Error(t, (&Conf{Output: "kafka"}).Validate())
}

func TestNewLogAndSetLevel(t *testing.T) {
	conf := SetDefaults()
	conf.Level = "warn"
	l, err := NewLog(conf)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, zapcore.WarnLevel, GetLevel())

	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, GetLevel())
	SetLevel("bogus")
	assert.Equal(t, zapcore.InfoLevel, GetLevel())

	// no span in ctx, falls back to the plain logger
	assert.NotNil(t, WithContext(context.Background()))
	Infow("test message", "k", "v")
}

func TestNewLogFile(t *testing.T) {
	conf := SetDefaults()
	conf.Output = "file"
	conf.Path = t.TempDir()
	conf.Format = "json"
	_, err := NewLog(conf)
	require.NoError(t, err)
	Errorw("written to file", "path", conf.Path)
}
