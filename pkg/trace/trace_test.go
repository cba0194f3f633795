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

package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Conf{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitUnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), Conf{Enabled: true, ExporterType: "zipkin"})
	assert.Error(t, err)
}

func TestSetDefaults(t *testing.T) {
	c := Conf{SampleRatio: 4}
	c.SetDefaults()
	assert.Equal(t, "gatehouse", c.ServiceName)
	assert.Equal(t, "none", c.ExporterType)
	assert.Equal(t, 1.0, c.SampleRatio)
}
