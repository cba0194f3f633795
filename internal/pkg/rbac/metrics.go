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

package rbac

import (
	"github.com/go-arcade/gatehouse/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	backendBypass   = "bypass"
	backendFlat     = "flat"
	backendGranular = "granular"

	outcomeAllow = "allow"
	outcomeDeny  = "deny"
	outcomeError = "error"
)

// Metrics counts policy decisions.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the decision counter. A nil registry yields
// unregistered collectors, which is what tests want.
func NewMetrics(reg *metrics.Registry) (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "policy",
			Name:      "decisions_total",
			Help:      "Authorization decisions by backend and outcome.",
		}, []string{"backend", "outcome"}),
	}
	if reg != nil {
		if err := reg.Register(m.decisions); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(backend, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(backend, outcome).Inc()
}
