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

package audit

import (
	"context"
	"time"

	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/go-arcade/gatehouse/pkg/metrics"
	"github.com/google/wire"
)

// ProviderSet provides the sink and binds it as the services' Recorder.
var ProviderSet = wire.NewSet(ProvideSink, wire.Bind(new(Recorder), new(*Sink)))

// ProvideSink builds the sink; the cleanup drains it. Start is left to the
// application so the CLI can use the sink without workers.
func ProvideSink(conf *Conf, store Store, reg *metrics.Registry) (*Sink, func(), error) {
	s, err := NewSink(store, *conf, reg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Stop(ctx); err != nil {
			log.Warnw("failed to stop audit sink", "error", err)
		}
	}
	return s, cleanup, nil
}
