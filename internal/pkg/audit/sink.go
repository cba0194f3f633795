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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/gatehouse/pkg/id"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/go-arcade/gatehouse/pkg/metrics"
	"github.com/go-arcade/gatehouse/pkg/safe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron"
)

const writeTimeout = 5 * time.Second

// Conf is the audit section.
type Conf struct {
	Buffer        int    `mapstructure:"buffer"`
	Workers       int    `mapstructure:"workers"`
	RetentionDays int    `mapstructure:"retentionDays"`
	RetentionCron string `mapstructure:"retentionCron"` // six fields, seconds first
}

func (c *Conf) SetDefaults() {
	if c.Buffer <= 0 {
		c.Buffer = 1024
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.RetentionCron == "" {
		c.RetentionCron = "0 30 3 * * *"
	}
}

func (c *Conf) Validate() error {
	if c.RetentionDays < 0 {
		return errors.New("audit.retentionDays must not be negative")
	}
	if c.RetentionDays > 0 {
		if _, err := cron.Parse(c.RetentionCron); err != nil {
			return fmt.Errorf("invalid audit.retentionCron: %w", err)
		}
	}
	return nil
}

// Sink writes audit entries in the background. Record never blocks; when
// the queue is full the entry is dropped and counted.
type Sink struct {
	store Store
	conf  Conf
	now   func() time.Time

	queue chan *Record
	wg    sync.WaitGroup
	cron  *cron.Cron

	mu      sync.Mutex
	started bool
	stopped bool

	recorded prometheus.Counter
	dropped  prometheus.Counter
	failed   prometheus.Counter
}

var _ Recorder = (*Sink)(nil)

func NewSink(store Store, conf Conf, reg *metrics.Registry) (*Sink, error) {
	conf.SetDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	s := &Sink{
		store: store,
		conf:  conf,
		now:   time.Now,
		queue: make(chan *Record, conf.Buffer),
		recorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metrics.Namespace, Subsystem: "audit", Name: "recorded_total",
			Help: "Audit entries written.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metrics.Namespace, Subsystem: "audit", Name: "dropped_total",
			Help: "Audit entries dropped because the queue was full.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metrics.Namespace, Subsystem: "audit", Name: "failed_total",
			Help: "Audit entries that could not be written.",
		}),
	}
	if reg != nil {
		if err := reg.Register(s.recorded, s.dropped, s.failed); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Start launches the workers and, when retention is enabled, the pruning job.
func (s *Sink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("audit sink already started")
	}
	for i := 0; i < s.conf.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	if s.conf.RetentionDays > 0 {
		s.cron = cron.New()
		if err := s.cron.AddFunc(s.conf.RetentionCron, s.pruneJob); err != nil {
			return fmt.Errorf("failed to schedule audit retention: %w", err)
		}
		s.cron.Start()
	}
	s.started = true
	log.Infow("audit sink started", "workers", s.conf.Workers, "buffer", s.conf.Buffer, "retentionDays", s.conf.RetentionDays)
	return nil
}

// Stop closes the queue and waits for the workers to drain it.
func (s *Sink) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.queue)
	s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Infow("audit sink stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit sink stop: %w", ctx.Err())
	}
}

// Record enqueues e. Failures are logged, never returned.
func (s *Sink) Record(ctx context.Context, e Entry) {
	r, err := s.toRecord(e)
	if err != nil {
		log.WithContext(ctx).Errorw("failed to build audit record", "action", e.Action, "error", err)
		s.failed.Inc()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		log.WithContext(ctx).Warnw("audit sink stopped, dropping entry", "action", e.Action)
		s.dropped.Inc()
		return
	}
	select {
	case s.queue <- r:
	default:
		log.WithContext(ctx).Warnw("audit queue full, dropping entry", "action", e.Action, "actor", e.ActorId)
		s.dropped.Inc()
	}
}

func (s *Sink) toRecord(e Entry) (*Record, error) {
	meta := "{}"
	if len(e.Meta) > 0 {
		data, err := sonic.MarshalString(e.Meta)
		if err != nil {
			return nil, fmt.Errorf("failed to encode audit meta: %w", err)
		}
		meta = data
	}
	r := &Record{
		Id:        id.GetUlid(),
		ActorId:   e.ActorId,
		Action:    e.Action,
		MetaJSON:  meta,
		CreatedAt: s.now(),
	}
	if e.TargetId != "" {
		target := e.TargetId
		r.TargetId = &target
	}
	return r, nil
}

func (s *Sink) worker(n int) {
	defer s.wg.Done()
	for r := range s.queue {
		safe.Do(func() { s.write(n, r) })
	}
}

func (s *Sink) write(worker int, r *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.store.Insert(ctx, r); err != nil {
		s.failed.Inc()
		log.Errorw("failed to write audit record", "worker", worker, "action", r.Action, "actor", r.ActorId, "error", err)
		return
	}
	s.recorded.Inc()
}

// List serves the audit log endpoint.
func (s *Sink) List(ctx context.Context, f Filter) ([]Record, int64, error) {
	f.Normalize()
	return s.store.List(ctx, f)
}

// Prune deletes rows older than the retention window.
func (s *Sink) Prune(ctx context.Context) (int64, error) {
	if s.conf.RetentionDays <= 0 {
		return 0, nil
	}
	before := s.now().AddDate(0, 0, -s.conf.RetentionDays)
	n, err := s.store.DeleteBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit logs: %w", err)
	}
	return n, nil
}

func (s *Sink) pruneJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := s.Prune(ctx)
	if err != nil {
		log.Errorw("audit retention failed", "error", err)
		return
	}
	log.Infow("audit retention done", "deleted", n, "days", s.conf.RetentionDays)
}
