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

package http

import (
	"fmt"
	"time"
)

// Http holds the listener configuration of the API server.
type Http struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	AccessLog       bool     `mapstructure:"accessLog"`
	ExposeMetrics   bool     `mapstructure:"exposeMetrics"`
	BodyLimit       int      `mapstructure:"bodyLimit"` // bytes
	ReadTimeout     int      `mapstructure:"readTimeout"`
	WriteTimeout    int      `mapstructure:"writeTimeout"`
	IdleTimeout     int      `mapstructure:"idleTimeout"`
	ShutdownTimeout int      `mapstructure:"shutdownTimeout"`
	AllowOrigins    []string `mapstructure:"allowOrigins"`
	TLS             TLS      `mapstructure:"tls"`
}

type TLS struct {
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// SetDefaults fills zero values.
func (h *Http) SetDefaults() {
	if h.Host == "" {
		h.Host = "0.0.0.0"
	}
	if h.Port == 0 {
		h.Port = 8080
	}
	if h.BodyLimit <= 0 {
		h.BodyLimit = 4 * 1024 * 1024
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 15
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 15
	}
	if h.IdleTimeout <= 0 {
		h.IdleTimeout = 60
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 30
	}
}

func (h *Http) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

func (h *Http) ReadTimeoutDuration() time.Duration {
	return time.Duration(h.ReadTimeout) * time.Second
}

func (h *Http) WriteTimeoutDuration() time.Duration {
	return time.Duration(h.WriteTimeout) * time.Second
}

func (h *Http) IdleTimeoutDuration() time.Duration {
	return time.Duration(h.IdleTimeout) * time.Second
}

func (h *Http) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(h.ShutdownTimeout) * time.Second
}
