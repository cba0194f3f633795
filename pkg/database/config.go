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

package database

import (
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// SourceConfig is one database endpoint.
type SourceConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"` // postgres only
}

// Database holds pool settings, the primary source and optional read replicas.
type Database struct {
	Driver       string         `mapstructure:"driver"`
	OutPut       bool           `mapstructure:"output"`
	MaxOpenConns int            `mapstructure:"maxOpenConns"`
	MaxIdleConns int            `mapstructure:"maxIdleConns"`
	MaxLifetime  int            `mapstructure:"maxLifeTime"`
	MaxIdleTime  int            `mapstructure:"maxIdleTime"`
	Source       SourceConfig   `mapstructure:"source"`
	Replicas     []SourceConfig `mapstructure:"replicas"`
}

// SetDefaults fills zero values.
func (d *Database) SetDefaults() {
	if d.Driver == "" {
		d.Driver = DriverPostgres
	}
	if d.MaxOpenConns <= 0 {
		d.MaxOpenConns = 20
	}
	if d.MaxIdleConns <= 0 {
		d.MaxIdleConns = 5
	}
}

// GetConnMaxLifetime returns the max connection lifetime, 5 minutes by default.
func GetConnMaxLifetime(maxLifetime int) time.Duration {
	if maxLifetime > 0 {
		return time.Duration(maxLifetime) * time.Second
	}
	return 300 * time.Second
}

// GetConnMaxIdleTime returns the max idle time, 1 minute by default.
func GetConnMaxIdleTime(maxIdleTime int) time.Duration {
	if maxIdleTime > 0 {
		return time.Duration(maxIdleTime) * time.Second
	}
	return 60 * time.Second
}

func buildMySQLDSN(c SourceConfig) string {
	port := c.Port
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, port, c.DBName)
}

func buildPostgresDSN(c SourceConfig) string {
	port := c.Port
	if port == "" {
		port = "5432"
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.DBName, sslmode)
}

// dialector opens the source with the configured driver. Postgres goes
// through database/sql with lib/pq registered as "postgres".
func dialector(driver string, c SourceConfig) (gorm.Dialector, error) {
	if c.Host == "" || c.User == "" || c.DBName == "" {
		return nil, fmt.Errorf("incomplete database source config: host, user, and dbname are required")
	}
	switch driver {
	case DriverMySQL:
		return mysql.Open(buildMySQLDSN(c)), nil
	case DriverPostgres:
		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        buildPostgresDSN(c),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func buildDialectors(driver string, configs []SourceConfig) ([]gorm.Dialector, error) {
	dialectors := make([]gorm.Dialector, 0, len(configs))
	for _, c := range configs {
		d, err := dialector(driver, c)
		if err != nil {
			return nil, err
		}
		dialectors = append(dialectors, d)
	}
	return dialectors, nil
}
