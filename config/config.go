// Copyright 2015 trivago GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the YAML settings for the HTTP reactor, the static
// file server, and the Kafka runtime.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the top level settings document.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Static  *StaticConfig `yaml:"static,omitempty"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	LogPath string        `yaml:"logPath"`
}

// ServerConfig configures the reactor.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	MaxConnections  int           `yaml:"maxConnections"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	PollTimeout     time.Duration `yaml:"pollTimeout"`
	ServerIdentity  string        `yaml:"serverIdentity"`
}

// StaticConfig configures the static file server.
type StaticConfig struct {
	URLPrefix   string `yaml:"urlPrefix"`
	Directory   string `yaml:"directory"`
	DefaultFile string `yaml:"defaultFile"`
}

// KafkaConfig configures the consumer worker pool and the shared producer.
type KafkaConfig struct {
	Brokers  []string        `yaml:"brokers"`
	GroupID  string          `yaml:"groupId"`
	Topics   []string        `yaml:"topics,omitempty"`
	Security *SecurityConfig `yaml:"security,omitempty"`
}

// SecurityConfig configures SASL/TLS for the Kafka connection.
type SecurityConfig struct {
	TLS  *TLSConfig  `yaml:"tls,omitempty"`
	SASL *SASLConfig `yaml:"sasl,omitempty"`
}

// TLSConfig names certificate material for the Kafka TLS transport.
type TLSConfig struct {
	CAFile      string `yaml:"caFile"`
	CertFile    string `yaml:"certFile"`
	KeyFile     string `yaml:"keyFile"`
	KeyPassword string `yaml:"keyPassword,omitempty"`
}

// SASLConfig names the SASL mechanism and credentials for the Kafka broker.
type SASLConfig struct {
	Mechanism string `yaml:"mechanism"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// defaults applied to zero-valued fields after parsing, matching the
// teacher's habit of filling in sane defaults rather than requiring every
// knob in the config file.
func (c *Config) defaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = 1000
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.PollTimeout == 0 {
		c.Server.PollTimeout = 1000 * time.Millisecond
	}
	if c.Server.ServerIdentity == "" {
		c.Server.ServerIdentity = "netrunner"
	}
	if c.Static != nil && c.Static.DefaultFile == "" {
		c.Static.DefaultFile = "index.html"
	}
}

// Read parses a YAML config file at path into a Config.
func Read(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := new(Config)
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.defaults()
	return cfg, nil
}
