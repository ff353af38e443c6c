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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/trivago/netrunner/config"
	"github.com/trivago/netrunner/httpmsg"
	"github.com/trivago/netrunner/kafka"
	"github.com/trivago/netrunner/kafkaproducer"
	"github.com/trivago/netrunner/logx"
	"github.com/trivago/netrunner/metrics"
	"github.com/trivago/netrunner/reactor"
	"github.com/trivago/netrunner/route"
	"github.com/trivago/netrunner/staticfs"
	"github.com/trivago/netrunner/supervisor"
)

var (
	flagConfigFile  = flag.String("c", "", "YAML configuration file")
	flagLogLevel    = flag.Int("ll", int(logx.VerbosityNote), "log verbosity (0=error .. 3=debug)")
	flagMetricsPort = flag.Int("metrics-port", 0, "port to serve Prometheus metrics on, 0 to disable")
	flagVersion     = flag.Bool("v", false, "print version and exit")
)

const versionString = "netrunner v0.1.0"

func main() {
	flag.Parse()
	logx.Default()
	logx.SetVerbosity(logx.Verbosity(*flagLogLevel))

	if *flagVersion {
		fmt.Println(versionString)
		return
	}

	if *flagConfigFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Read(*flagConfigFile)
	if err != nil {
		logx.Error.Print(err)
		os.Exit(1)
	}

	table := route.New()
	registerDemoRoutes(table)

	react := reactor.New(reactor.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		MaxConnections: cfg.Server.MaxConnections,
		IdleTimeout:    cfg.Server.IdleTimeout,
		PollTimeout:    cfg.Server.PollTimeout,
		ServerIdentity: cfg.Server.ServerIdentity,
	}, table)

	if cfg.Static != nil {
		react.AddStatic(staticfs.New(cfg.Static.URLPrefix, cfg.Static.Directory, cfg.Static.DefaultFile))
	}

	reg := metrics.NewRegistry(&react.Stats)
	if *flagMetricsPort != 0 {
		reg.Start(*flagMetricsPort)
	}

	sup := supervisor.New()
	sup.SetHTTPServer(react)

	var pool *kafka.Pool
	var producer *kafkaproducer.Producer

	if len(cfg.Kafka.Brokers) > 0 && len(cfg.Kafka.Topics) > 0 {
		pool = kafka.NewPool()
		security := toKafkaSecurity(cfg.Kafka.Security)

		producer, err = kafkaproducer.New(cfg.Kafka.Brokers, kafkaproducer.AcksAll, security)
		if err != nil {
			logx.Error.Print(err)
			os.Exit(1)
		}

		_, err = pool.Register(kafka.RegistrationConfig{
			Brokers:  cfg.Kafka.Brokers,
			GroupID:  cfg.Kafka.GroupID,
			Topics:   cfg.Kafka.Topics,
			Security: security,
		}, func(msg kafka.Message, userData any) {
			reg.IncKafkaConsumed()
			logx.Debug.Printf("kafka: received %s/%d@%d: %s", msg.Topic, msg.Partition, msg.Offset, msg.Payload)
		}, nil)
		if err != nil {
			logx.Error.Print(err)
			os.Exit(1)
		}

		sup.SetKafkaPool(pool)
	}

	sup.WatchSignals()

	if err := sup.Run(); err != nil {
		logx.Error.Print(err)
	}

	if producer != nil {
		producer.Close(context.Background())
	}
	if *flagMetricsPort != 0 {
		reg.Stop(context.Background())
	}
}

// registerDemoRoutes wires the handful of sample routes this binary
// exposes out of the box; real deployments register their own routes
// before calling reactor.New.
func registerDemoRoutes(table *route.Table) {
	table.Register(route.MethodGet, "/api/status", reactor.Handler(func(req *httpmsg.Request, resp *httpmsg.Response, userData any) {
		resp.Status = 200
		resp.SetHeader("Content-Type", "application/json")
		resp.Body = []byte(`{"status":"ok"}`)
	}), nil)

	table.Register(route.MethodGet, "/api/users/:id", reactor.Handler(func(req *httpmsg.Request, resp *httpmsg.Response, userData any) {
		resp.Status = 200
		resp.SetHeader("Content-Type", "application/json")
		resp.Body = []byte(fmt.Sprintf(`{"id":%q}`, req.PathParams["id"]))
	}), nil)
}

func toKafkaSecurity(cfg *config.SecurityConfig) kafka.SecurityConfig {
	if cfg == nil {
		return kafka.SecurityConfig{}
	}

	var out kafka.SecurityConfig
	if cfg.TLS != nil {
		out.TLS = &kafka.TLSConfig{
			CAFile:      cfg.TLS.CAFile,
			CertFile:    cfg.TLS.CertFile,
			KeyFile:     cfg.TLS.KeyFile,
			KeyPassword: cfg.TLS.KeyPassword,
		}
	}
	if cfg.SASL != nil {
		out.SASL = &kafka.SASLConfig{
			Mechanism: kafka.SASLMechanism(cfg.SASL.Mechanism),
			Username:  cfg.SASL.Username,
			Password:  cfg.SASL.Password,
		}
	}
	return out
}
