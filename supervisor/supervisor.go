// Package supervisor binds an optional HTTP server and an optional Kafka
// runtime into a single foreground process: Kafka-then-HTTP start order,
// HTTP-then-Kafka stop order, and cooperative shutdown on SIGINT/SIGTERM.
package supervisor

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trivago/netrunner/logx"
)

// HTTPServer is the narrow collaborator interface the supervisor drives;
// *reactor.Reactor satisfies it without this package importing reactor.
type HTTPServer interface {
	Run() error
	Stop() error
}

// KafkaRuntime is the narrow collaborator interface the supervisor drives
// for the Kafka side; *kafka.Pool satisfies it without this package
// importing kafka.
type KafkaRuntime interface {
	Start()
	Stop()
}

// ErrNothingBound is returned by Run when neither an HTTP server nor a
// Kafka runtime has been configured.
var ErrNothingBound = errors.New("supervisor: no HTTP server or Kafka runtime configured")

// idlePollInterval is how often the supervisor checks its running flag
// when only a Kafka runtime is bound (no blocking HTTP loop to ride on).
const idlePollInterval = time.Second

// Supervisor is the top-level lifecycle coordinator. Use SetHTTPServer
// and/or SetKafkaPool before calling Run.
type Supervisor struct {
	http  HTTPServer
	kafka KafkaRuntime

	healthCheck   func() error
	healthPeriod  time.Duration

	running atomic.Bool
	stopped atomic.Bool
	stopOnce sync.Once
}

// New creates an unconfigured Supervisor.
func New() *Supervisor {
	return &Supervisor{}
}

// SetHTTPServer attaches the HTTP server collaborator.
func (s *Supervisor) SetHTTPServer(h HTTPServer) { s.http = h }

// SetKafkaPool attaches the Kafka runtime collaborator.
func (s *Supervisor) SetKafkaPool(k KafkaRuntime) { s.kafka = k }

// SetHealthCheck installs an optional periodic readiness callback, driven
// off the same idle-poll tick used when only Kafka is bound. A non-nil
// error from fn is logged but never stops the supervisor on its own.
func (s *Supervisor) SetHealthCheck(fn func() error, interval time.Duration) {
	s.healthCheck = fn
	s.healthPeriod = interval
}

// Run starts the configured collaborators (Kafka before HTTP) and blocks
// until Stop is called or, when only Kafka is bound, forever until
// signalled externally via Stop.
func (s *Supervisor) Run() error {
	if s.http == nil && s.kafka == nil {
		return ErrNothingBound
	}

	s.running.Store(true)

	if s.kafka != nil {
		logx.Note.Print("supervisor: starting kafka runtime")
		s.kafka.Start()
	}

	if s.http != nil {
		logx.Note.Print("supervisor: starting http server")
		if s.kafka == nil {
			return s.runHTTPOnly()
		}
		// Kafka workers are already self-driven in their own execution
		// contexts; the HTTP server's blocking loop becomes the main
		// thread's event loop.
		return s.http.Run()
	}

	s.idleUntilStopped()
	return nil
}

func (s *Supervisor) runHTTPOnly() error {
	return s.http.Run()
}

// idleUntilStopped is the Kafka-only event loop: the main thread has
// nothing blocking to ride on, so it polls its running flag once per
// second, per spec, running the optional health check on the same tick.
func (s *Supervisor) idleUntilStopped() {
	ticker := time.NewTicker(idlePollInterval)
	defer ticker.Stop()

	lastHealth := time.Now()
	for s.running.Load() {
		<-ticker.C
		if s.healthCheck != nil && time.Since(lastHealth) >= s.healthPeriod {
			if err := s.healthCheck(); err != nil {
				logx.Warning.Printf("supervisor: health check failed: %v", err)
			}
			lastHealth = time.Now()
		}
	}
}

// Stop flips the running flag and tears down HTTP before Kafka: the
// inbound HTTP surface closes first so no new request enters a draining
// system. Idempotent.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		s.stopped.Store(true)

		if s.http != nil {
			logx.Note.Print("supervisor: stopping http server")
			if err := s.http.Stop(); err != nil {
				logx.Warning.Printf("supervisor: http stop: %v", err)
			}
		}
		if s.kafka != nil {
			logx.Note.Print("supervisor: stopping kafka runtime")
			s.kafka.Stop()
		}
	})
}
