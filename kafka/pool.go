// Package kafka implements the consumer worker pool: one execution
// context per registration, each running its own sarama.ConsumerGroup
// session loop and dispatching polled messages to a user handler.
// Partition assignment is delegated to the broker via consumer-group
// rebalancing, the modern equivalent of manual per-partition assignment.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"github.com/trivago/netrunner/logx"
)

// ErrAlreadyStopped is returned by Register after the pool has been
// stopped.
var ErrAlreadyStopped = errors.New("kafka: pool already stopped")

// newConsumerGroup is swapped out in tests to avoid dialing a real
// broker.
var newConsumerGroup = func(brokers []string, groupID string, cfg *sarama.Config) (brokerConsumerGroup, error) {
	return sarama.NewConsumerGroup(brokers, groupID, cfg)
}

// Pool owns every active Registration. Registrations may be added before
// Start; Stop is cooperative and idempotent.
type Pool struct {
	mu            sync.Mutex
	registrations []*Registration
	started       bool
	stopped       bool
}

// NewPool creates an empty worker pool.
func NewPool() *Pool {
	return &Pool{}
}

// Register creates a consumer-group subscription. The returned
// *Registration is inert until Start is called on the pool; if the pool
// has already been started, its worker starts immediately.
func (p *Pool) Register(cfg RegistrationConfig, handler Handler, userData any) (*Registration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil, ErrAlreadyStopped
	}
	if len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("kafka: registration requires at least one topic")
	}

	sc := sarama.NewConfig()
	sc.Consumer.Return.Errors = true
	// Offsets are never committed explicitly: auto-commit of marked
	// messages is the accepted trade-off, so a crash mid-handler can
	// redeliver or lose messages whose offsets were not yet committed.
	sc.Consumer.Offsets.AutoCommit.Enable = true
	if err := applySecurity(sc, cfg.Security); err != nil {
		return nil, err
	}

	group, err := newConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka: creating consumer group: %w", err)
	}

	reg := &Registration{
		cfg:      cfg,
		handler:  handler,
		userData: userData,
		group:    group,
		done:     make(chan struct{}),
	}

	p.registrations = append(p.registrations, reg)

	if p.started {
		p.startRegistration(reg)
	}
	return reg, nil
}

// Start launches every registration's worker execution context.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true
	for _, reg := range p.registrations {
		p.startRegistration(reg)
	}
}

func (p *Pool) startRegistration(reg *Registration) {
	ctx, cancel := context.WithCancel(context.Background())
	reg.cancel = cancel
	go reg.drainErrors()
	go reg.run(ctx)
	logx.Note.Printf("kafka: worker started for group %s, topics %v", reg.cfg.GroupID, reg.cfg.Topics)
}

// Stop cooperatively cancels every registration's worker context, waits
// for each to return, and closes the underlying consumer group. Safe to
// call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	regs := p.registrations
	p.mu.Unlock()

	for _, reg := range regs {
		if reg.cancel != nil {
			reg.cancel()
		}
	}
	for _, reg := range regs {
		<-reg.done
		if err := reg.group.Close(); err != nil {
			logx.Warning.Printf("kafka: closing consumer group %s: %v", reg.cfg.GroupID, err)
		}
	}
	logx.Note.Print("kafka: pool stopped")
}
