// Package kafkaproducer wraps a single process-wide sarama.AsyncProducer:
// non-blocking enqueue, and a bounded flush on shutdown.
package kafkaproducer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/trivago/netrunner/kafka"
	"github.com/trivago/netrunner/logx"
)

// ErrAlreadyInitialised is returned by New when a producer has already
// been created for this process; spec requires at most one producer per
// Kafka client.
var ErrAlreadyInitialised = errors.New("kafkaproducer: already initialised")

// ErrClosed is returned by Produce once Close has completed.
var ErrClosed = errors.New("kafkaproducer: producer closed")

// flushTimeout bounds how long Close waits for in-flight messages before
// discarding whatever remains unacknowledged.
const flushTimeout = 10 * time.Second

// Acks selects the durability guarantee for produced messages.
type Acks int16

// Supported acks settings.
const (
	AcksNone   Acks = 0
	AcksLeader Acks = 1
	AcksAll    Acks = -1
)

// brokerProducer is the subset of sarama.AsyncProducer this package
// depends on, narrowed so tests can inject a fake.
type brokerProducer interface {
	Input() chan<- *sarama.ProducerMessage
	Errors() <-chan *sarama.ProducerError
	AsyncClose()
}

var initialised bool
var initMu sync.Mutex

// newAsyncProducer is swapped out in tests to avoid dialing a real
// broker.
var newAsyncProducer = func(brokers []string, cfg *sarama.Config) (brokerProducer, error) {
	return sarama.NewAsyncProducer(brokers, cfg)
}

// Producer enqueues messages onto a Kafka broker asynchronously. It is
// safe for concurrent use by any number of reactor handlers and Kafka
// worker goroutines.
type Producer struct {
	producer brokerProducer

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates the process's one Producer. A second call, without an
// intervening Close (or the test-only resetForTest), returns
// ErrAlreadyInitialised.
func New(brokers []string, acks Acks, security kafka.SecurityConfig) (*Producer, error) {
	initMu.Lock()
	defer initMu.Unlock()
	if initialised {
		return nil, ErrAlreadyInitialised
	}

	sc := sarama.NewConfig()
	sc.Producer.Return.Errors = true
	sc.Producer.Return.Successes = false
	sc.Producer.RequiredAcks = sarama.RequiredAcks(acks)
	if err := kafka.ApplySecurity(sc, security); err != nil {
		return nil, err
	}

	broker, err := newAsyncProducer(brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafkaproducer: creating producer: %w", err)
	}

	p := &Producer{producer: broker}
	p.wg.Add(1)
	go p.drainErrors()

	initialised = true
	return p, nil
}

// resetForTest clears the process-wide already-initialised guard; test
// helper only.
func resetForTest() {
	initMu.Lock()
	initialised = false
	initMu.Unlock()
}

func (p *Producer) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		logx.Warning.Printf("kafkaproducer: delivery failed for topic %s: %v", perr.Msg.Topic, perr.Err)
	}
}

// Produce enqueues a copy of payload for delivery to topic, keyed by
// key. Enqueue is non-blocking from the caller's perspective; the
// underlying client buffers and delivers asynchronously.
func (p *Producer) Produce(topic, key string, payload []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(append([]byte(nil), payload...)),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	p.producer.Input() <- msg
	return nil
}

// Close flushes in-flight messages with a 10-second cap; anything still
// undelivered at that point is discarded, per spec.
func (p *Producer) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.producer.AsyncClose()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timeout := time.NewTimer(flushTimeout)
	defer timeout.Stop()

	select {
	case <-done:
	case <-timeout.C:
		logx.Warning.Print("kafkaproducer: flush timed out, discarding undelivered messages")
	case <-ctx.Done():
		logx.Warning.Print("kafkaproducer: close cancelled, discarding undelivered messages")
	}

	initMu.Lock()
	initialised = false
	initMu.Unlock()
	return nil
}
