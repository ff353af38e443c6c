package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConsumerGroup implements brokerConsumerGroup for tests: Consume
// blocks delivering synthetic claims to the handler until its context is
// cancelled, mimicking sarama's real re-entrant Consume contract.
type fakeConsumerGroup struct {
	mu        sync.Mutex
	messages  []*sarama.ConsumerMessage
	delivered bool
	errs      chan error
	closed    bool
}

func newFakeConsumerGroup(messages ...*sarama.ConsumerMessage) *fakeConsumerGroup {
	return &fakeConsumerGroup{messages: messages, errs: make(chan error)}
}

// Consume delivers its messages exactly once, then blocks until ctx ends
// on subsequent calls, mimicking a generation that never rebalances
// again after the initial claim.
func (f *fakeConsumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	f.mu.Lock()
	alreadyDelivered := f.delivered
	f.delivered = true
	f.mu.Unlock()

	if alreadyDelivered {
		<-ctx.Done()
		return nil
	}

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, len(f.messages))}
	for _, m := range f.messages {
		claim.messages <- m
	}
	close(claim.messages)

	session := &fakeSession{ctx: ctx}
	return handler.ConsumeClaim(session, claim)
}

func (f *fakeConsumerGroup) Errors() <-chan error { return f.errs }

func (f *fakeConsumerGroup) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.errs)
	}
	return nil
}

type fakeClaim struct {
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Topic() string                            { return "" }
func (c *fakeClaim) Partition() int32                          { return 0 }
func (c *fakeClaim) InitialOffset() int64                      { return 0 }
func (c *fakeClaim) HighWaterMarkOffset() int64                { return 0 }
func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage  { return c.messages }

type fakeSession struct {
	ctx context.Context
}

func (s *fakeSession) Claims() map[string][]int32                       { return nil }
func (s *fakeSession) MemberID() string                                 { return "fake" }
func (s *fakeSession) GenerationID() int32                              { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)          {}
func (s *fakeSession) Commit()                                          {}
func (s *fakeSession) ResetOffset(string, int32, int64, string)         {}
func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, metadata string) {}
func (s *fakeSession) Context() context.Context                         { return s.ctx }

func TestRegisterRejectsNoTopics(t *testing.T) {
	p := NewPool()
	_, err := p.Register(RegistrationConfig{GroupID: "g"}, func(Message, any) {}, nil)
	assert.Error(t, err)
}

func TestRegisterAfterStopFails(t *testing.T) {
	p := NewPool()
	p.Stop()
	_, err := p.Register(RegistrationConfig{GroupID: "g", Topics: []string{"a"}}, func(Message, any) {}, nil)
	assert.ErrorIs(t, err, ErrAlreadyStopped)
}

func TestFanInAcrossTopics(t *testing.T) {
	fake := newFakeConsumerGroup(
		&sarama.ConsumerMessage{Topic: "a", Key: []byte("k"), Value: []byte("v1")},
		&sarama.ConsumerMessage{Topic: "b", Key: []byte("k2"), Value: []byte("v2")},
	)
	orig := newConsumerGroup
	newConsumerGroup = func(brokers []string, groupID string, cfg *sarama.Config) (brokerConsumerGroup, error) {
		return fake, nil
	}
	defer func() { newConsumerGroup = orig }()

	var mu sync.Mutex
	var topics []string

	p := NewPool()
	_, err := p.Register(RegistrationConfig{GroupID: "g", Topics: []string{"a", "b"}}, func(msg Message, userData any) {
		mu.Lock()
		topics = append(topics, msg.Topic)
		mu.Unlock()
	}, "shared-data")
	require.NoError(t, err)

	p.Start()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(topics) == 2
	}, time.Second, 10*time.Millisecond)

	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, topics)
}

func TestStopIsIdempotent(t *testing.T) {
	fake := newFakeConsumerGroup()
	orig := newConsumerGroup
	newConsumerGroup = func(brokers []string, groupID string, cfg *sarama.Config) (brokerConsumerGroup, error) {
		return fake, nil
	}
	defer func() { newConsumerGroup = orig }()

	p := NewPool()
	_, err := p.Register(RegistrationConfig{GroupID: "g", Topics: []string{"a"}}, func(Message, any) {}, nil)
	require.NoError(t, err)

	p.Start()
	p.Stop()
	assert.NotPanics(t, func() { p.Stop() })
}
