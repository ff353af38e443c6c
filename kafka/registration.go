package kafka

import (
	"context"

	"github.com/IBM/sarama"

	"github.com/trivago/netrunner/logx"
)

// RegistrationConfig describes one subscription: which brokers and
// topics to consume from under which consumer group. Per spec, a
// registration's topic set never changes after registration, and each
// registration runs in its own worker execution context.
type RegistrationConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	Security SecurityConfig
}

// brokerConsumerGroup is the subset of sarama.ConsumerGroup this package
// depends on, narrowed so tests can inject a fake broker.
type brokerConsumerGroup interface {
	Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error
	Errors() <-chan error
	Close() error
}

// Registration is one active (topics, group, handler) subscription and
// its worker execution context.
type Registration struct {
	cfg      RegistrationConfig
	handler  Handler
	userData any

	group  brokerConsumerGroup
	cancel context.CancelFunc
	done   chan struct{}
}

// groupHandler adapts a Registration's Handler to sarama's
// ConsumerGroupHandler interface.
type groupHandler struct {
	reg *Registration
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim polls claim.Messages() until the session's context ends.
// End-of-partition (the channel closing) and per-message handling never
// return an error up to sarama, matching spec's "on end-of-partition,
// silently continue" rule; a panic inside a handler is not recovered.
func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.reg.handler(Message{
				Topic:     msg.Topic,
				Partition: msg.Partition,
				Offset:    msg.Offset,
				Key:       msg.Key,
				Payload:   msg.Value,
				Timestamp: msg.Timestamp,
				UserData:  h.reg.userData,
			}, h.reg.userData)
			session.MarkMessage(msg, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// run drives the registration's poll-dispatch loop: sarama.ConsumerGroup
// requires re-entering Consume after every rebalance, so this loops until
// its context is cancelled by Stop.
func (r *Registration) run(ctx context.Context) {
	defer close(r.done)

	handler := &groupHandler{reg: r}
	for {
		if ctx.Err() != nil {
			return
		}
		if err := r.group.Consume(ctx, r.cfg.Topics, handler); err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.Warning.Printf("kafka: consume error for group %s: %v", r.cfg.GroupID, err)
		}
	}
}

// drainErrors logs asynchronous broker errors until the error channel
// closes (on group Close).
func (r *Registration) drainErrors() {
	for err := range r.group.Errors() {
		logx.Warning.Printf("kafka: broker error for group %s: %v", r.cfg.GroupID, err)
	}
}
