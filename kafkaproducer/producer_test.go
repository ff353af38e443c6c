package kafkaproducer

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trivago/netrunner/kafka"
)

type fakeProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{
		input:  make(chan *sarama.ProducerMessage, 16),
		errors: make(chan *sarama.ProducerError),
	}
}

func (f *fakeProducer) Input() chan<- *sarama.ProducerMessage    { return f.input }
func (f *fakeProducer) Errors() <-chan *sarama.ProducerError     { return f.errors }
func (f *fakeProducer) AsyncClose()                              { close(f.errors) }

func withFakeProducer(t *testing.T, fake *fakeProducer) *Producer {
	t.Helper()
	resetForTest()
	orig := newAsyncProducer
	newAsyncProducer = func(brokers []string, cfg *sarama.Config) (brokerProducer, error) {
		return fake, nil
	}
	t.Cleanup(func() { newAsyncProducer = orig; resetForTest() })

	p, err := New([]string{"broker:9092"}, AcksAll, kafka.SecurityConfig{})
	require.NoError(t, err)
	return p
}

func TestProduceEnqueuesMessage(t *testing.T) {
	fake := newFakeProducer()
	p := withFakeProducer(t, fake)

	require.NoError(t, p.Produce("topic-a", "key1", []byte("payload")))

	msg := <-fake.input
	assert.Equal(t, "topic-a", msg.Topic)
	keyBytes, _ := msg.Key.Encode()
	assert.Equal(t, "key1", string(keyBytes))
}

func TestSecondProducerFailsAlreadyInitialised(t *testing.T) {
	fake := newFakeProducer()
	withFakeProducer(t, fake)

	_, err := New([]string{"broker:9092"}, AcksAll, kafka.SecurityConfig{})
	assert.ErrorIs(t, err, ErrAlreadyInitialised)
}

func TestProduceAfterCloseFails(t *testing.T) {
	fake := newFakeProducer()
	p := withFakeProducer(t, fake)

	require.NoError(t, p.Close(context.Background()))
	err := p.Produce("topic-a", "key1", []byte("payload"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	fake := newFakeProducer()
	p := withFakeProducer(t, fake)

	require.NoError(t, p.Close(context.Background()))
	assert.NoError(t, p.Close(context.Background()))
}

func TestCloseWithDeadlineContextSucceeds(t *testing.T) {
	fake := newFakeProducer()
	p := withFakeProducer(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Close(ctx)
	assert.NoError(t, err)
}
