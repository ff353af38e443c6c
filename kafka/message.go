package kafka

import "time"

// Message is the payload handed to a registration's handler for each
// polled Kafka record. Its byte fields are valid only for the duration
// of the handler invocation: a handler that needs to retain data must
// copy it.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Payload   []byte
	Timestamp time.Time

	// UserData is whatever was passed to Pool.Register for this
	// registration, carried unchanged to every message.
	UserData any
}

// Handler processes one polled message. It is invoked synchronously from
// the registration's worker goroutine; handlers that reuse a producer
// must themselves be safe for the concurrent calls that implies when
// more than one registration is active.
type Handler func(msg Message, userData any)
