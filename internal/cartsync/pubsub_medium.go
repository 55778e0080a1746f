package cartsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"
)

const pubsubKeyAttribute = "key"

// PubSubMedium implements the broadcast medium on a Pub/Sub topic. Every
// context publishes to the shared topic and receives through its own
// subscription, which gives the at-least-once delivery the protocol assumes.
// The envelope's origin filtering absorbs the echo of a context's own writes
// arriving back through its subscription. Get serves the last value observed
// on this context, per-key last-value-wins.
type PubSubMedium struct {
	topic        *pubsub.Topic
	subscription *pubsub.Subscription

	mu   sync.Mutex
	last map[string]string
}

// NewPubSubMedium constructs a medium over an existing topic and a
// per-context subscription.
func NewPubSubMedium(topic *pubsub.Topic, subscription *pubsub.Subscription) (*PubSubMedium, error) {
	if topic == nil {
		return nil, errors.New("pubsub medium: topic is required")
	}
	if subscription == nil {
		return nil, errors.New("pubsub medium: subscription is required")
	}
	return &PubSubMedium{
		topic:        topic,
		subscription: subscription,
		last:         make(map[string]string),
	}, nil
}

// Get returns the most recent value observed for the key on this context.
func (m *PubSubMedium) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.last[key]
	return value, ok, nil
}

// Set publishes the value on the shared topic and waits for the server ack.
func (m *PubSubMedium) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	m.last[key] = value
	m.mu.Unlock()

	result := m.topic.Publish(ctx, &pubsub.Message{
		Data:       []byte(value),
		Attributes: map[string]string{pubsubKeyAttribute: key},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("pubsub medium: publish %s: %w", key, err)
	}
	return nil
}

// Subscribe starts receiving on the subscription in a background goroutine.
// The returned cancel function stops the receive loop.
func (m *PubSubMedium) Subscribe(handler func(key, value string)) (func(), error) {
	if handler == nil {
		return nil, errors.New("pubsub medium: handler is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		// Receive blocks until the context is cancelled; message handling
		// errors are surfaced per-message through nack/redelivery.
		_ = m.subscription.Receive(ctx, func(_ context.Context, msg *pubsub.Message) {
			key := msg.Attributes[pubsubKeyAttribute]
			if key == "" {
				msg.Ack()
				return
			}
			value := string(msg.Data)

			m.mu.Lock()
			m.last[key] = value
			m.mu.Unlock()

			handler(key, value)
			msg.Ack()
		})
	}()

	return func() {
		cancel()
		<-done
	}, nil
}
