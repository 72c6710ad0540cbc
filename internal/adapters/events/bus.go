// Package events carries deployment events over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.trai.ch/stencil/internal/core/domain"
	"go.trai.ch/stencil/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DeploymentBus = (*Bus)(nil)

const (
	eventChannelBuffer = 100
	pingTimeout        = 5 * time.Second
)

// Bus publishes and receives deployment events on a Redis channel.
type Bus struct {
	client  *redis.Client
	channel string
	logger  ports.Logger
	events  chan domain.DeploymentEvent

	mu      sync.Mutex
	pubsub  *redis.PubSub
	stopped chan struct{}
	done    chan struct{}
}

// Connect creates a client for the Redis server at addr and verifies the connection.
func Connect(ctx context.Context, addr, channel string, logger ports.Logger) (*Bus, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEventBusConnectFailed.Error()), "addr", addr)
	}
	return NewBus(client, channel, logger), nil
}

// NewBus creates a bus on an existing client.
func NewBus(client *redis.Client, channel string, logger ports.Logger) *Bus {
	return &Bus{
		client:  client,
		channel: channel,
		logger:  logger,
		events:  make(chan domain.DeploymentEvent, eventChannelBuffer),
	}
}

// Start subscribes to the channel. It returns once the subscription is confirmed.
func (b *Bus) Start(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrWatcherStartFailed.Error()), "channel", b.channel)
	}

	b.mu.Lock()
	b.pubsub = pubsub
	b.stopped = make(chan struct{})
	b.done = make(chan struct{})
	b.mu.Unlock()

	go b.receive(pubsub.Channel(), b.stopped)
	return nil
}

func (b *Bus) receive(messages <-chan *redis.Message, stopped <-chan struct{}) {
	defer close(b.done)
	defer close(b.events)

	for msg := range messages {
		event, err := Decode([]byte(msg.Payload))
		if err != nil {
			b.logger.Warn(fmt.Sprintf("ignoring deployment event: %v", err))
			continue
		}
		select {
		case b.events <- event:
		case <-stopped:
			return
		}
	}
}

// Stop unsubscribes and waits until the event stream ended.
func (b *Bus) Stop() error {
	b.mu.Lock()
	pubsub, stopped, done := b.pubsub, b.stopped, b.done
	b.pubsub = nil
	b.mu.Unlock()
	if pubsub == nil {
		return nil
	}
	close(stopped)
	err := pubsub.Close()
	<-done
	return err
}

// Close releases the client.
func (b *Bus) Close() error {
	return b.client.Close()
}

// Events returns an iterator of deployment events.
func (b *Bus) Events() iter.Seq[domain.DeploymentEvent] {
	return func(yield func(domain.DeploymentEvent) bool) {
		for event := range b.events {
			if !yield(event) {
				return
			}
		}
	}
}

// Publish announces event on the channel.
func (b *Bus) Publish(ctx context.Context, event domain.DeploymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return zerr.Wrap(err, domain.ErrEventPublishFailed.Error())
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrEventPublishFailed.Error()), "channel", b.channel)
	}
	return nil
}

// Decode parses a deployment event payload. Events must be named.
func Decode(payload []byte) (domain.DeploymentEvent, error) {
	var event domain.DeploymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.DeploymentEvent{}, zerr.Wrap(err, domain.ErrEventDecodeFailed.Error())
	}
	if event.Name == "" {
		return domain.DeploymentEvent{}, zerr.With(domain.ErrEventDecodeFailed, "payload", string(payload))
	}
	return event, nil
}
