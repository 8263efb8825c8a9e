package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/CloudBedrock/cribops-wp-kit-sub000/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

// RedisBus is a typed event bus over Redis Pub/Sub. Host layers publish
// attachment lifecycle events; the core subscribes. Delivery is fire and
// forget with multiple independent handlers per event type.
type RedisBus struct {
	client   *goredis.Client
	channel  string
	logger   *logger.Logger
	handlers map[string][]Handler
	pubsub   *goredis.PubSub
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
}

func NewRedisBus(client *goredis.Client, channel string, l *logger.Logger) *RedisBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBus{
		client:   client,
		channel:  channel,
		logger:   l,
		handlers: make(map[string][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (b *RedisBus) Start() error {
	b.running = true
	b.pubsub = b.client.Subscribe(b.ctx, b.channel)
	go b.listen()
	return nil
}

func (b *RedisBus) Stop() error {
	b.cancel()
	b.running = false
	if b.pubsub != nil {
		b.pubsub.Close()
	}
	return nil
}

// Publish marshals payload into an envelope and broadcasts it.
func (b *RedisBus) Publish(ctx context.Context, eventType string, payload any) error {
	if !b.running {
		return fmt.Errorf("event bus not started")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	env := Envelope{
		EventType:  eventType,
		OccurredAt: time.Now(),
		Payload:    raw,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	return b.client.Publish(ctx, b.channel, data).Err()
}

func (b *RedisBus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *RedisBus) listen() {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg := <-ch:
			if msg == nil {
				continue
			}

			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				if b.logger != nil {
					b.logger.Errorf("event bus: malformed envelope: %s", err)
				}
				continue
			}

			b.dispatch(env)
		}
	}
}

func (b *RedisBus) dispatch(env Envelope) {
	b.mu.RLock()
	handlers := b.handlers[env.EventType]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(b.ctx, env); err != nil && b.logger != nil {
			b.logger.Errorf("event bus: handler for %s failed: %s", env.EventType, err)
		}
	}
}
