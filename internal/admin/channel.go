package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/dyluth/warren/pkg/kv"
)

// Publisher sends commands to one session's admin channel.
type Publisher struct {
	rdb     *redis.Client
	session string
}

// NewPublisher creates a publisher for session.
func NewPublisher(rdb *redis.Client, session string) (*Publisher, error) {
	if session == "" {
		return nil, fmt.Errorf("session cannot be empty")
	}
	return &Publisher{rdb: rdb, session: session}, nil
}

// Publish validates and broadcasts cmd. It returns the number of subscribers
// that received it.
func (p *Publisher) Publish(ctx context.Context, cmd Command) (int64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, fmt.Errorf("invalid command: %w", err)
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal command: %w", err)
	}
	n, err := p.rdb.Publish(ctx, kv.AdminChannel(p.session), payload).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to publish command: %w", err)
	}
	return n, nil
}

// Subscription represents an active subscription to a session's admin
// channel. Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan Command
	errors <-chan error
	cancel func()
	done   <-chan struct{}
	once   sync.Once
}

// Events returns the channel of valid commands. It is closed when the
// subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan Command {
	return s.events
}

// Errors returns malformed or invalid messages. The subscription continues
// after errors; the offending message is skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and waits for its goroutine to exit.
// Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

// Subscribe listens on session's admin channel. The subscription is
// confirmed with Redis before returning, so commands published afterwards
// are not missed.
func Subscribe(ctx context.Context, rdb *redis.Client, session string) (*Subscription, error) {
	if session == "" {
		return nil, fmt.Errorf("session cannot be empty")
	}
	pubsub := rdb.Subscribe(ctx, kv.AdminChannel(session))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to admin channel: %w", err)
	}

	eventsChan := make(chan Command, 10)
	errorsChan := make(chan error, 10)
	done := make(chan struct{})
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(done)
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var cmd Command
				err := json.Unmarshal([]byte(msg.Payload), &cmd)
				if err == nil {
					err = cmd.Validate()
				}
				if err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to decode admin command: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- cmd:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
		done:   done,
	}, nil
}
