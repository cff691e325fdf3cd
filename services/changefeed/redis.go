// File: services/changefeed/redis.go
package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"arctech/models"
)

// Feed carries change notifications between every instance sharing a store.
type Feed interface {
	Channel(collection string) string
	Publish(ctx context.Context, ev models.ChangeEvent) error
	Subscribe(ctx context.Context, channel string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error)
}

// RedisFeed is a Feed over Redis pub/sub.
type RedisFeed struct {
	client         *redis.Client
	prefix         string
	logger         *zap.Logger
	healthInterval time.Duration
}

// DefaultHealthInterval is how long a subscription may stay silent before it
// is pinged.
const DefaultHealthInterval = 30 * time.Second

// NewRedisFeed publishes on prefix+collection channels.
func NewRedisFeed(client *redis.Client, prefix string, logger *zap.Logger) *RedisFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisFeed{client: client, prefix: prefix, logger: logger, healthInterval: DefaultHealthInterval}
}

// Channel returns the pub/sub channel of a collection.
func (f *RedisFeed) Channel(collection string) string {
	return f.prefix + collection
}

// Publish announces ev on the channel of ev.Collection.
func (f *RedisFeed) Publish(ctx context.Context, ev models.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("changefeed: marshal event: %w", err)
	}
	if err := f.client.Publish(ctx, f.Channel(ev.Collection), payload).Err(); err != nil {
		return fmt.Errorf("changefeed: publish to %s: %w", f.Channel(ev.Collection), err)
	}
	return nil
}

// Subscribe listens on channel until the returned function is called or ctx
// ends. The subscription is confirmed before Subscribe returns. onError is
// called at most once, when a read fails or a health ping goes unanswered;
// the subscription is closed afterwards and not re-established.
func (f *RedisFeed) Subscribe(ctx context.Context, channel string, onEvent func(models.ChangeEvent), onError func(error)) (func(), error) {
	ps := f.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("changefeed: subscribe to %s: %w", channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			ps.Close()
		})
	}

	go func() {
		defer stop()
		if err := f.receive(subCtx, ps, onEvent); err != nil && subCtx.Err() == nil {
			f.logger.Error("changefeed: subscription lost", zap.String("channel", channel), zap.Error(err))
			if onError != nil {
				onError(err)
			}
		}
	}()

	f.logger.Info("changefeed: subscribed", zap.String("channel", channel))
	return stop, nil
}

// receive reads ps until ctx ends or the connection fails. An idle
// connection is pinged every healthInterval and must answer before the next
// one elapses.
func (f *RedisFeed) receive(ctx context.Context, ps *redis.PubSub, onEvent func(models.ChangeEvent)) error {
	awaitingPong := false
	for ctx.Err() == nil {
		msg, err := ps.ReceiveTimeout(ctx, f.healthInterval)
		if err != nil {
			var netErr net.Error
			if !errors.As(err, &netErr) || !netErr.Timeout() {
				return fmt.Errorf("changefeed: receive: %w", err)
			}
			if awaitingPong {
				return fmt.Errorf("changefeed: no ping reply within %s", f.healthInterval)
			}
			if err := ps.Ping(ctx); err != nil {
				return fmt.Errorf("changefeed: ping: %w", err)
			}
			awaitingPong = true
			continue
		}
		awaitingPong = false

		switch m := msg.(type) {
		case *redis.Message:
			ev, err := DecodeEvent(m.Payload)
			if err != nil {
				f.logger.Warn("changefeed: dropping malformed event", zap.String("channel", m.Channel), zap.Error(err))
				continue
			}
			onEvent(ev)
		case *redis.Subscription, *redis.Pong:
		default:
			f.logger.Debug("changefeed: ignoring message", zap.Any("message", m))
		}
	}
	return nil
}

// DecodeEvent parses a published change event.
func DecodeEvent(payload string) (models.ChangeEvent, error) {
	var ev models.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return models.ChangeEvent{}, err
	}
	switch ev.Type {
	case models.ChangeCreate, models.ChangeUpdate, models.ChangeDelete:
	default:
		return models.ChangeEvent{}, fmt.Errorf("unknown change type %q", ev.Type)
	}
	return ev, nil
}
