package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"venturelens/internal/store"
)

// RedisPublisher appends every transition to one Redis stream so
// dashboards and audit consumers can tail the system's activity.
type RedisPublisher struct {
	client     *redis.Client
	streamName string
	maxLen     int64

	ensureMu sync.Mutex
	ensured  bool
}

func NewRedisPublisher(addr, streamName string, maxLen int64) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisPublisher{
		client:     client,
		streamName: streamName,
		maxLen:     maxLen,
	}, nil
}

func (p *RedisPublisher) PublishTransition(ctx context.Context, event store.Event) error {
	if err := p.ensureStream(ctx); err != nil {
		return err
	}

	values := map[string]any{
		"name":   event.Name,
		"domain": event.Domain,
		"at":     event.At.Format(time.RFC3339Nano),
	}
	for key, value := range event.Fields {
		values["field:"+key] = redactFieldValue(key, value)
	}

	args := &redis.XAddArgs{
		Stream: p.streamName,
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish transition: %w", err)
	}
	return nil
}

// StreamDepth reports the stream length for the metrics endpoint.
func (p *RedisPublisher) StreamDepth(ctx context.Context) (int64, error) {
	return p.client.XLen(ctx, p.streamName).Result()
}

// Trim drops entries beyond maxLen. Called from the maintenance loop;
// XAdd's approximate trim keeps growth bounded between runs.
func (p *RedisPublisher) Trim(ctx context.Context) (int64, error) {
	if p.maxLen <= 0 {
		return 0, nil
	}
	trimmed, err := p.client.XTrimMaxLen(ctx, p.streamName, p.maxLen).Result()
	if err != nil {
		return 0, fmt.Errorf("trim transition stream: %w", err)
	}
	return trimmed, nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// ensureStream refuses to publish into a key of the wrong type rather
// than corrupting it.
func (p *RedisPublisher) ensureStream(ctx context.Context) error {
	p.ensureMu.Lock()
	if p.ensured {
		p.ensureMu.Unlock()
		return nil
	}
	p.ensureMu.Unlock()

	keyType, err := p.client.Type(ctx, p.streamName).Result()
	if err != nil {
		return err
	}
	switch keyType {
	case "none", "stream":
	default:
		return fmt.Errorf("unsupported redis key type=%s for stream %s", keyType, p.streamName)
	}

	p.ensureMu.Lock()
	p.ensured = true
	p.ensureMu.Unlock()
	return nil
}
