package history

import (
	"context"
	"fmt"
	"net/url"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const (
	fieldLastEventAt = "last_event_at"
	fieldLastErrorAt = "last_error_at"
	fieldLastError   = "last_error"
)

// RedisStore implements Store using one Redis hash per agent.
type RedisStore struct {
	client *backend.Client
	prefix string
	name   string
	ttl    time.Duration
}

type RedisOption func(*RedisStore)

// WithTTL sets an expiration refreshed on every write.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStoreFromClient creates a RedisStore from an existing client.
func NewRedisStoreFromClient(client *backend.Client, name string, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: "telegrambis:history:",
		name:   name,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// openRedis takes a go-redis URL with two extra query parameters, ttl and
// prefix, which go-redis itself would reject.
func openRedis(location, name string) (*RedisStore, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	query := u.Query()
	var opts []RedisOption
	if v := query.Get("ttl"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing redis ttl: %w", err)
		}
		opts = append(opts, WithTTL(ttl))
	}
	if query.Has("prefix") {
		opts = append(opts, WithPrefix(query.Get("prefix")))
	}
	query.Del("ttl")
	query.Del("prefix")
	u.RawQuery = query.Encode()

	clientOpts, err := backend.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedisStoreFromClient(backend.NewClient(clientOpts), name, opts...), nil
}

func (s *RedisStore) key() string {
	if s.name == "" {
		return s.prefix + "default"
	}
	return s.prefix + s.name
}

func (s *RedisStore) write(ctx context.Context, values ...interface{}) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(), values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis error writing history: %w", err)
	}
	return nil
}

// RecordEvent stores the last event time.
func (s *RedisStore) RecordEvent(ctx context.Context, at time.Time) error {
	return s.write(ctx, fieldLastEventAt, at.UTC().Format(time.RFC3339Nano))
}

// RecordError stores the last error time and message.
func (s *RedisStore) RecordError(ctx context.Context, at time.Time, message string) error {
	return s.write(ctx,
		fieldLastErrorAt, at.UTC().Format(time.RFC3339Nano),
		fieldLastError, message,
	)
}

// Load reads the hash back.
func (s *RedisStore) Load(ctx context.Context) (State, error) {
	fields, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return State{}, fmt.Errorf("redis error loading history: %w", err)
	}

	var state State
	if state.LastEventAt, err = parseTime(fields[fieldLastEventAt]); err != nil {
		return State{}, fmt.Errorf("parsing %s: %w", fieldLastEventAt, err)
	}
	if state.LastErrorAt, err = parseTime(fields[fieldLastErrorAt]); err != nil {
		return State{}, fmt.Errorf("parsing %s: %w", fieldLastErrorAt, err)
	}
	state.LastError = fields[fieldLastError]
	return state, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
