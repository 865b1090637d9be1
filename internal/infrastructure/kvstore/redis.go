package kvstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const notifyChannel = "library:session:changes"

// RedisStore is a Store backed by Redis. Change notifications ride on a
// pub/sub channel; Redis delivers published messages to the publisher's own
// subscriber connections, which satisfies the self-notify contract.
type RedisStore struct {
	client redis.UniversalClient
	log    zerolog.Logger

	mu          sync.Mutex
	subscribers map[int]func(key string)
	nextSubID   int
	pubsub      *redis.PubSub
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string, log zerolog.Logger) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL must be provided")
	}

	opts, err := buildUniversalOptions(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger := log.With().Str("component", "redis-kvstore").Logger()
	logger.Info().Msg("connected to redis session store")

	return &RedisStore{
		client:      client,
		log:         logger,
		subscribers: make(map[int]func(key string)),
	}, nil
}

func buildUniversalOptions(raw string) (*redis.UniversalOptions, error) {
	parts := strings.Split(raw, ",")
	opts := &redis.UniversalOptions{}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "://") {
			parsed, err := redis.ParseURL(part)
			if err != nil {
				return nil, err
			}
			opts.Addrs = append(opts.Addrs, parsed.Addr)
			if opts.Username == "" {
				opts.Username = parsed.Username
			}
			if opts.Password == "" {
				opts.Password = parsed.Password
			}
			if opts.DB == 0 {
				opts.DB = parsed.DB
			}
			if opts.TLSConfig == nil {
				opts.TLSConfig = parsed.TLSConfig
			}
			continue
		}

		opts.Addrs = append(opts.Addrs, part)
	}

	if len(opts.Addrs) == 0 {
		return nil, fmt.Errorf("no redis address found in %q", raw)
	}
	return opts, nil
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set overwrites the value under key and publishes a change notification.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	if err := s.client.Publish(ctx, notifyChannel, key).Err(); err != nil {
		// The write is durable; a lost notification only delays convergence
		// until the next resync.
		s.log.Warn().Err(err).Str("key", key).Msg("publish change notification failed")
	}
	return nil
}

// Subscribe registers a change listener and returns its cancel function.
// The pub/sub receive loop is started on first subscription.
func (s *RedisStore) Subscribe(fn func(key string)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	if s.pubsub == nil {
		s.pubsub = s.client.Subscribe(context.Background(), notifyChannel)
		go s.receive(s.pubsub)
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *RedisStore) receive(pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		key := msg.Payload
		s.mu.Lock()
		fns := make([]func(string), 0, len(s.subscribers))
		for _, fn := range s.subscribers {
			fns = append(fns, fn)
		}
		s.mu.Unlock()
		for _, fn := range fns {
			fn(key)
		}
	}
}

// Close releases the pub/sub connection and the client.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	pubsub := s.pubsub
	s.pubsub = nil
	s.mu.Unlock()

	if pubsub != nil {
		if err := pubsub.Close(); err != nil {
			s.log.Warn().Err(err).Msg("close pubsub")
		}
	}
	return s.client.Close()
}
