package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// InvalidationChannel carries the object kind whose views were dropped.
	InvalidationChannel = "dnsadmin:invalidation"
	keyPrefix           = "dnsadmin:"
)

// RedisOptions configures a RedisViewCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	// Local is an optional in-process layer in front of Redis.
	Local  *LocalViewCache
	Logger *zerolog.Logger
}

// RedisViewCache shares views between nodes. Each kind has a generation
// counter; Invalidate bumps it so older keys are never read again and expire
// on their own.
type RedisViewCache struct {
	client *redis.Client
	ttl    time.Duration
	local  *LocalViewCache
	logger zerolog.Logger
}

func NewRedisViewCache(opts RedisOptions) *RedisViewCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &RedisViewCache{
		client: rdb,
		ttl:    opts.TTL,
		local:  opts.Local,
		logger: logger.With().Str("component", "view_cache").Logger(),
	}
}

func generationKey(kind domain.ObjectKind) string {
	return keyPrefix + "gen:" + string(kind)
}

func (r *RedisViewCache) key(ctx context.Context, kind domain.ObjectKind, groups []string) (string, error) {
	gen, err := r.client.Get(ctx, generationKey(kind)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%sview:%d:%s", keyPrefix, gen, viewKey(kind, groups)), nil
}

func (r *RedisViewCache) GetAllowed(ctx context.Context, kind domain.ObjectKind, groups []string) ([]string, bool, error) {
	if r.local != nil {
		if ids, ok, _ := r.local.GetAllowed(ctx, kind, groups); ok {
			return ids, true, nil
		}
	}

	key, err := r.key(ctx, kind, groups)
	if err != nil {
		return nil, false, err
	}
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var ids []string
	if err := json.Unmarshal(val, &ids); err != nil {
		return nil, false, fmt.Errorf("decode view %s: %w", key, err)
	}
	if r.local != nil {
		_ = r.local.SetAllowed(ctx, kind, groups, ids)
	}
	return ids, true, nil
}

func (r *RedisViewCache) SetAllowed(ctx context.Context, kind domain.ObjectKind, groups []string, ids []string) error {
	key, err := r.key(ctx, kind, groups)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return err
	}
	if r.local != nil {
		_ = r.local.SetAllowed(ctx, kind, groups, ids)
	}
	return nil
}

// Invalidate bumps the kind generation and publishes an invalidation event to all nodes.
func (r *RedisViewCache) Invalidate(ctx context.Context, kind domain.ObjectKind) error {
	if r.local != nil {
		_ = r.local.Invalidate(ctx, kind)
	}
	if err := r.client.Incr(ctx, generationKey(kind)).Err(); err != nil {
		return err
	}
	return r.client.Publish(ctx, InvalidationChannel, string(kind)).Err()
}

func (r *RedisViewCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisViewCache) Close() error {
	return r.client.Close()
}

// Listen drops local views named on InvalidationChannel until ctx is cancelled.
func (r *RedisViewCache) Listen(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, InvalidationChannel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("failed to close subscription")
		}
	}()
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", InvalidationChannel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			kind := domain.ObjectKind(msg.Payload)
			if !kind.Valid() {
				r.logger.Warn().Str("payload", msg.Payload).Msg("ignoring malformed invalidation")
				continue
			}
			if r.local != nil {
				_ = r.local.Invalidate(ctx, kind)
			}
			r.logger.Debug().Str("kind", string(kind)).Msg("views invalidated")
		}
	}
}
