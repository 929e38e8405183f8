package snapshot

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/example/learning-platform/internal/progress"
)

type redisSlot struct {
	client *redis.Client
	key    string
}

func newRedisSlot(dsn, owner string) *redisSlot {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		opts = &redis.Options{Addr: dsn}
	}
	return &redisSlot{
		client: redis.NewClient(opts),
		key:    "progress:snapshot:" + owner,
	}
}

func (s *redisSlot) Save(ctx context.Context, records []progress.Record) error {
	if len(records) == 0 {
		return s.Clear(ctx)
	}
	b, err := encode(records)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, b, 0).Err()
}

func (s *redisSlot) Load(ctx context.Context) ([]progress.Record, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return decode(b), nil
}

func (s *redisSlot) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
