package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// errMiss отсутствие ключа. Единственная ошибка бекенда, которая не
// считается сбоем.
var errMiss = errors.New("cache miss")

const (
	scanBatchSize  = 100
	deleteBatchLen = 128
)

// backend хранилище ключ-значение с TTL. Реализации: redis и процессный
// in-memory.
type backend interface {
	Name() string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	Ping(ctx context.Context) error
}

type redisBackend struct {
	client *redis.Client
}

func newRedisBackend(client *redis.Client) *redisBackend {
	return &redisBackend{client: client}
}

func (b *redisBackend) Name() string { return "redis" }

func (b *redisBackend) Get(ctx context.Context, key string) (string, error) {
	value, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errMiss
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (b *redisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// DeleteByPrefix обходит пространство ключей через SCAN: KEYS на проде под
// запретом.
func (b *redisBackend) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64

	batch := make([]string, 0, deleteBatchLen)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		n, err := b.client.Del(ctx, batch...).Result()
		if err != nil {
			return err
		}

		deleted += n
		batch = batch[:0]

		return nil
	}

	iter := b.client.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == deleteBatchLen {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}

	if err := iter.Err(); err != nil {
		return deleted, err
	}

	if err := flush(); err != nil {
		return deleted, err
	}

	return deleted, nil
}

func (b *redisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// memoryBackend процессный кеш на go-cache. Используется, когда Redis не
// сконфигурирован или не отвечает на старте: сервис продолжает кешировать,
// просто без разделения между инстансами.
type memoryBackend struct {
	store *gocache.Cache
}

func newMemoryBackend(ttl time.Duration) *memoryBackend {
	return &memoryBackend{store: gocache.New(ttl, 2*ttl)}
}

func (b *memoryBackend) Name() string { return "memory" }

func (b *memoryBackend) Get(_ context.Context, key string) (string, error) {
	value, ok := b.store.Get(key)
	if !ok {
		return "", errMiss
	}

	s, ok := value.(string)
	if !ok {
		return "", errMiss
	}

	return s, nil
}

func (b *memoryBackend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	b.store.Set(key, value, ttl)
	return nil
}

func (b *memoryBackend) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	var deleted int64

	for key := range b.store.Items() {
		if strings.HasPrefix(key, prefix) {
			b.store.Delete(key)
			deleted++
		}
	}

	return deleted, nil
}

func (b *memoryBackend) Ping(_ context.Context) error { return nil }
