package kvprovider

import (
	"context"
	"errors"
	"time"

	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"

	"github.com/redis/go-redis/v9"
)

// Must not share one redis db between dupwatch deployments, counts would merge.

type RedisProvider struct {
	Redis      *redis.Client
	maxRetries int
	backoff    time.Duration
}

func NewRedisProvider(cfg st.DWRedis) (*RedisProvider, error) {
	if len(cfg.Endpoint) == 0 {
		return nil, errors.New("no endpoint for redis")
	}
	timeout := time.Second * time.Duration(cfg.ConnectionTimeoutSeconds)
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Endpoint,
		Username:     cfg.Username,
		Password:     cfg.Password,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		DB:           cfg.DB,
	})
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &RedisProvider{Redis: rdb, maxRetries: retries, backoff: timeout}, nil
}

func retry[T any](prov *RedisProvider, genericCall func() (T, error)) (T, error) {
	var val T
	var err error
	for i := 0; i < prov.maxRetries; i++ {
		val, err = genericCall()
		if err == nil || errors.Is(err, redis.Nil) {
			return val, err
		}
		if i < prov.maxRetries-1 {
			time.Sleep(prov.backoff)
		}
	}
	return val, err
}

func retryThree[T any, Z any](prov *RedisProvider, genericCall func() (T, Z, error)) (T, Z, error) {
	var val T
	var val2 Z
	var err error
	for i := 0; i < prov.maxRetries; i++ {
		val, val2, err = genericCall()
		if err == nil {
			return val, val2, err
		}
		if i < prov.maxRetries-1 {
			time.Sleep(prov.backoff)
		}
	}
	return val, val2, err
}

func (prov *RedisProvider) GetDBSize(ctx context.Context) int64 {
	currentFunc := func() (int64, error) {
		response := prov.Redis.DBSize(ctx)
		if response.Err() != nil {
			return response.Val(), response.Err()
		}
		return response.Val(), nil
	}
	val, _ := retry(prov, currentFunc)
	return val
}

// GetBytes returns nil for a missing key, like the memory provider.
func (prov *RedisProvider) GetBytes(ctx context.Context, key string) ([]byte, error) {
	val, err := retry(prov, func() ([]byte, error) { return prov.Redis.Get(ctx, key).Bytes() })
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (prov *RedisProvider) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	_, err := retry(prov, func() (int64, error) { return -1, prov.Redis.Set(ctx, key, value, expiration).Err() })
	return err
}

func (prov *RedisProvider) Del(ctx context.Context, key ...string) (int64, error) {
	return retry(prov, func() (int64, error) { return prov.Redis.Del(ctx, key...).Result() })
}

func (prov *RedisProvider) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return retryThree(prov, func() ([]string, uint64, error) { return prov.Redis.Scan(ctx, cursor, match, count).Result() })
}

func (prov *RedisProvider) Close() error {
	return prov.Redis.Close()
}
