// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "academy:"

// RedisStore keeps each record at "<prefix>session:<id>" and tracks ids in
// the set "<prefix>sessions" for listing.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis store: address required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) key(id string) string { return s.prefix + "session:" + id }
func (s *RedisStore) indexKey() string     { return s.prefix + "sessions" }

func (s *RedisStore) Put(ctx context.Context, rec *model.SessionRecord) error {
	if rec == nil {
		return model.InvalidArgumentf("nil record")
	}
	if err := checkID(rec.ID); err != nil {
		return err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return model.NewStorageError("encode", rec.ID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(rec.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), rec.ID)
		return nil
	})
	return model.NewStorageError("put", rec.ID, err)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.SessionRecord, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, model.NewStorageError("get", id, err)
	}
	return decodeRecord(data, id)
}

func (s *RedisStore) List(ctx context.Context, filter model.ListFilter) ([]*model.SessionRecord, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, model.NewStorageError("list", "", err)
	}
	if len(ids) == 0 {
		return []*model.SessionRecord{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, model.NewStorageError("list", "", err)
	}

	all := make([]*model.SessionRecord, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// index entry without a record; a concurrent delete is in flight.
			continue
		}
		rec, err := decodeRecord([]byte(str), ids[i])
		if err != nil {
			skipUndecodable(ctx, BackendRedis, ids[i], err)
			continue
		}
		all = append(all, rec)
	}
	return filterAndSort(all, filter), nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return model.NewStorageError("delete", id, err)
	}
	if del.Val() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }
