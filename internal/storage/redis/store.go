package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"moneyScope/internal/storage"
)

// Options configures the Redis entity store.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store keeps entities as JSON strings under <prefix>:<kind>:<id>.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", opts.Addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB), zap.String("prefix", opts.Prefix))
	return NewStoreWithClient(rdb, opts.Prefix), nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(kind, id string) string {
	if s.prefix == "" {
		return kind + ":" + id
	}
	return s.prefix + ":" + kind + ":" + id
}

func (s *Store) stateKey(name string) string {
	return s.key("state", name)
}

func (s *Store) Get(ctx context.Context, kind, id string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(kind, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (s *Store) Put(ctx context.Context, kind, id string, data []byte) error {
	return s.client.Set(ctx, s.key(kind, id), data, 0).Err()
}

// PutBatch writes records in a single MULTI/EXEC transaction.
func (s *Store) PutBatch(ctx context.Context, records []storage.Record) error {
	if len(records) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range records {
			pipe.Set(ctx, s.key(rec.Kind, rec.ID), rec.Data, 0)
		}
		return nil
	})
	return err
}

// LoadState returns the last processed block stored under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	val, err := s.client.Get(ctx, s.stateKey(name)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	block, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse state %s: %w", name, err)
	}
	return block, true, nil
}

// SaveState stores the last processed block under name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	return s.client.Set(ctx, s.stateKey(name), strconv.FormatUint(block, 10), 0).Err()
}
