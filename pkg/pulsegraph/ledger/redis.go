package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore persists run records in Redis so several machines can share one
// ledger.
//
// Layout under the key prefix:
//
//	<prefix>run:<run id>      JSON record
//	<prefix>seq               save counter
//	<prefix>index             sorted set of run ids scored by save order
//	<prefix>digest:<digest>   same, per circuit digest
type RedisStore struct {
	client  *backend.Client
	prefix  string
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the key prefix. Default: "pulsegraph:".
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTimeout bounds every store call. Default: 5s.
func WithTimeout(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewRedisStore connects to the Redis server at addr.
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	return NewRedisStoreFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisStoreFromClient wraps an existing client. Close closes the client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		prefix:  "pulsegraph:",
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) runKey(runID string) string { return s.prefix + "run:" + runID }

func (s *RedisStore) digestKey(digest string) string { return s.prefix + "digest:" + digest }

func (s *RedisStore) indexKey() string { return s.prefix + "index" }

func (s *RedisStore) seqKey() string { return s.prefix + "seq" }

func (s *RedisStore) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Save implements Store.
func (s *RedisStore) Save(rec Record) error {
	if rec.RunID == "" {
		return ErrMissingRunID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	ctx, cancel := s.callContext()
	defer cancel()

	previous, err := s.load(ctx, rec.RunID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	score := float64(seq)

	pipe := s.client.TxPipeline()
	if previous.RunID != "" && previous.Digest != rec.Digest {
		pipe.ZRem(ctx, s.digestKey(previous.Digest), rec.RunID)
	}
	pipe.Set(ctx, s.runKey(rec.RunID), data, 0)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: rec.RunID})
	pipe.ZAdd(ctx, s.digestKey(rec.Digest), backend.Z{Score: score, Member: rec.RunID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(runID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Record{}, ErrStoreClosed
	}

	ctx, cancel := s.callContext()
	defer cancel()
	return s.load(ctx, runID)
}

func (s *RedisStore) load(ctx context.Context, runID string) (Record, error) {
	val, err := s.client.Get(ctx, s.runKey(runID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// List implements Store.
func (s *RedisStore) List(digest string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	ctx, cancel := s.callContext()
	defer cancel()

	index := s.indexKey()
	if digest != "" {
		index = s.digestKey(digest)
	}
	runIDs, err := s.client.ZRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if len(runIDs) == 0 {
		return []Record{}, nil
	}

	keys := make([]string, len(runIDs))
	for i, id := range runIDs {
		keys[i] = s.runKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	records := make([]Record, 0, len(values))
	for _, v := range values {
		text, ok := v.(string)
		if !ok {
			continue // deleted between ZRANGE and MGET
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	ctx, cancel := s.callContext()
	defer cancel()

	rec, err := s.load(ctx, runID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.runKey(runID))
	pipe.ZRem(ctx, s.indexKey(), runID)
	pipe.ZRem(ctx, s.digestKey(rec.Digest), runID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
