package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mystock/warehouse/internal/application/inventory"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/mystock/warehouse/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// Redis key suffixes appended to the configured prefix
const (
	RedisProductsKey     = "products"
	RedisTransactionsKey = "transactions"
	RedisMetaKey         = "meta"
)

type redisMeta struct {
	Version uint64    `json:"version"`
	TakenAt time.Time `json:"taken_at"`
}

// RedisStore keeps products and transactions as JSON arrays under two keys.
// Save writes both keys and the meta key in one MULTI/EXEC.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

var _ inventory.SnapshotStore = (*RedisStore)(nil)

// NewRedisClient connects to the configured Redis server
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisStore creates a store using keys <prefix>products and <prefix>transactions
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Key returns the full Redis key for a suffix
func (s *RedisStore) Key(suffix string) string {
	return s.prefix + suffix
}

// Load reads all keys. A missing list is empty; both lists missing means nothing was saved.
func (s *RedisStore) Load(ctx context.Context) (inventory.Snapshot, error) {
	values, err := s.client.MGet(ctx,
		s.Key(RedisProductsKey),
		s.Key(RedisTransactionsKey),
		s.Key(RedisMetaKey),
	).Result()
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("read snapshot keys: %w", err)
	}
	if values[0] == nil && values[1] == nil {
		return inventory.Snapshot{}, inventory.ErrSnapshotNotFound
	}

	snapshot := inventory.Snapshot{
		Products:     []catalog.Product{},
		Transactions: []ledger.Transaction{},
	}
	if err := decodeRedisValue(values[0], &snapshot.Products); err != nil {
		return inventory.Snapshot{}, fmt.Errorf("decode %s: %w", s.Key(RedisProductsKey), err)
	}
	if err := decodeRedisValue(values[1], &snapshot.Transactions); err != nil {
		return inventory.Snapshot{}, fmt.Errorf("decode %s: %w", s.Key(RedisTransactionsKey), err)
	}
	var meta redisMeta
	if err := decodeRedisValue(values[2], &meta); err != nil {
		return inventory.Snapshot{}, fmt.Errorf("decode %s: %w", s.Key(RedisMetaKey), err)
	}
	snapshot.Version = meta.Version
	snapshot.TakenAt = meta.TakenAt
	return snapshot, nil
}

// Save writes every key in one MULTI/EXEC
func (s *RedisStore) Save(ctx context.Context, snapshot inventory.Snapshot) error {
	products, err := json.Marshal(nonNil(snapshot.Products))
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	transactions, err := json.Marshal(nonNil(snapshot.Transactions))
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	meta, err := json.Marshal(redisMeta{Version: snapshot.Version, TakenAt: snapshot.TakenAt})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.Key(RedisProductsKey), products, 0)
		pipe.Set(ctx, s.Key(RedisTransactionsKey), transactions, 0)
		pipe.Set(ctx, s.Key(RedisMetaKey), meta, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write snapshot keys: %w", err)
	}
	return nil
}

func decodeRedisValue(v any, out any) error {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return errors.New("unexpected value type")
	}
	return json.Unmarshal([]byte(s), out)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
