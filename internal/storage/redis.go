package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"forex-dashboard-go/internal/config"
	"forex-dashboard-go/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Store backed by redis. Documents live as JSON strings under
// <collection>:doc:<id>; ordering is maintained by a sorted set per
// collection whose members are "<sortKey>\x00<id>" with a constant score, so
// a reverse range walks timestamps descending.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

var _ Store = (*RedisStore)(nil)

const indexSeparator = "\x00"

// NewRedisStore creates a Store talking to the given redis instance.
func NewRedisStore(cfg *config.Redis, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client, logger: logger}
}

func docKey(collection, id string) string { return collection + ":doc:" + id }
func indexKey(collection string) string   { return collection + ":index" }

// Exists reports whether a document with the given id is present.
func (s *RedisStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	n, err := s.client.Exists(ctx, docKey(collection, id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check document %s: %w", id, err)
	}
	return n > 0, nil
}

// Get fetches a single document by id.
func (s *RedisStore) Get(ctx context.Context, collection, id string) (models.TradeRecord, error) {
	payload, err := s.client.Get(ctx, docKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return decodeRecord(payload)
}

// Put writes a document and its index entry, overwriting any existing one.
func (s *RedisStore) Put(ctx context.Context, collection, id string, record models.TradeRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	member := models.SortKey(record.Timestamp()) + indexSeparator + id

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKey(collection, id), payload, 0)
	pipe.ZAdd(ctx, indexKey(collection), redis.Z{Score: 0, Member: member})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put document %s: %w", id, err)
	}
	return nil
}

// Query returns up to limit documents ordered by timestamp descending.
func (s *RedisStore) Query(ctx context.Context, collection string, limit int) ([]models.TradeRecord, error) {
	if limit <= 0 {
		return []models.TradeRecord{}, nil
	}

	members, err := s.client.ZRevRange(ctx, indexKey(collection), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}
	if len(members) == 0 {
		return []models.TradeRecord{}, nil
	}

	keys := make([]string, 0, len(members))
	for _, member := range members {
		_, id, found := strings.Cut(member, indexSeparator)
		if !found {
			s.logger.Warn("Skipping malformed index member", zap.String("member", member))
			continue
		}
		keys = append(keys, docKey(collection, id))
	}
	if len(keys) == 0 {
		return []models.TradeRecord{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents for %s: %w", collection, err)
	}

	records := make([]models.TradeRecord, 0, len(values))
	for i, value := range values {
		payload, ok := value.(string)
		if !ok {
			// Index entry without a document; stale after an external delete.
			continue
		}
		record, err := decodeRecord([]byte(payload))
		if err != nil {
			s.logger.Warn("Skipping undecodable document", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Ping verifies connectivity to redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
