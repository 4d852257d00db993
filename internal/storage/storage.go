package storage

import (
	"context"
	"errors"
	"fmt"

	"forex-dashboard-go/internal/config"
	"forex-dashboard-go/internal/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when no document exists under the given id.
var ErrNotFound = errors.New("document not found")

// Store is the document store the ingester writes and the dashboard reads.
// Query returns up to limit records ordered by timestamp descending, with the
// ingestion-timestamp field stripped.
type Store interface {
	Exists(ctx context.Context, collection, id string) (bool, error)
	Get(ctx context.Context, collection, id string) (models.TradeRecord, error)
	Put(ctx context.Context, collection, id string, record models.TradeRecord) error
	Query(ctx context.Context, collection string, limit int) ([]models.TradeRecord, error)
	Ping(ctx context.Context) error
}

// New creates the Store selected by the storage configuration.
func New(cfg *config.Storage, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteStore(cfg.DSN, logger)
	case "redis":
		return NewRedisStore(&cfg.Redis, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
