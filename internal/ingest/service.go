package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"forex-dashboard-go/internal/models"
	"forex-dashboard-go/internal/storage"
	"go.uber.org/zap"
)

// ValidationError marks a trade record that cannot be ingested because a
// required field is missing or empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("trade record missing required field %q", e.Field)
}

// errDuplicate signals an already-ingested record; re-submission is a no-op.
var errDuplicate = errors.New("trade already ingested")

// Result reports the outcome of one ingestion batch.
type Result struct {
	Uploaded   int
	Duplicates int
	Rejected   int
}

// Service deduplicates and persists trade records pushed by the external
// trading client.
type Service struct {
	logger     *zap.Logger
	store      storage.Store
	collection string
	timeout    time.Duration
}

// NewService creates a new ingestion service writing to the given collection.
func NewService(logger *zap.Logger, store storage.Store, collection string, timeout time.Duration) *Service {
	return &Service{
		logger:     logger,
		store:      store,
		collection: collection,
		timeout:    timeout,
	}
}

// Process ingests a batch of trade records. A single record's validation or
// storage failure is logged and counted but never aborts the batch; records
// already present are skipped silently. The existence-check-then-write pair
// is not atomic, so concurrent identical submissions may both land — accepted
// best-effort duplicate suppression, not a transactional guarantee.
func (s *Service) Process(ctx context.Context, trades []models.TradeRecord) Result {
	var result Result
	for _, trade := range trades {
		err := s.processOne(ctx, trade)
		switch {
		case err == nil:
			result.Uploaded++
		case errors.Is(err, errDuplicate):
			result.Duplicates++
		default:
			result.Rejected++
			s.logger.Warn("Failed to process trade",
				zap.String("symbol", trade.Symbol()),
				zap.String("timestamp", trade.Timestamp()),
				zap.Error(err),
			)
		}
	}
	return result
}

func (s *Service) processOne(ctx context.Context, trade models.TradeRecord) error {
	symbol := trade.Symbol()
	if symbol == "" {
		return &ValidationError{Field: "symbol"}
	}
	timestamp := trade.Timestamp()
	if timestamp == "" {
		return &ValidationError{Field: "timestamp"}
	}

	id := models.TradeID(symbol, timestamp)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.store.Exists(ctx, s.collection, id)
	if err != nil {
		return fmt.Errorf("existence check for %s: %w", id, err)
	}
	if exists {
		return errDuplicate
	}

	record := trade.Clone()
	record[models.IngestedAtField] = time.Now().UTC().Format(time.RFC3339)

	if err := s.store.Put(ctx, s.collection, id, record); err != nil {
		return fmt.Errorf("write for %s: %w", id, err)
	}

	s.logger.Info("Uploaded trade",
		zap.String("trade_id", id),
		zap.String("symbol", symbol),
		zap.String("trade_type", trade.TradeType()),
		zap.Float64("profit", trade.Profit()),
	)
	return nil
}
