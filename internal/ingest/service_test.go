package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"forex-dashboard-go/internal/models"
	"forex-dashboard-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// setupTest creates an ingestion service over a fresh in-memory store.
func setupTest(t *testing.T) (*Service, storage.Store) {
	store, err := storage.NewSQLiteStore("file::memory:", zap.NewNop())
	assert.NoError(t, err)

	svc := NewService(zap.NewNop(), store, "trades", 5*time.Second)
	return svc, store
}

func trade(symbol, timestamp string, profit float64) models.TradeRecord {
	return models.TradeRecord{
		"symbol":     symbol,
		"trade_type": "buy",
		"timestamp":  timestamp,
		"profit":     profit,
	}
}

func TestProcess_UploadsNewTrades(t *testing.T) {
	svc, store := setupTest(t)

	trades := make([]models.TradeRecord, 0, 5)
	for i := 1; i <= 5; i++ {
		trades = append(trades, trade("EURUSD", fmt.Sprintf("2024.03.15 10:0%d:00", i), float64(i)))
	}

	result := svc.Process(context.Background(), trades)

	assert.Equal(t, 5, result.Uploaded)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 0, result.Rejected)

	stored, err := store.Query(context.Background(), "trades", 100)
	assert.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestProcess_ResubmissionIsIdempotent(t *testing.T) {
	svc, store := setupTest(t)
	record := trade("EURUSD", "2024.03.15 10:30:00", 12.5)

	first := svc.Process(context.Background(), []models.TradeRecord{record})
	second := svc.Process(context.Background(), []models.TradeRecord{record})

	assert.Equal(t, 1, first.Uploaded)
	assert.Equal(t, 0, second.Uploaded)
	assert.Equal(t, 1, second.Duplicates)

	// Exactly one document across both calls
	stored, err := store.Query(context.Background(), "trades", 100)
	assert.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestProcess_AttachesAndHidesIngestionTimestamp(t *testing.T) {
	svc, store := setupTest(t)
	record := trade("EURUSD", "2024.03.15 10:30:00", 12.5)

	svc.Process(context.Background(), []models.TradeRecord{record})

	// The caller's record is not mutated
	assert.NotContains(t, record, models.IngestedAtField)

	// And readers never see the field
	id := models.TradeID("EURUSD", "2024.03.15 10:30:00")
	got, err := store.Get(context.Background(), "trades", id)
	assert.NoError(t, err)
	assert.NotContains(t, got, models.IngestedAtField)
}

func TestProcess_SkipsInvalidRecordsAndContinues(t *testing.T) {
	svc, store := setupTest(t)

	trades := []models.TradeRecord{
		{"timestamp": "2024.03.15 10:30:00", "profit": 1.0},    // missing symbol
		{"symbol": "EURUSD", "profit": 2.0},                    // missing timestamp
		trade("GBPUSD", "2024.03.15 10:31:00", 3.0),            // valid
	}

	result := svc.Process(context.Background(), trades)

	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 2, result.Rejected)

	stored, err := store.Query(context.Background(), "trades", 100)
	assert.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Equal(t, "GBPUSD", stored[0].Symbol())
}

// MockStore is a mock implementation of the storage.Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	args := m.Called(collection, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, collection, id string) (models.TradeRecord, error) {
	args := m.Called(collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.TradeRecord), args.Error(1)
}

func (m *MockStore) Put(ctx context.Context, collection, id string, record models.TradeRecord) error {
	args := m.Called(collection, id, record)
	return args.Error(0)
}

func (m *MockStore) Query(ctx context.Context, collection string, limit int) ([]models.TradeRecord, error) {
	args := m.Called(collection, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TradeRecord), args.Error(1)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}

func TestProcess_StorageFailureDoesNotAbortBatch(t *testing.T) {
	// Arrange
	mockStore := new(MockStore)
	svc := NewService(zap.NewNop(), mockStore, "trades", 5*time.Second)

	failing := trade("EURUSD", "2024.03.15 10:30:00", 1.0)
	failingID := models.TradeID("EURUSD", "2024.03.15 10:30:00")
	ok := trade("GBPUSD", "2024.03.15 10:31:00", 2.0)
	okID := models.TradeID("GBPUSD", "2024.03.15 10:31:00")

	mockStore.On("Exists", "trades", failingID).Return(false, errors.New("store unreachable"))
	mockStore.On("Exists", "trades", okID).Return(false, nil)
	mockStore.On("Put", "trades", okID, mock.Anything).Return(nil)

	// Act
	result := svc.Process(context.Background(), []models.TradeRecord{failing, ok})

	// Assert
	assert.Equal(t, 1, result.Uploaded)
	assert.Equal(t, 1, result.Rejected)
	mockStore.AssertExpectations(t)
}
