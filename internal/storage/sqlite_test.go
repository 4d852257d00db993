package storage

import (
	"context"
	"fmt"
	"testing"

	"forex-dashboard-go/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// setupStore creates a fresh in-memory store for each test to ensure isolation.
func setupStore(t *testing.T) *SQLiteStore {
	store, err := NewSQLiteStore("file::memory:", zap.NewNop())
	assert.NoError(t, err)
	return store
}

func TestSQLiteStore_PutGetExists(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	record := models.TradeRecord{
		"symbol":    "EURUSD",
		"timestamp": "2024.03.15 10:30:00",
		"profit":    12.5,
		"comment":   "scalp", // passthrough field
	}

	// Absent before the write
	exists, err := store.Exists(ctx, "trades", "EURUSD_1")
	assert.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Get(ctx, "trades", "EURUSD_1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Present after the write, passthrough fields intact
	assert.NoError(t, store.Put(ctx, "trades", "EURUSD_1", record))

	exists, err = store.Exists(ctx, "trades", "EURUSD_1")
	assert.NoError(t, err)
	assert.True(t, exists)

	got, err := store.Get(ctx, "trades", "EURUSD_1")
	assert.NoError(t, err)
	assert.Equal(t, "EURUSD", got.Symbol())
	assert.Equal(t, "scalp", got["comment"])
}

func TestSQLiteStore_StripsIngestionTimestamp(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	record := models.TradeRecord{
		"symbol":               "EURUSD",
		"timestamp":            "2024.03.15 10:30:00",
		models.IngestedAtField: "2024-03-15T11:00:00Z",
	}
	assert.NoError(t, store.Put(ctx, "trades", "EURUSD_1", record))

	got, err := store.Get(ctx, "trades", "EURUSD_1")
	assert.NoError(t, err)
	assert.NotContains(t, got, models.IngestedAtField)

	records, err := store.Query(ctx, "trades", 10)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.NotContains(t, records[0], models.IngestedAtField)
}

func TestSQLiteStore_QueryOrderAndLimit(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		record := models.TradeRecord{
			"symbol":    "EURUSD",
			"timestamp": fmt.Sprintf("2024.03.15 10:0%d:00", i),
		}
		id := models.TradeID("EURUSD", record.Timestamp())
		assert.NoError(t, store.Put(ctx, "trades", id, record))
	}

	records, err := store.Query(ctx, "trades", 2)
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	// Most recent first
	assert.Equal(t, "2024.03.15 10:05:00", records[0].Timestamp())
	assert.Equal(t, "2024.03.15 10:04:00", records[1].Timestamp())
}

func TestSQLiteStore_PutOverwrites(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	first := models.TradeRecord{"symbol": "EURUSD", "timestamp": "2024.03.15 10:30:00", "profit": 1.0}
	second := models.TradeRecord{"symbol": "EURUSD", "timestamp": "2024.03.15 10:30:00", "profit": 2.0}

	assert.NoError(t, store.Put(ctx, "trades", "EURUSD_1", first))
	assert.NoError(t, store.Put(ctx, "trades", "EURUSD_1", second))

	got, err := store.Get(ctx, "trades", "EURUSD_1")
	assert.NoError(t, err)
	assert.Equal(t, 2.0, got.Profit())

	records, err := store.Query(ctx, "trades", 10)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSQLiteStore_CollectionsAreIsolated(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	record := models.TradeRecord{"symbol": "EURUSD", "timestamp": "2024.03.15 10:30:00"}
	assert.NoError(t, store.Put(ctx, "trades", "EURUSD_1", record))

	exists, err := store.Exists(ctx, "other", "EURUSD_1")
	assert.NoError(t, err)
	assert.False(t, exists)

	records, err := store.Query(ctx, "other", 10)
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStore_Ping(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
