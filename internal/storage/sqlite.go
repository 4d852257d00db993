package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"forex-dashboard-go/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is one stored trade record. The payload keeps the full
// semi-structured record as JSON; sort_key is extracted at write time so the
// store can serve ordered windows without decoding every row.
type Document struct {
	ID         uint   `gorm:"primarykey"`
	Collection string `gorm:"uniqueIndex:idx_collection_doc;index:idx_collection_sort,priority:1"`
	DocID      string `gorm:"uniqueIndex:idx_collection_doc"`
	SortKey    string `gorm:"index:idx_collection_sort,priority:2"`
	Payload    []byte
	IngestedAt time.Time
}

// SQLiteStore is a Store backed by a local sqlite database.
type SQLiteStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dsn and migrates the
// document schema.
func NewSQLiteStore(dsn string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Exists reports whether a document with the given id is present.
func (s *SQLiteStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Document{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check document %s: %w", id, err)
	}
	return count > 0, nil
}

// Get fetches a single document by id.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (models.TradeRecord, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return decodeRecord(doc.Payload)
}

// Put writes a document, fully overwriting any existing one under the same id.
func (s *SQLiteStore) Put(ctx context.Context, collection, id string, record models.TradeRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	doc := Document{
		Collection: collection,
		DocID:      id,
		SortKey:    models.SortKey(record.Timestamp()),
		Payload:    payload,
		IngestedAt: time.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		UpdateAll: true,
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("failed to put document %s: %w", id, err)
	}
	return nil
}

// Query returns up to limit documents ordered by timestamp descending.
func (s *SQLiteStore) Query(ctx context.Context, collection string, limit int) ([]models.TradeRecord, error) {
	var docs []Document
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("sort_key desc").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", collection, err)
	}

	records := make([]models.TradeRecord, 0, len(docs))
	for _, doc := range docs {
		record, err := decodeRecord(doc.Payload)
		if err != nil {
			s.logger.Warn("Skipping undecodable document", zap.String("doc_id", doc.DocID), zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Ping verifies the underlying database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// decodeRecord unmarshals a stored payload and strips the ingestion
// timestamp so it never leaves the storage layer.
func decodeRecord(payload []byte) (models.TradeRecord, error) {
	var record models.TradeRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, err
	}
	delete(record, models.IngestedAtField)
	return record, nil
}
