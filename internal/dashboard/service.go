package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"forex-dashboard-go/internal/models"
	"forex-dashboard-go/internal/storage"
	"go.uber.org/zap"
)

const (
	// DefaultListLimit caps trade listings when the caller gives no limit.
	DefaultListLimit = 50

	// statsWindow and equityWindow bound how many recent trades feed the
	// derived views.
	statsWindow  = 1000
	equityWindow = 100

	noTradesSentinel = "No trades yet"
)

// Service computes the dashboard's derived views over the stored trades.
type Service struct {
	logger     *zap.Logger
	store      storage.Store
	collection string
	timeout    time.Duration
}

// NewService creates a new aggregation service reading the given collection.
func NewService(logger *zap.Logger, store storage.Store, collection string, timeout time.Duration) *Service {
	return &Service{
		logger:     logger,
		store:      store,
		collection: collection,
		timeout:    timeout,
	}
}

// RecentTrades returns up to limit trades ordered by timestamp descending.
// Storage failures surface to the caller so the HTTP layer can distinguish
// an empty store from an unreachable one.
func (s *Service) RecentTrades(ctx context.Context, limit int) ([]models.TradeRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	trades, err := s.store.Query(ctx, s.collection, limit)
	if err != nil {
		s.logger.Warn("Failed to read trade window", zap.Int("limit", limit), zap.Error(err))
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}
	return trades, nil
}

// Stats computes the summary statistics over the most recent trades.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	trades, err := s.RecentTrades(ctx, statsWindow)
	if err != nil {
		return models.Stats{}, err
	}
	return CalculateStats(trades), nil
}

// EquityCurve computes the cumulative profit curve over the most recent
// trades.
func (s *Service) EquityCurve(ctx context.Context) ([]models.EquityPoint, error) {
	trades, err := s.RecentTrades(ctx, equityWindow)
	if err != nil {
		return nil, err
	}
	return BuildEquityCurve(trades), nil
}

// Diagnostics describes the storage connectivity probe backing /api/test.
type Diagnostics struct {
	TradeCount int
	Sample     models.TradeRecord
}

// Diagnostics pings the store and samples its contents.
func (s *Service) Diagnostics(ctx context.Context) (Diagnostics, error) {
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Ping(pingCtx); err != nil {
		return Diagnostics{}, fmt.Errorf("storage ping failed: %w", err)
	}

	trades, err := s.RecentTrades(ctx, statsWindow)
	if err != nil {
		return Diagnostics{}, err
	}

	diag := Diagnostics{TradeCount: len(trades)}
	if len(trades) > 0 {
		diag.Sample = trades[0]
	}
	return diag, nil
}

// CalculateStats summarizes a window of trades. The window is expected in
// timestamp-descending order; last_trade_time is taken from its head.
func CalculateStats(trades []models.TradeRecord) models.Stats {
	if len(trades) == 0 {
		return models.Stats{LastTradeTime: noTradesSentinel}
	}

	stats := models.Stats{TotalTrades: len(trades)}
	for _, trade := range trades {
		profit := trade.Profit()
		stats.TotalProfit += profit
		if profit > 0 {
			stats.WinningTrades++
		}
	}
	stats.LosingTrades = stats.TotalTrades - stats.WinningTrades
	stats.WinRate = round2(float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100)
	stats.AvgProfit = round2(stats.TotalProfit / float64(stats.TotalTrades))
	stats.TotalProfit = round2(stats.TotalProfit)

	stats.LastTradeTime = trades[0].Timestamp()
	if stats.LastTradeTime == "" {
		stats.LastTradeTime = "Unknown"
	}
	return stats
}

// BuildEquityCurve computes the running cumulative profit over trades sorted
// ascending by timestamp. The sort is stable, so ties keep their input order.
func BuildEquityCurve(trades []models.TradeRecord) []models.EquityPoint {
	sorted := make([]models.TradeRecord, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return models.SortKey(sorted[i].Timestamp()) < models.SortKey(sorted[j].Timestamp())
	})

	points := make([]models.EquityPoint, 0, len(sorted))
	running := 0.0
	for _, trade := range sorted {
		running += trade.Profit()

		date := trade.CloseTime()
		if date == "" {
			date = trade.Timestamp()
		}
		points = append(points, models.EquityPoint{Date: date, Equity: round2(running)})
	}
	return points
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
