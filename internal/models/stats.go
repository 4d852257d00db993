package models

// Stats summarizes a window of trades. Computed fresh on every read; never
// persisted.
type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	TotalProfit   float64 `json:"total_profit"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	AvgProfit     float64 `json:"avg_profit"`
	LastTradeTime string  `json:"last_trade_time"`
}

// EquityPoint is one sample of the cumulative profit curve.
type EquityPoint struct {
	Date   string  `json:"date"`
	Equity float64 `json:"equity"`
}
