package models

// Requests for the prediction HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	Interval string `query:"interval" json:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	Period   string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
}

type IndicatorsRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	Interval string `query:"interval" json:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	Period   string `query:"period" json:"period" default:"1y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y"`
}

type CandlesRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	Interval string `query:"interval" json:"interval" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	From     string `query:"from" json:"from,omitempty"`
	To       string `query:"to" json:"to,omitempty"`
	Limit    int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

// SignalResponse is the payload for an actionable prediction.
type SignalResponse struct {
	Symbol         string          `json:"symbol"`
	LastPrice      float64         `json:"last_price"`
	PredictedPrice float64         `json:"predicted_price"`
	Confidence     string          `json:"confidence"` // "12.00%"
	TradeSignal    SignalAction    `json:"trade_signal"`
	Fibonacci      FibonacciLevels `json:"fibonacci_levels"`
	Trend          string          `json:"trend"`
	Arbitrage      float64         `json:"arbitrage_signal"`
	Pattern        string          `json:"pattern"`
}

// SignalsRequest queries stored signals for one symbol.
type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

// StoredSignalResponse is one persisted signal record.
type StoredSignalResponse struct {
	CreatedAt      int64   `json:"created_at"`
	Symbol         string  `json:"symbol"`
	Action         string  `json:"action"`
	Confidence     string  `json:"confidence"`
	PredictedPrice float64 `json:"predicted_price"`
	LastPrice      float64 `json:"last_price"`
	Trend          string  `json:"trend"`
	Arbitrage      float64 `json:"arbitrage_signal"`
	Pattern        string  `json:"pattern"`
}

// SignalsResponse lists recent stored signals, newest first.
type SignalsResponse struct {
	Symbol  string                 `json:"symbol"`
	Count   int                    `json:"count"`
	Signals []StoredSignalResponse `json:"signals"`
}

// NoSignalResponse is the payload when the confidence gate rejects the move.
type NoSignalResponse struct {
	Message    string `json:"message"`
	Confidence string `json:"confidence"`
}

// IndicatorRowResponse is one enriched bar in the indicators payload.
type IndicatorRowResponse struct {
	Time      int64   `json:"time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	EMA50     float64 `json:"ema_50"`
	EMA200    float64 `json:"ema_200"`
	BollHigh  float64 `json:"boll_high"`
	BollLow   float64 `json:"boll_low"`
	StochRSI  float64 `json:"stoch_rsi"`
	Trend     string  `json:"trend"`
	Arbitrage float64 `json:"arbitrage_signal"`
	Pattern   string  `json:"pattern"`
}

// IndicatorsResponse is the full derived-feature payload for one window.
type IndicatorsResponse struct {
	Symbol    string                 `json:"symbol"`
	Count     int                    `json:"count"`
	Fibonacci FibonacciLevels        `json:"fibonacci_levels"`
	Rows      []IndicatorRowResponse `json:"rows"`
}
