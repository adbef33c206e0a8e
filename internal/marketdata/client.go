package marketdata

import "time"

// Candle is one fixed-granularity OHLCV bucket. OpenTime is epoch millis.
type Candle struct {
	OpenTime int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Client is the market-data collaborator the settlement engine depends on.
// Candles returns 1-minute buckets ordered ascending from the given instant,
// possibly short or empty near the present.
type Client interface {
	Ticker(symbol string) (float64, error)
	Candles(symbol string, from time.Time, limit int) ([]Candle, error)
}
