package marketdata

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// TickerCache caches last-trade prices in Redis with a short TTL so a burst
// of settlements on the same symbol does not hammer the exchange. Candle
// fetches pass through uncached; the detector pages through history that a
// TTL cache cannot usefully hold.
type TickerCache struct {
	next  Client
	redis *redis.Client
	ttl   time.Duration
}

func NewTickerCache(next Client, rdb *redis.Client, ttl time.Duration) *TickerCache {
	return &TickerCache{
		next:  next,
		redis: rdb,
		ttl:   ttl,
	}
}

func (t *TickerCache) Ticker(symbol string) (float64, error) {
	ctx := context.Background()
	key := "ticker:" + symbol

	if price, err := t.redis.Get(ctx, key).Float64(); err == nil {
		return price, nil
	}

	price, err := t.next.Ticker(symbol)
	if err != nil {
		return 0, err
	}

	if err := t.redis.Set(ctx, key, price, t.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("failed to cache ticker price")
	}
	return price, nil
}

func (t *TickerCache) Candles(symbol string, from time.Time, limit int) ([]Candle, error) {
	return t.next.Candles(symbol, from, limit)
}
