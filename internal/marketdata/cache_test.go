package marketdata

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingClient struct {
	price   float64
	err     error
	tickers int
	candles int
}

func (c *countingClient) Ticker(symbol string) (float64, error) {
	c.tickers++
	return c.price, c.err
}

func (c *countingClient) Candles(symbol string, from time.Time, limit int) ([]Candle, error) {
	c.candles++
	return nil, nil
}

func newCacheUnderTest(t *testing.T, upstream Client) (*TickerCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTickerCache(upstream, rdb, 2*time.Second), mr
}

func TestTickerCache_ServesSecondHitFromCache(t *testing.T) {
	upstream := &countingClient{price: 20000}
	cache, _ := newCacheUnderTest(t, upstream)

	for i := 0; i < 3; i++ {
		price, err := cache.Ticker("BTCUSDT")
		if err != nil {
			t.Fatalf("Ticker() error = %v", err)
		}
		if price != 20000 {
			t.Errorf("price = %.2f, want 20000", price)
		}
	}
	if upstream.tickers != 1 {
		t.Errorf("upstream calls = %d, want 1", upstream.tickers)
	}
}

func TestTickerCache_ExpiredEntryRefetches(t *testing.T) {
	upstream := &countingClient{price: 20000}
	cache, mr := newCacheUnderTest(t, upstream)

	if _, err := cache.Ticker("BTCUSDT"); err != nil {
		t.Fatalf("Ticker() error = %v", err)
	}
	mr.FastForward(3 * time.Second)
	if _, err := cache.Ticker("BTCUSDT"); err != nil {
		t.Fatalf("Ticker() error = %v", err)
	}

	if upstream.tickers != 2 {
		t.Errorf("upstream calls = %d, want 2", upstream.tickers)
	}
}

func TestTickerCache_UpstreamErrorIsNotCached(t *testing.T) {
	upstream := &countingClient{err: errors.New("exchange down")}
	cache, _ := newCacheUnderTest(t, upstream)

	if _, err := cache.Ticker("BTCUSDT"); err == nil {
		t.Fatal("Ticker() error = nil, want upstream error")
	}

	upstream.err = nil
	upstream.price = 20000
	price, err := cache.Ticker("BTCUSDT")
	if err != nil {
		t.Fatalf("Ticker() error = %v", err)
	}
	if price != 20000 {
		t.Errorf("price = %.2f, want 20000", price)
	}
}

func TestTickerCache_CandlesBypassCache(t *testing.T) {
	upstream := &countingClient{price: 20000}
	cache, _ := newCacheUnderTest(t, upstream)

	for i := 0; i < 2; i++ {
		if _, err := cache.Candles("BTCUSDT", time.Now(), 1000); err != nil {
			t.Fatalf("Candles() error = %v", err)
		}
	}
	if upstream.candles != 2 {
		t.Errorf("upstream candle calls = %d, want 2", upstream.candles)
	}
}
