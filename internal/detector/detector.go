package detector

import (
	"time"

	"github.com/ksred/strike-api/internal/marketdata"
	"github.com/ksred/strike-api/internal/types"
	"github.com/rs/zerolog/log"
)

const (
	pageLimit      = 1000
	candleInterval = time.Minute
)

// Detector answers window questions about price action between order
// creation and expiry by scanning 1-minute candles. It keeps no state
// across calls.
type Detector struct {
	market marketdata.Client
}

func New(market marketdata.Client) *Detector {
	return &Detector{market: market}
}

// Touched reports whether price reached the barrier at any point in
// [start, end). A fetch failure ends the scan as "not touched so far": the
// check turns inconclusive rather than the settlement crashing.
func (d *Detector) Touched(symbol string, barrier float64, start, end time.Time) bool {
	touched, err := d.scan(symbol, start, end, func(c marketdata.Candle) bool {
		return c.High >= barrier && c.Low <= barrier
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("symbol", symbol).
			Msg("candle fetch failed during touch scan, treating as not touched")
		return false
	}
	return touched
}

// Breached reports whether the protected side of the barrier was crossed at
// any point in [start, end). A fetch failure counts as a breach: a breach is
// irrevocable once it happens, so a window that cannot be disproven counts
// against the contract.
func (d *Detector) Breached(symbol, side string, barrier float64, start, end time.Time) bool {
	predicate := func(c marketdata.Candle) bool {
		return c.Low < barrier
	}
	if side == types.SideDown {
		predicate = func(c marketdata.Candle) bool {
			return c.High > barrier
		}
	}

	breached, err := d.scan(symbol, start, end, predicate)
	if err != nil {
		log.Warn().
			Err(err).
			Str("symbol", symbol).
			Msg("candle fetch failed during breach scan, assuming breach")
		return true
	}
	return breached
}

// scan pages through candles from start until the predicate hits, a candle
// falls past end, or the feed is exhausted. A page that does not advance the
// cursor is treated as exhausted to guard against a stalled feed.
func (d *Detector) scan(symbol string, start, end time.Time, hit func(marketdata.Candle) bool) (bool, error) {
	from := start
	for from.Before(end) {
		candles, err := d.market.Candles(symbol, from, pageLimit)
		if err != nil {
			return false, err
		}
		if len(candles) == 0 {
			return false, nil
		}

		for _, c := range candles {
			if !time.UnixMilli(c.OpenTime).Before(end) {
				return false, nil
			}
			if hit(c) {
				return true, nil
			}
		}

		next := time.UnixMilli(candles[len(candles)-1].OpenTime).Add(candleInterval)
		if !next.After(from) {
			return false, nil
		}
		from = next
	}
	return false, nil
}
