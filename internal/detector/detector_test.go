package detector

import (
	"errors"
	"testing"
	"time"

	"github.com/ksred/strike-api/internal/marketdata"
	"github.com/ksred/strike-api/internal/types"
)

// fakeFeed serves candles filtered by the requested start time, honouring
// the page limit the same way the exchange does.
type fakeFeed struct {
	candles []marketdata.Candle
	err     error
	calls   int
}

func (f *fakeFeed) Ticker(symbol string) (float64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeFeed) Candles(symbol string, from time.Time, limit int) ([]marketdata.Candle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []marketdata.Candle
	for _, c := range f.candles {
		if c.OpenTime >= from.UnixMilli() {
			out = append(out, c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// stalledFeed always returns the same candle regardless of the cursor,
// simulating a data feed stuck on one bucket.
type stalledFeed struct {
	candle marketdata.Candle
	calls  int
}

func (f *stalledFeed) Ticker(symbol string) (float64, error) {
	return 0, errors.New("not implemented")
}

func (f *stalledFeed) Candles(symbol string, from time.Time, limit int) ([]marketdata.Candle, error) {
	f.calls++
	return []marketdata.Candle{f.candle}, nil
}

func minuteCandles(start time.Time, count int, high, low float64) []marketdata.Candle {
	candles := make([]marketdata.Candle, count)
	for i := range candles {
		candles[i] = marketdata.Candle{
			OpenTime: start.Add(time.Duration(i) * time.Minute).UnixMilli(),
			High:     high,
			Low:      low,
		}
	}
	return candles
}

func TestTouched(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)

	tests := []struct {
		name    string
		candles []marketdata.Candle
		barrier float64
		want    bool
	}{
		{
			name:    "barrier inside candle range",
			candles: []marketdata.Candle{{OpenTime: start.UnixMilli(), High: 20100, Low: 19900}},
			barrier: 20000,
			want:    true,
		},
		{
			name:    "barrier above every high",
			candles: minuteCandles(start, 10, 19950, 19900),
			barrier: 20000,
			want:    false,
		},
		{
			name:    "barrier below every low",
			candles: minuteCandles(start, 10, 20100, 20050),
			barrier: 20000,
			want:    false,
		},
		{
			name:    "no candles at all",
			candles: nil,
			barrier: 20000,
			want:    false,
		},
		{
			name: "touch after window end is ignored",
			candles: []marketdata.Candle{
				{OpenTime: start.UnixMilli(), High: 19950, Low: 19900},
				{OpenTime: end.UnixMilli(), High: 20100, Low: 19900},
			},
			barrier: 20000,
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(&fakeFeed{candles: tt.candles})
			if got := d.Touched("BTCUSDT", tt.barrier, start, end); got != tt.want {
				t.Errorf("Touched() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTouched_PagesThroughLongWindows(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Minute)

	candles := minuteCandles(start, 1500, 19950, 19900)
	// Only one candle, deep into the second page, touches the barrier.
	candles[1200].High = 20100

	feed := &fakeFeed{candles: candles}
	d := New(feed)

	if !d.Touched("BTCUSDT", 20000, start, end) {
		t.Fatal("Touched() = false, want true")
	}
	if feed.calls < 2 {
		t.Errorf("expected at least 2 pages, got %d", feed.calls)
	}
}

func TestTouched_FetchErrorMeansNotTouched(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	d := New(&fakeFeed{err: errors.New("exchange down")})

	if d.Touched("BTCUSDT", 20000, start, time.Now()) {
		t.Error("Touched() = true on fetch error, want false")
	}
}

func TestTouched_StalledFeedTerminates(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	feed := &stalledFeed{candle: marketdata.Candle{OpenTime: start.UnixMilli(), High: 19950, Low: 19900}}
	d := New(feed)

	done := make(chan bool, 1)
	go func() {
		done <- d.Touched("BTCUSDT", 20000, start, end)
	}()

	select {
	case got := <-done:
		if got {
			t.Error("Touched() = true, want false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scan did not terminate on a stalled feed")
	}
}

func TestBreached(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)

	tests := []struct {
		name    string
		side    string
		candles []marketdata.Candle
		barrier float64
		want    bool
	}{
		{
			name:    "up side breached when low crosses under barrier",
			side:    types.SideUp,
			candles: []marketdata.Candle{{OpenTime: start.UnixMilli(), High: 20100, Low: 19900}},
			barrier: 20000,
			want:    true,
		},
		{
			name:    "up side holds above barrier",
			side:    types.SideUp,
			candles: minuteCandles(start, 10, 20200, 20050),
			barrier: 20000,
			want:    false,
		},
		{
			name:    "down side breached when high crosses over barrier",
			side:    types.SideDown,
			candles: []marketdata.Candle{{OpenTime: start.UnixMilli(), High: 20100, Low: 19900}},
			barrier: 20000,
			want:    true,
		},
		{
			name:    "down side holds below barrier",
			side:    types.SideDown,
			candles: minuteCandles(start, 10, 19950, 19800),
			barrier: 20000,
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(&fakeFeed{candles: tt.candles})
			if got := d.Breached("BTCUSDT", tt.side, tt.barrier, start, end); got != tt.want {
				t.Errorf("Breached() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBreached_FetchErrorMeansBreached(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	d := New(&fakeFeed{err: errors.New("exchange down")})

	if !d.Breached("BTCUSDT", types.SideUp, 20000, start, time.Now()) {
		t.Error("Breached() = false on fetch error, want true")
	}
}
