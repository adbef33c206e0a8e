package marketdata

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// BinanceClient fetches public market data from the Binance REST API.
type BinanceClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBinanceClient builds a REST client. The request timeout bounds every
// price and candle fetch so a stalled exchange cannot hold a settlement
// timer indefinitely.
func NewBinanceClient(baseURL string) *BinanceClient {
	return &BinanceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Ticker returns the last traded price for a symbol.
func (c *BinanceClient) Ticker(symbol string) (float64, error) {
	u := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.baseURL, url.QueryEscape(symbol))
	res, err := c.httpClient.Get(u)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("ticker status %d", res.StatusCode)
	}

	var resp struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing ticker price %q: %w", resp.Price, err)
	}
	return price, nil
}

// Candles fetches 1-minute klines starting at from using the public endpoint.
func (c *BinanceClient) Candles(symbol string, from time.Time, limit int) ([]Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", "1m")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	params.Set("startTime", strconv.FormatInt(from.UnixMilli(), 10))

	u := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, params.Encode())
	res, err := c.httpClient.Get(u)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("klines status %d", res.StatusCode)
	}

	var raw [][]any
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, err
	}

	candles := make([]Candle, 0, len(raw))
	for _, item := range raw {
		// Binance returns 12 fields per kline
		if len(item) < 6 {
			continue
		}
		candles = append(candles, Candle{
			OpenTime: toInt64(item[0]),
			Open:     toFloat(item[1]),
			High:     toFloat(item[2]),
			Low:      toFloat(item[3]),
			Close:    toFloat(item[4]),
			Volume:   toFloat(item[5]),
		})
	}
	return candles, nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64:
		return t
	default:
		return 0
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case json.Number:
		i, _ := t.Int64()
		return i
	default:
		return 0
	}
}
