package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"TradeSage/internal/domain/models"
	drepo "TradeSage/internal/domain/repository"
	pkgcache "TradeSage/pkg/cache"
	xhttp "TradeSage/pkg/http"
	applogger "TradeSage/pkg/logger"
)

const (
	maxKlinesPerPage = 1000
	barsCacheTTL     = time.Minute
)

// Client fetches historical OHLCV bars from the Binance klines REST API.
// Responses are memoized briefly so repeated predict calls for the same
// symbol do not hammer the exchange.
type Client struct {
	http    *xhttp.Client
	baseURL string
	memo    *pkgcache.MemoryCache
	l       *applogger.Logger
}

// New creates a Binance-backed MarketData provider.
func New(baseURL string, l *applogger.Logger) drepo.MarketData {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &Client{
		http:    xhttp.NewClient(xhttp.WithTimeout(30 * time.Second)),
		baseURL: baseURL,
		memo:    pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(256)),
		l:       l,
	}
}

// GetBars fetches the whole lookback period, paging through the klines
// endpoint in exchange-capped chunks. Bars come back in ascending order.
func (c *Client) GetBars(ctx context.Context, symbol string, iv drepo.Interval, period string) ([]models.Bar, error) {
	key := symbol + "|" + string(iv) + "|" + period
	var cached interface{}
	if err := c.memo.Get(ctx, key, &cached); err == nil {
		if bars, ok := cached.([]models.Bar); ok {
			return bars, nil
		}
	}

	end := time.Now().UTC()
	start := end.Add(-drepo.PeriodDuration(period))

	var bars []models.Bar
	cursor := start
	for cursor.Before(end) {
		page, err := c.fetchPage(ctx, symbol, iv, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		bars = append(bars, page...)
		next := page[len(page)-1].Bucket.Add(iv.Duration())
		if !next.After(cursor) {
			break
		}
		cursor = next
		if len(page) < maxKlinesPerPage {
			break
		}
	}

	c.l.Debug("klines fetched",
		applogger.String("symbol", symbol),
		applogger.String("interval", string(iv)),
		applogger.Int("bars", len(bars)),
	)
	if len(bars) > 0 {
		_ = c.memo.Set(ctx, key, bars, barsCacheTTL)
	}
	return bars, nil
}

func (c *Client) fetchPage(ctx context.Context, symbol string, iv drepo.Interval, from, to time.Time) ([]models.Bar, error) {
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":    {symbol},
			"interval":  {string(iv)},
			"startTime": {strconv.FormatInt(from.UnixMilli(), 10)},
			"endTime":   {strconv.FormatInt(to.UnixMilli(), 10)},
			"limit":     {strconv.Itoa(maxKlinesPerPage)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("klines request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("klines status %d: %s", resp.StatusCode, string(body))
	}

	var raw [][]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode klines: %w", err)
	}
	return parseKlines(symbol, raw)
}

// parseKlines converts the exchange's positional array format:
// [openTime, open, high, low, close, volume, closeTime, ...].
func parseKlines(symbol string, raw [][]interface{}) ([]models.Bar, error) {
	bars := make([]models.Bar, 0, len(raw))
	for _, k := range raw {
		if len(k) < 6 {
			continue
		}
		openTime, ok := k[0].(float64)
		if !ok {
			return nil, fmt.Errorf("kline open time has type %T", k[0])
		}
		vals := make([]float64, 5)
		for i := 1; i <= 5; i++ {
			s, ok := k[i].(string)
			if !ok {
				return nil, fmt.Errorf("kline field %d has type %T", i, k[i])
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("kline field %d: %w", i, err)
			}
			vals[i-1] = v
		}
		bars = append(bars, models.Bar{
			Bucket: time.UnixMilli(int64(openTime)).UTC(),
			Symbol: symbol,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return bars, nil
}
