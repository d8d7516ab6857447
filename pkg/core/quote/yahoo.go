// Package quote retrieves the last traded price for a symbol from Yahoo
// Finance's chart API.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/shopspring/decimal"
)

const chartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s?range=1d&interval=1d"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"

// Client fetches quotes with a bounded timeout.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a quote client; zero timeout defaults to 15s.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// chartResponse is the slice of Yahoo's chart payload we care about.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// LastPrice returns the last traded price for a fully-qualified symbol
// (e.g. "VHY.AX").
func (c *Client) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(chartURL, symbol), nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("quote fetch for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("quote fetch for %s: status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("quote read for %s: %w", symbol, err)
	}

	return parseChart(body, symbol)
}

// parseChart extracts the last price from a chart payload. Truncated or
// sloppy JSON (observed when Yahoo rate-limits) goes through a repair pass
// before giving up.
func parseChart(body []byte, symbol string) (decimal.Decimal, error) {
	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		repaired, rerr := jsonrepair.RepairJSON(string(body))
		if rerr != nil {
			return decimal.Decimal{}, fmt.Errorf("quote payload for %s: %w", symbol, err)
		}
		if err := json.Unmarshal([]byte(repaired), &cr); err != nil {
			return decimal.Decimal{}, fmt.Errorf("quote payload for %s after repair: %w", symbol, err)
		}
	}

	if cr.Chart.Error != nil {
		return decimal.Decimal{}, fmt.Errorf("quote for %s: %s (%s)", symbol, cr.Chart.Error.Description, cr.Chart.Error.Code)
	}
	if len(cr.Chart.Result) == 0 {
		return decimal.Decimal{}, fmt.Errorf("quote for %s: empty result", symbol)
	}

	price := cr.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return decimal.Decimal{}, fmt.Errorf("quote for %s: no market price in payload", symbol)
	}
	return decimal.NewFromFloat(price), nil
}
