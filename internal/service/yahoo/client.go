package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/domain/repository"
	xhttp "MacroLens/pkg/http"
	"MacroLens/pkg/util"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches daily bars from the Yahoo Finance v8 chart API and exposes
// them as raw frames.
type Client struct {
	http          *xhttp.Client
	baseURL       string
	autoAdjust    bool
	groupByTicker bool
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithAutoAdjust replaces Close by the split/dividend adjusted close and
// rescales Open, High and Low by the same factor.
func WithAutoAdjust(on bool) Option {
	return func(c *Client) { c.autoAdjust = on }
}

// WithGroupByTicker labels columns as (symbol, field).
func WithGroupByTicker(on bool) Option {
	return func(c *Client) { c.groupByTicker = on }
}

func New(httpClient *xhttp.Client, opts ...Option) *Client {
	c := &Client{
		http:       httpClient,
		baseURL:    DefaultBaseURL,
		autoAdjust: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "yahoo" }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []interface{} `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily returns the daily bars of symbol over [start, end). An unknown
// symbol or a period without trading yields an empty frame, not an error.
func (c *Client) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*models.Frame, error) {
	resp, err := c.http.Get(ctx, fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol)), url.Values{
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
		"interval": {"1d"},
		"events":   {"div,splits"},
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, statusError(symbol, resp.StatusCode)
		}
		return nil, &repository.SymbolError{Symbol: symbol, Err: fmt.Errorf("yahoo decode: %w", err)}
	}
	if e := chart.Chart.Error; e != nil {
		if e.Code == "Not Found" || resp.StatusCode == http.StatusNotFound {
			return &models.Frame{}, nil
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("yahoo api error: %s", e.Description)
		}
		return nil, &repository.SymbolError{Symbol: symbol, Err: fmt.Errorf("yahoo api error: %s", e.Description)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(symbol, resp.StatusCode)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return &models.Frame{}, nil
	}
	return c.toFrame(symbol, chart, start, end), nil
}

// statusError scopes 4xx answers to the symbol. Throttling and 5xx are
// failures of the service itself.
func statusError(symbol string, code int) error {
	err := fmt.Errorf("yahoo: status %d", code)
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return &repository.SymbolError{Symbol: symbol, Err: err}
	}
	return err
}

func (c *Client) toFrame(symbol string, chart chartResponse, start, end time.Time) *models.Frame {
	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adj []interface{}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	fields := []string{"Open", "High", "Low", "Close", "Volume"}
	if !c.autoAdjust && adj != nil {
		fields = append(fields, "Adj Close")
	}
	series := map[string][]interface{}{
		"Open":      quote.Open,
		"High":      quote.High,
		"Low":       quote.Low,
		"Close":     quote.Close,
		"Volume":    quote.Volume,
		"Adj Close": adj,
	}

	frame := &models.Frame{Columns: make([]models.Column, len(fields))}
	for i, f := range fields {
		levels := []string{f}
		if c.groupByTicker {
			levels = []string{symbol, f}
		}
		frame.Columns[i] = models.Column{Levels: levels}
	}

	for i, ts := range result.Timestamp {
		day := util.Day(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		if day.Before(start) || !day.Before(end) {
			continue
		}
		frame.Index = append(frame.Index, day)

		factor, adjusted := adjustFactor(at(quote.Close, i), at(adj, i))
		for j, f := range fields {
			v := at(series[f], i)
			if c.autoAdjust {
				switch f {
				case "Close":
					v = at(adj, i)
					if adj == nil {
						v = at(quote.Close, i)
					}
				case "Open", "High", "Low":
					if adjusted {
						if x, ok := v.(float64); ok {
							v = x * factor
						}
					}
				}
			}
			frame.Columns[j].Values = append(frame.Columns[j].Values, v)
		}
	}
	return frame
}

func at(s []interface{}, i int) interface{} {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func adjustFactor(raw, adj interface{}) (float64, bool) {
	c, ok1 := raw.(float64)
	a, ok2 := adj.(float64)
	if !ok1 || !ok2 || c == 0 {
		return 1, false
	}
	return a / c, true
}
