package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroLens/internal/domain/repository"
	xhttp "MacroLens/pkg/http"
)

// Three sessions at 09:30 New York time: Jan 2, Jan 3 and Jan 10 2024.
const chartBody = `{"chart":{"result":[{
  "meta":{"symbol":"SPY","gmtoffset":-18000},
  "timestamp":[1704205800,1704292200,1704897000],
  "indicators":{
    "quote":[{"open":[98,99,100],"high":[101,102,103],"low":[97,98,99],"close":[100,null,102],"volume":[1000,1100,1200]}],
    "adjclose":[{"adjclose":[50,null,51]}]
  }}],"error":null}}`

var (
	jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan5 = time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/SPY", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1704067200", r.URL.Query().Get("period1"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDailyAutoAdjust(t *testing.T) {
	srv := newServer(t, http.StatusOK, chartBody)
	c := New(xhttp.NewClient(), WithBaseURL(srv.URL))

	f, err := c.FetchDaily(context.Background(), "SPY", jan1, jan5)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}, f.Index)
	assert.Equal(t, []string{"Open", "High", "Low", "Close", "Volume"}, f.ColumnLabels())

	assert.Equal(t, []any{50.0, nil}, f.Columns[3].Values)
	assert.Equal(t, []any{49.0, 99.0}, f.Columns[0].Values)
	assert.Equal(t, []any{1000.0, 1100.0}, f.Columns[4].Values)
}

func TestFetchDailyRaw(t *testing.T) {
	srv := newServer(t, http.StatusOK, chartBody)
	c := New(xhttp.NewClient(), WithBaseURL(srv.URL), WithAutoAdjust(false), WithGroupByTicker(true))

	f, err := c.FetchDaily(context.Background(), "SPY", jan1, jan5)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"(SPY, Open)", "(SPY, High)", "(SPY, Low)", "(SPY, Close)", "(SPY, Volume)", "(SPY, Adj Close)",
	}, f.ColumnLabels())
	assert.Equal(t, []any{100.0, nil}, f.Columns[3].Values)
	assert.Equal(t, []any{50.0, nil}, f.Columns[5].Values)
}

func TestFetchDailyNotFound(t *testing.T) {
	srv := newServer(t, http.StatusNotFound,
		`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	c := New(xhttp.NewClient(), WithBaseURL(srv.URL))

	f, err := c.FetchDaily(context.Background(), "SPY", jan1, jan5)
	require.NoError(t, err)
	assert.True(t, f.Empty())
}

func TestFetchDailyErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      string
		perSymbol bool
	}{
		{"server error", http.StatusInternalServerError, "<html>oops</html>", "yahoo: status 500", false},
		{"throttled", http.StatusTooManyRequests, "Too Many Requests", "yahoo: status 429", false},
		{"api error", http.StatusBadRequest, `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`, "yahoo api error: Invalid input", true},
		{"unprocessable", http.StatusUnprocessableEntity, "nope", "yahoo: status 422", true},
		{"garbage", http.StatusOK, "{not json", "yahoo decode", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.status, tc.body)
			c := New(xhttp.NewClient(), WithBaseURL(srv.URL))
			_, err := c.FetchDaily(context.Background(), "SPY", jan1, jan5)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.Equal(t, tc.perSymbol, repository.IsSymbolError(err))
		})
	}
}
