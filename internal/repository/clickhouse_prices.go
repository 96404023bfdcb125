package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"MacroLens/internal/domain/models"
	applogger "MacroLens/pkg/logger"
)

// PriceTableSchema creates the daily-bar table read by CHPriceStore.
const PriceTableSchema = "CREATE TABLE IF NOT EXISTS %s (symbol LowCardinality(String), date Date, close Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, date)"

// CHPriceStore reads and writes daily bars in ClickHouse. As a price source it
// returns every column of the table except symbol and date, so the frame
// labels follow whatever schema the table has.
type CHPriceStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPriceStore(db *sql.DB, table string, l *applogger.Logger) *CHPriceStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceStore{db: db, table: table, l: l}
}

func (s *CHPriceStore) Name() string { return "clickhouse" }

func (s *CHPriceStore) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*models.Frame, error) {
	began := time.Now()
	q := fmt.Sprintf("SELECT * FROM %s WHERE symbol = ? AND date >= ? AND date < ? ORDER BY date ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, start, end)
	if err != nil {
		s.l.Error("clickhouse fetch_daily query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query daily bars: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	dateIdx := -1
	frame := &models.Frame{}
	colOf := make([]int, len(names))
	for i, n := range names {
		switch strings.ToLower(n) {
		case "date":
			dateIdx = i
			colOf[i] = -1
		case "symbol":
			colOf[i] = -1
		default:
			colOf[i] = len(frame.Columns)
			frame.Columns = append(frame.Columns, models.Column{Levels: []string{n}})
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("table %s has no date column", s.table)
	}

	cells := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range cells {
		ptrs[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			s.l.Error("clickhouse fetch_daily scan error",
				applogger.String("table", s.table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		d, ok := cells[dateIdx].(time.Time)
		if !ok {
			return nil, fmt.Errorf("date column has type %T", cells[dateIdx])
		}
		frame.Index = append(frame.Index, d.UTC())
		for i, c := range colOf {
			if c >= 0 {
				frame.Columns[c].Values = append(frame.Columns[c].Values, cells[i])
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse fetch_daily ok",
		applogger.String("table", s.table),
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(frame.Index)),
		applogger.Duration("duration_ms", time.Since(began)),
	)
	return frame, nil
}

// StoreSeries writes cleaned closes, chunked into multi-row inserts.
func (s *CHPriceStore) StoreSeries(ctx context.Context, series *models.PriceSeries) error {
	const chunkSize = 2000
	obs := series.Observations
	for start := 0; start < len(obs); start += chunkSize {
		end := min(start+chunkSize, len(obs))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, o := range obs[start:end] {
			values = append(values, "(?, ?, ?)")
			args = append(args, series.Symbol, o.Date, o.Price)
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, date, close) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert bars for %s: %w", series.Symbol, err)
		}
	}
	return nil
}

// Health pings the database.
func (s *CHPriceStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
