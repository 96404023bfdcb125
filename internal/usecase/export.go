package usecase

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"MacroLens/internal/domain/models"
)

// MetricsHeader is the column order of the metrics export.
var MetricsHeader = []string{
	"Symbol", "Total Return (%)", "Annualized Return (%)", "Volatility (%)", "Sharpe",
	"Max Drawdown (%)", "VaR 95% (%)", "Calmar", "Skewness", "Kurtosis", "Observations",
}

// WritePanelCSV encodes the panel indexed by date. Missing cells are empty.
func WritePanelCSV(w io.Writer, p *models.AlignedPanel) error {
	cw := csv.NewWriter(w)
	header := append([]string{"Date"}, p.Symbols...)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for r, d := range p.Dates {
		rec[0] = d.Format(time.DateOnly)
		for c := range p.Symbols {
			v := p.Values[c][r]
			if math.IsNaN(v) {
				rec[c+1] = ""
				continue
			}
			rec[c+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParsePanelCSV decodes the output of WritePanelCSV.
func ParsePanelCSV(r io.Reader) (*models.AlignedPanel, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 || header[0] != "Date" {
		return nil, fmt.Errorf("first column must be Date")
	}
	p := &models.AlignedPanel{
		Symbols: append([]string(nil), header[1:]...),
		Values:  make([][]float64, len(header)-1),
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		d, err := time.Parse(time.DateOnly, rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p.Dates = append(p.Dates, d)
		for c, cell := range rec[1:] {
			v := math.NaN()
			if cell != "" {
				if v, err = strconv.ParseFloat(cell, 64); err != nil {
					return nil, fmt.Errorf("line %d column %s: %w", line, p.Symbols[c], err)
				}
			}
			p.Values[c] = append(p.Values[c], v)
		}
	}
	return p, nil
}

// WriteMetricsCSV encodes the metrics table without an index column.
func WriteMetricsCSV(w io.Writer, rows []models.MetricsRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MetricsHeader); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	for _, m := range rows {
		if err := cw.Write([]string{
			m.Symbol, f(m.TotalReturn), f(m.AnnualizedReturn), f(m.Volatility), f(m.Sharpe),
			f(m.MaxDrawdown), f(m.VaR95), f(m.Calmar), f(m.Skewness), f(m.Kurtosis),
			strconv.Itoa(m.Observations),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
