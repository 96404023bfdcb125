package usecase

import (
	"context"
	"fmt"
	"time"

	"MacroLens/internal/domain/models"
	"MacroLens/internal/domain/repository"
	"MacroLens/internal/domain/service"
	"MacroLens/internal/services/analytics"
	applogger "MacroLens/pkg/logger"
)

// AnalysisParams selects the symbols, period and tuning of one analysis.
// Zero Window or Threshold fall back to the analyzer defaults.
type AnalysisParams struct {
	Symbols   []string
	Start     time.Time
	End       time.Time
	Window    int
	Threshold float64
	Mode      models.NormalizeMode
}

// Report is the full output of one analysis run.
type Report struct {
	Load       *models.LoadResult     `json:"load"`
	Normalized *models.AlignedPanel   `json:"normalized,omitempty"`
	Metrics    []models.MetricsRow    `json:"metrics"`
	Anomalies  []models.AnomalyReport `json:"anomalies"`
	Regimes    []models.RegimeTrace   `json:"regimes"`
	Summary    models.RegimeSummary   `json:"summary"`
}

// Tuning holds the default window and threshold and the range a caller may
// ask for. A zero bound leaves that side open.
type Tuning struct {
	Window       int
	WindowMin    int
	WindowMax    int
	Threshold    float64
	ThresholdMin float64
	ThresholdMax float64
}

// Analyzer runs the analytics engines over loaded panels.
type Analyzer struct {
	loader    service.PanelLoader
	engine    *analytics.MetricsEngine
	publisher repository.ReportPublisher
	tuning    Tuning
	l         *applogger.Logger
}

func NewAnalyzer(loader service.PanelLoader, engine *analytics.MetricsEngine, publisher repository.ReportPublisher, tuning Tuning, l *applogger.Logger) *Analyzer {
	if publisher == nil {
		publisher = repository.NoopPublisher{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Analyzer{
		loader:    loader,
		engine:    engine,
		publisher: publisher,
		tuning:    tuning,
		l:         l,
	}
}

func (a *Analyzer) Panel(ctx context.Context, p AnalysisParams) (*models.LoadResult, error) {
	return a.loader.LoadPanel(ctx, p.Symbols, p.Start, p.End)
}

func (a *Analyzer) Normalized(ctx context.Context, p AnalysisParams) (*models.AlignedPanel, *models.LoadResult, error) {
	res, err := a.Panel(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	out, err := analytics.Normalize(&res.Panel, p.Mode)
	if err != nil {
		return nil, nil, err
	}
	return out, res, nil
}

func (a *Analyzer) Metrics(ctx context.Context, p AnalysisParams) ([]models.MetricsRow, *models.LoadResult, error) {
	res, err := a.Panel(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return a.engine.Compute(&res.Panel), res, nil
}

func (a *Analyzer) Anomalies(ctx context.Context, p AnalysisParams) ([]models.AnomalyReport, *models.LoadResult, error) {
	p, err := a.withDefaults(p)
	if err != nil {
		return nil, nil, err
	}
	res, err := a.Panel(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	reports, err := analytics.DetectAnomalies(&res.Panel, p.Window, p.Threshold)
	if err != nil {
		return nil, nil, err
	}
	return reports, res, nil
}

func (a *Analyzer) Regimes(ctx context.Context, p AnalysisParams) ([]models.RegimeTrace, *models.LoadResult, error) {
	p, err := a.withDefaults(p)
	if err != nil {
		return nil, nil, err
	}
	res, err := a.Panel(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	traces, err := analytics.ClassifyRegimes(&res.Panel, p.Window)
	if err != nil {
		return nil, nil, err
	}
	return traces, res, nil
}

// Analyze loads the panel once, runs every engine and publishes one summary
// event per symbol. Publishing failures are logged, not returned.
func (a *Analyzer) Analyze(ctx context.Context, p AnalysisParams) (*Report, error) {
	p, err := a.withDefaults(p)
	if err != nil {
		return nil, err
	}
	res, err := a.Panel(ctx, p)
	if err != nil {
		return nil, err
	}

	rep := &Report{Load: res, Metrics: a.engine.Compute(&res.Panel)}
	if p.Mode != "" {
		if rep.Normalized, err = analytics.Normalize(&res.Panel, p.Mode); err != nil {
			return nil, err
		}
	}
	if rep.Anomalies, err = analytics.DetectAnomalies(&res.Panel, p.Window, p.Threshold); err != nil {
		return nil, err
	}
	if rep.Regimes, err = analytics.ClassifyRegimes(&res.Panel, p.Window); err != nil {
		return nil, err
	}
	rep.Summary = analytics.SummarizeRegimes(rep.Regimes)

	if err := a.publisher.PublishBatch(ctx, Events(rep, p.Start, p.End, time.Now().UTC())); err != nil {
		a.l.Warn("publish analysis events failed", applogger.Error(err))
	}
	a.l.Info("analysis finished",
		applogger.String("params", p.String()),
		applogger.Int("symbols", len(res.Panel.Symbols)),
		applogger.Int("failed", len(res.Failures)),
	)
	return rep, nil
}

// withDefaults fills zero parameters from the tuning and rejects explicit
// values outside the configured range before anything is loaded.
func (a *Analyzer) withDefaults(p AnalysisParams) (AnalysisParams, error) {
	t := a.tuning
	if p.Window == 0 {
		p.Window = t.Window
	} else if (t.WindowMin > 0 && p.Window < t.WindowMin) || (t.WindowMax > 0 && p.Window > t.WindowMax) {
		return p, fmt.Errorf("%w: got %d, allowed %d..%d", analytics.ErrInvalidWindow, p.Window, t.WindowMin, t.WindowMax)
	}
	if p.Threshold == 0 {
		p.Threshold = t.Threshold
	} else if (t.ThresholdMin > 0 && p.Threshold < t.ThresholdMin) || (t.ThresholdMax > 0 && p.Threshold > t.ThresholdMax) {
		return p, fmt.Errorf("%w: got %g, allowed %g..%g", analytics.ErrInvalidThreshold, p.Threshold, t.ThresholdMin, t.ThresholdMax)
	}
	return p, nil
}

// Events flattens a report into one summary event per panel symbol.
func Events(rep *Report, start, end, now time.Time) []models.AnalysisEvent {
	metrics := make(map[string]*models.MetricsRow, len(rep.Metrics))
	for i := range rep.Metrics {
		metrics[rep.Metrics[i].Symbol] = &rep.Metrics[i]
	}
	anomalies := make(map[string]int, len(rep.Anomalies))
	for _, r := range rep.Anomalies {
		anomalies[r.Symbol] = len(r.Anomalies)
	}
	regimes := make(map[string]models.RegimeLabel, len(rep.Regimes))
	for _, t := range rep.Regimes {
		regimes[t.Symbol] = t.Current
	}

	events := make([]models.AnalysisEvent, 0, len(rep.Load.Panel.Symbols))
	for _, sym := range rep.Load.Panel.Symbols {
		regime, ok := regimes[sym]
		if !ok {
			regime = models.RegimeUnavailable
		}
		events = append(events, models.AnalysisEvent{
			Symbol:      sym,
			Start:       start,
			End:         end,
			Metrics:     metrics[sym],
			Anomalies:   anomalies[sym],
			Regime:      regime,
			GeneratedAt: now,
		})
	}
	return events
}

// String renders the params for logs.
func (p AnalysisParams) String() string {
	return fmt.Sprintf("symbols=%v start=%s end=%s window=%d threshold=%g",
		p.Symbols, p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly), p.Window, p.Threshold)
}
