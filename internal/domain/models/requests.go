package models

// Requests for the analytics HTTP endpoints. Symbols and Categories are comma
// separated lists; Start and End are YYYY-MM-DD. A zero Window or Threshold
// means the configured default; the configured range is enforced by the
// analyzer.

type PanelRequest struct {
	Symbols    string `query:"symbols" json:"symbols"`
	Categories string `query:"categories" json:"categories"`
	Start      string `query:"start" json:"start" validate:"required,datetime=2006-01-02"`
	End        string `query:"end" json:"end" validate:"required,datetime=2006-01-02"`
}

type NormalizeRequest struct {
	PanelRequest
	Mode string `query:"mode" json:"mode" default:"absolute" validate:"oneof=absolute base100 cumulative"`
}

type AnomalyRequest struct {
	PanelRequest
	Window    int     `query:"window" json:"window" validate:"omitempty,gt=0"`
	Threshold float64 `query:"threshold" json:"threshold" validate:"omitempty,gt=0"`
}

type RegimeRequest struct {
	PanelRequest
	Window int `query:"window" json:"window" validate:"omitempty,gt=0"`
}

// AnalyzeRequest runs every engine in one call.
type AnalyzeRequest struct {
	PanelRequest
	Window    int     `query:"window" json:"window" validate:"omitempty,gt=0"`
	Threshold float64 `query:"threshold" json:"threshold" validate:"omitempty,gt=0"`
	Mode      string  `query:"mode" json:"mode" validate:"omitempty,oneof=absolute base100 cumulative"`
}

type DiagnoseRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	Start  string `query:"start" json:"start" validate:"required,datetime=2006-01-02"`
	End    string `query:"end" json:"end" validate:"required,datetime=2006-01-02"`
}
