package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownCategory = errors.New("unknown category")

// Catalog maps category names to instrument symbols.
type Catalog struct {
	categories map[string][]string
}

// Category is one catalog entry.
type Category struct {
	Name    string   `json:"name"`
	Symbols []string `json:"symbols"`
}

func New(categories map[string][]string) *Catalog {
	if categories == nil {
		categories = Default()
	}
	return &Catalog{categories: categories}
}

// Categories lists entries sorted by name.
func (c *Catalog) Categories() []Category {
	out := make([]Category, 0, len(c.categories))
	for name, syms := range c.categories {
		out = append(out, Category{Name: name, Symbols: append([]string(nil), syms...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve expands categories plus manually entered tickers into a sorted,
// de-duplicated symbol list. Manual tickers are trimmed and upper-cased.
func (c *Catalog) Resolve(categories []string, extra []string) ([]string, error) {
	set := map[string]struct{}{}
	for _, name := range categories {
		syms, ok := c.categories[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		for _, s := range syms {
			set[s] = struct{}{}
		}
	}
	for _, s := range extra {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			set[s] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// Default is the built-in macro dashboard catalog, used when no catalog is
// configured.
func Default() map[string][]string {
	return map[string][]string{
		"US Bonds":                 {"TLT", "IEF", "SHY", "GOVT"},
		"Emerging Bonds":           {"EMB", "PCY", "VWOB"},
		"US Equities":              {"SPY", "QQQ", "IWM", "DIA"},
		"International Equities":   {"VEA", "VWO", "IEFA"},
		"Agricultural Commodities": {"DBA", "SOIL", "CORN", "WEAT"},
		"Energy":                   {"USO", "XLE", "UNG", "ICLN"},
		"Precious Metals":          {"GLD", "SLV", "PPLT", "PDBC"},
		"Industrial Metals":        {"COPX", "JJN", "REMX"},
		"Real Estate":              {"VNQ", "SCHH", "REM"},
		"Currencies":               {"UUP", "FXE", "FXY", "FXB"},
		"Macro Indicators":         {"^TNX", "^VIX", "TIP", "^IRX"},
		"Crypto":                   {"BTC-USD", "ETH-USD", "COIN"},
		"Mag 7":                    {"AAPL", "MSFT", "AMZN", "NVDA", "GOOGL", "META", "TSLA"},
		"China":                    {"MCHI", "FXI", "ASHR", "BABA", "JD"},
		"Europe":                   {"EZU", "VGK", "IEUR"},
		"Japan":                    {"EWJ", "DXJ", "IEFA"},
	}
}
