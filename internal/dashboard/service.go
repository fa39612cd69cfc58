package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"TickerLens/internal/calculator"
	"TickerLens/internal/collector"
	"TickerLens/internal/export"
	"TickerLens/internal/logger"
	"TickerLens/internal/metrics"
	"TickerLens/internal/model"
	"TickerLens/internal/strategy"
)

// DefaultPreviewRows is the number of trailing rows shown when the caller
// does not choose one.
const DefaultPreviewRows = 10

// Request is one dashboard query.
type Request struct {
	Symbol string
	Days   int
}

// ReferenceLevels are the horizontal lines drawn on the RSI chart.
type ReferenceLevels struct {
	Overbought float64 `json:"overbought"`
	Oversold   float64 `json:"oversold"`
}

// Report is the result of one dashboard query.
type Report struct {
	Symbol      string               `json:"symbol"`
	CompanyName string               `json:"company_name"`
	Currency    string               `json:"currency,omitempty"`
	Config      model.AnalysisConfig `json:"config"`
	Rows        []model.AnalysisRow  `json:"rows"`
	Preview     []model.AnalysisRow  `json:"preview"`
	Assessment  *model.Assessment    `json:"assessment"`
	RSILevels   ReferenceLevels      `json:"rsi_levels"`
	GeneratedAt time.Time            `json:"generated_at"`

	result *model.AnalysisResult
}

// Snapshot converts the report into the export input.
func (r *Report) Snapshot() *export.Snapshot {
	res := r.result
	if res == nil {
		res = &model.AnalysisResult{SMAWindow: r.Config.SMAWindow, RSIWindow: r.Config.RSIWindow, Rows: r.Rows}
	}
	return &export.Snapshot{
		Symbol:      r.Symbol,
		CompanyName: r.CompanyName,
		Config:      r.Config,
		Result:      res,
		GeneratedAt: r.GeneratedAt,
	}
}

// Service builds reports from fetched price series.
type Service struct {
	collector   *collector.Collector
	previewRows int
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

// NewService creates a Service reading prices through c. previewRows <= 0
// falls back to DefaultPreviewRows; m may be nil.
func NewService(c *collector.Collector, previewRows int, m *metrics.Metrics) *Service {
	if previewRows <= 0 {
		previewRows = DefaultPreviewRows
	}
	return &Service{
		collector:   c,
		previewRows: previewRows,
		metrics:     m,
		logger:      logger.Component("dashboard"),
		now:         time.Now,
	}
}

// Build validates the request, collects the series and runs the analysis.
// Errors keep their sentinel identity: collector.ErrInvalidSymbol,
// calculator.ErrDaysOutOfRange, collector.ErrEmptySeries and
// calculator.ErrInsufficientData.
func (s *Service) Build(ctx context.Context, req Request) (*Report, error) {
	symbol := collector.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		s.metrics.Analysis("invalid")
		return nil, collector.ErrInvalidSymbol
	}
	cfg, err := calculator.NewAnalysisConfig(req.Days)
	if err != nil {
		s.metrics.Analysis("invalid")
		return nil, err
	}

	series, err := s.collector.Collect(ctx, symbol, cfg.DaysToAnalyze)
	if err != nil {
		s.record(symbol, err)
		return nil, err
	}

	res, err := calculator.Analyze(series.Bars, cfg.SMAWindow, cfg.RSIWindow)
	if err != nil {
		s.record(symbol, err)
		return nil, err
	}

	report := &Report{
		Symbol:      symbol,
		CompanyName: series.CompanyName,
		Currency:    series.Currency,
		Config:      cfg,
		Rows:        res.Rows,
		Preview:     res.Tail(s.previewRows),
		Assessment:  strategy.Assess(res),
		RSILevels:   ReferenceLevels{Overbought: strategy.OverboughtLevel, Oversold: strategy.OversoldLevel},
		GeneratedAt: s.now().UTC(),
		result:      res,
	}
	s.metrics.Analysis("ok")
	s.logger.Info().
		Str("symbol", symbol).
		Int("days", cfg.DaysToAnalyze).
		Int("sma", cfg.SMAWindow).
		Int("rsi", cfg.RSIWindow).
		Int("rows", len(res.Rows)).
		Msg("analysis built")
	return report, nil
}

func (s *Service) record(symbol string, err error) {
	outcome := "error"
	switch {
	case errors.Is(err, collector.ErrEmptySeries):
		outcome = "empty"
	case errors.Is(err, calculator.ErrInsufficientData):
		outcome = "insufficient"
	}
	s.metrics.Analysis(outcome)
	s.logger.Warn().Str("symbol", symbol).Str("outcome", outcome).Err(err).Msg("analysis failed")
}
