package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"TickerLens/internal/calculator"
	"TickerLens/internal/collector"
	"TickerLens/internal/dashboard"
	"TickerLens/internal/export"
	"TickerLens/internal/logger"
	"TickerLens/internal/metrics"
	"TickerLens/internal/strategy"
)

// ReportBuilder builds dashboard reports.
type ReportBuilder interface {
	Build(ctx context.Context, req dashboard.Request) (*dashboard.Report, error)
}

// Handler serves the dashboard page and the analysis API.
type Handler struct {
	Reports       ReportBuilder
	DefaultSymbol string
	DefaultDays   int
	Metrics       *metrics.Metrics

	logger zerolog.Logger
}

// NewHandler creates a Handler backed by reports. defaultSymbol and defaultDays
// fill in omitted query parameters; m may be nil.
func NewHandler(reports ReportBuilder, defaultSymbol string, defaultDays int, m *metrics.Metrics) *Handler {
	return &Handler{
		Reports:       reports,
		DefaultSymbol: defaultSymbol,
		DefaultDays:   defaultDays,
		Metrics:       m,
		logger:        logger.Component("api"),
	}
}

// RegisterRoutes mounts all routes on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.index)
	e.GET("/healthz", h.health)

	g := e.Group("/api")
	g.GET("/analysis", h.analysis)
	g.GET("/analysis/export", h.exportAnalysis)
}

// AnalysisQuery is the query string accepted by the analysis endpoints.
type AnalysisQuery struct {
	Symbol string `query:"symbol" validate:"required,max=15"`
	Days   int    `query:"days" validate:"min=30,max=180"`
}

// ExportQuery adds the download format to AnalysisQuery.
type ExportQuery struct {
	AnalysisQuery
	Format string `query:"format" default:"csv" validate:"oneof=csv xlsx db"`
}

func (h *Handler) fillDefaults(q *AnalysisQuery) func() {
	return func() {
		q.Symbol = collector.NormalizeSymbol(q.Symbol)
		if q.Symbol == "" {
			q.Symbol = h.DefaultSymbol
		}
		if q.Days == 0 {
			q.Days = h.DefaultDays
		}
	}
}

func (h *Handler) analysis(c echo.Context) error {
	var q AnalysisQuery
	if err := readAndValidateQuery(c, &q, h.fillDefaults(&q)); err != nil {
		return err
	}

	report, err := h.Reports.Build(c.Request().Context(), dashboard.Request{Symbol: q.Symbol, Days: q.Days})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    report,
	})
}

func (h *Handler) exportAnalysis(c echo.Context) error {
	var q ExportQuery
	fill := func() {
		h.fillDefaults(&q.AnalysisQuery)()
		q.Format = strings.ToLower(strings.TrimSpace(q.Format))
	}
	if err := readAndValidateQuery(c, &q, fill); err != nil {
		return err
	}
	format, err := export.ParseFormat(q.Format)
	if err != nil {
		return err
	}

	report, err := h.Reports.Build(c.Request().Context(), dashboard.Request{Symbol: q.Symbol, Days: q.Days})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, report.Snapshot()); err != nil {
		h.logger.Error().Err(err).Str("format", string(format)).Msg("export failed")
		return NewAppError(CodeInternal, "", "export failed", http.StatusInternalServerError).WithError(err)
	}
	h.Metrics.Export(string(format))

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.Filename(report.Symbol, format)))
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

type pageData struct {
	Symbol     string
	Days       int
	MinDays    int
	MaxDays    int
	DaysStep   int
	Overbought float64
	Oversold   float64
}

func (h *Handler) index(c echo.Context) error {
	data := pageData{
		Symbol:     h.DefaultSymbol,
		Days:       h.DefaultDays,
		MinDays:    calculator.MinDaysToAnalyze,
		MaxDays:    calculator.MaxDaysToAnalyze,
		DaysStep:   calculator.DaysStep,
		Overbought: strategy.OverboughtLevel,
		Oversold:   strategy.OversoldLevel,
	}
	if s := collector.NormalizeSymbol(c.QueryParam("symbol")); s != "" && len(s) <= 15 {
		data.Symbol = s
	}
	if days, err := strconv.Atoi(c.QueryParam("days")); err == nil &&
		days >= calculator.MinDaysToAnalyze && days <= calculator.MaxDaysToAnalyze {
		data.Days = days
	}
	return c.Render(http.StatusOK, "index.html", data)
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
