package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"TickerLens/internal/calculator"
	"TickerLens/internal/collector"
	"TickerLens/internal/dashboard"
	"TickerLens/internal/model"
)

type fakeAPI struct {
	mu       sync.Mutex
	failures int
	sent     []tgbotapi.MessageConfig
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type fakeReports struct {
	report *dashboard.Report
	err    error
	last   dashboard.Request
}

func (f *fakeReports) Build(_ context.Context, req dashboard.Request) (*dashboard.Report, error) {
	f.last = req
	return f.report, f.err
}

func sampleReport() *dashboard.Report {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	rows := make([]model.AnalysisRow, 8)
	for i := range rows {
		rows[i] = model.AnalysisRow{Time: day.AddDate(0, 0, i), Close: 100 + float64(i), SMA: 99, RSI: 60}
	}
	return &dashboard.Report{
		Symbol:      "AAPL",
		CompanyName: "Apple & Co",
		Currency:    "USD",
		Config:      model.AnalysisConfig{DaysToAnalyze: 90, SMAWindow: 18, RSIWindow: 9},
		Rows:        rows,
		Preview:     rows,
		Assessment: &model.Assessment{
			LastClose: 107, LastSMA: 99, LastRSI: 60,
			Zone: model.ZoneNeutral, Position: model.PositionAbove,
			SMADeviation: 8.08, PeriodChange: 7,
			Commentary: "RSI in neutral range, price above 18-day SMA",
		},
		GeneratedAt: day.AddDate(0, 0, 8),
	}
}

func TestFormatAnalysisReport(t *testing.T) {
	text := FormatAnalysisReport(sampleReport())

	for _, want := range []string{
		"<b>Apple &amp; Co</b> (AAPL)",
		"Horizon: 90 days | SMA 18 | RSI 9",
		"Close: 107.00 USD",
		"SMA18: 99.00 (+8.1%)",
		"RSI9: 60.0",
		"neutral",
		"<i>RSI in neutral range, price above 18-day SMA</i>",
		"<pre>",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
	// only the last five preview rows are listed
	if strings.Contains(text, "2024-05-12") {
		t.Errorf("report should not list 2024-05-12:\n%s", text)
	}
	if !strings.Contains(text, "2024-05-17") {
		t.Errorf("report should list the latest row:\n%s", text)
	}
}

func TestFormatAnalysisReportEscapesCurrency(t *testing.T) {
	r := sampleReport()
	r.Currency = "<b>AUD"
	text := FormatAnalysisReport(r)
	if !strings.Contains(text, "Close: 107.00 &lt;b&gt;AUD") {
		t.Errorf("currency not escaped:\n%s", text)
	}
}

func TestFormatError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&collector.EmptySeriesError{Symbol: "ZZZ"}, "No data found. Please check the stock symbol."},
		{&calculator.InsufficientDataError{Have: 5, Need: 8}, "5 bars, need 8"},
		{calculator.ErrDaysOutOfRange, "between 30 and 180"},
		{collector.ErrInvalidSymbol, "provide a stock symbol"},
		{errors.New("timeout"), "unavailable"},
	}
	for _, c := range cases {
		if got := FormatError("ZZZ", c.err); !strings.Contains(got, c.want) {
			t.Errorf("FormatError(%v) = %q, want substring %q", c.err, got, c.want)
		}
	}
}

func TestCommandHandler(t *testing.T) {
	reports := &fakeReports{report: sampleReport()}
	h := &CommandHandler{Reports: reports, DefaultDays: 90}
	ctx := context.Background()

	if got := h.Handle(ctx, "/analyze msft 60"); !strings.Contains(got, "Apple") {
		t.Errorf("unexpected reply %q", got)
	}
	if reports.last != (dashboard.Request{Symbol: "msft", Days: 60}) {
		t.Errorf("request = %+v", reports.last)
	}

	h.Handle(ctx, "/analyze@TickerLensBot TSLA")
	if reports.last.Days != 90 || reports.last.Symbol != "TSLA" {
		t.Errorf("default days not applied: %+v", reports.last)
	}

	if got := h.Handle(ctx, "/analyze"); !strings.HasPrefix(got, "Usage") {
		t.Errorf("missing symbol reply = %q", got)
	}
	if got := h.Handle(ctx, "/analyze AAPL ninety"); !strings.Contains(got, "number") {
		t.Errorf("bad days reply = %q", got)
	}
	if got := h.Handle(ctx, "/help"); !strings.Contains(got, "/analyze SYMBOL [DAYS]") {
		t.Errorf("help reply = %q", got)
	}
	if got := h.Handle(ctx, "/foo"); !strings.Contains(got, "Unknown command") {
		t.Errorf("unknown reply = %q", got)
	}
	if got := h.Handle(ctx, "hello there"); got != "" {
		t.Errorf("plain text should be ignored, got %q", got)
	}

	reports.err = &collector.EmptySeriesError{Symbol: "NOPE"}
	if got := h.Handle(ctx, "/analyze nope"); !strings.Contains(got, "NOPE: No data found") {
		t.Errorf("error reply = %q", got)
	}
}

func TestSendRetries(t *testing.T) {
	api := &fakeAPI{failures: 2}
	n := newNotifier(api, 42)
	n.RetryInterval = time.Millisecond

	if err := n.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}
	if msgs[0].ChatID != 42 || msgs[0].ParseMode != tgbotapi.ModeHTML || msgs[0].Text != "hello" {
		t.Errorf("unexpected message %+v", msgs[0])
	}
}

func TestSendGivesUp(t *testing.T) {
	api := &fakeAPI{failures: 10}
	n := newNotifier(api, 42)
	n.RetryInterval = time.Millisecond
	n.MaxRetries = 2

	if err := n.Send(context.Background(), 7, "hello"); err == nil {
		t.Fatal("expected error after retries")
	}
	if api.failures != 7 {
		t.Errorf("attempts = %d, want 3", 10-api.failures)
	}
}

func TestStartPollingReplies(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 2)}
	n := newNotifier(api, 1)
	h := &CommandHandler{Reports: &fakeReports{report: sampleReport()}, DefaultDays: 90}

	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "/help", Chat: &tgbotapi.Chat{ID: 99}}}
	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "just chatting", Chat: &tgbotapi.Chat{ID: 99}}}
	close(api.updates)

	n.StartPolling(context.Background(), h)

	msgs := api.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d replies, want 1", len(msgs))
	}
	if msgs[0].ChatID != 99 {
		t.Errorf("reply chat = %d, want 99", msgs[0].ChatID)
	}
}
