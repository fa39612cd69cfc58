package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"TickerLens/internal/model"
)

// Format is a supported download format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "db"
)

// ErrUnknownFormat is returned for formats other than csv, xlsx and db.
var ErrUnknownFormat = errors.New("unknown export format")

// Snapshot is everything written to an export file.
type Snapshot struct {
	Symbol      string
	CompanyName string
	Config      model.AnalysisConfig
	Result      *model.AnalysisResult
	GeneratedAt time.Time
}

// ParseFormat accepts a format name case-insensitively; an empty name means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "text/csv"
	}
}

// Filename returns the download name, {SYMBOL}_analysis.{ext}.
func Filename(symbol string, f Format) string {
	return fmt.Sprintf("%s_analysis.%s", symbol, f)
}

// Write serialises the snapshot in the given format.
func Write(w io.Writer, f Format, snap *Snapshot) error {
	if snap == nil || snap.Result == nil {
		return errors.New("export: empty snapshot")
	}
	switch f {
	case FormatCSV:
		return WriteCSV(w, snap)
	case FormatXLSX:
		return WriteXLSX(w, snap)
	case FormatSQLite:
		return WriteSQLite(w, snap)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// header returns the column names shared by every tabular format.
func header(res *model.AnalysisResult) []string {
	return []string{
		"Date", "Open", "High", "Low", "Close", "Volume",
		fmt.Sprintf("SMA_%d", res.SMAWindow),
		fmt.Sprintf("RSI_%d", res.RSIWindow),
	}
}

const dateLayout = "2006-01-02"
