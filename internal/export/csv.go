package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes one header line and one line per analysed row.
func WriteCSV(w io.Writer, snap *Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(snap.Result)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range snap.Result.Rows {
		rec := []string{
			r.Time.Format(dateLayout),
			formatFloat(r.Open),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.Close),
			strconv.FormatFloat(r.Volume, 'f', 0, 64),
			formatFloat(r.SMA),
			formatFloat(r.RSI),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
