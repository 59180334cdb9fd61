package depositor

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

const (
	StatusError   = "ERROR"
	StatusUnknown = "unknown"
)

var csvHeader = []string{"timestamp", "tx_musd", "status", "response"}

type Record struct {
	Time     time.Time
	TxTag    string
	Status   string
	Response string
}

// CSVLog appends one line per attempt. The header is written only when the
// file is new or empty, so repeated runs share one log.
type CSVLog struct {
	f *os.File
	w *csv.Writer
}

func OpenCSVLog(path string) (*CSVLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat log %s: %w", path, err)
	}

	l := &CSVLog{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := l.write(csvHeader); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return l, nil
}

// Append writes r with its response percent-encoded.
func (l *CSVLog) Append(r Record) error {
	return l.write([]string{
		r.Time.Format(time.RFC3339),
		r.TxTag,
		r.Status,
		PercentEncode(r.Response),
	})
}

func (l *CSVLog) write(row []string) error {
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("failed to write log line: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("failed to flush log line: %w", err)
	}
	return nil
}

func (l *CSVLog) Close() error {
	l.w.Flush()
	return l.f.Close()
}

// PercentEncode escapes s for a single CSV cell. Spaces become %20 rather
// than '+', so the cell decodes the same with any URL decoder.
func PercentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
