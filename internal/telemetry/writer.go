package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
)

// Writer encodes and persists ChannelReports to timestamped files under a
// directory, one file per report.
type Writer struct {
	dir     string
	pattern string
	codec   *Codec
}

// NewWriter builds a Writer that names files by formatting the write time
// with an strftime-style pattern (e.g. "report-%Y%m%d-%H%M%S.rs").
func NewWriter(dir, pattern string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry: create report dir: %w", err)
	}
	if _, err := strftime.Format(pattern, time.Now()); err != nil {
		return nil, fmt.Errorf("telemetry: parse filename pattern %q: %w", pattern, err)
	}
	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}
	return &Writer{dir: dir, pattern: pattern, codec: codec}, nil
}

// Write encodes r and writes it to a new file named from the current time.
func (w *Writer) Write(r ChannelReport) (string, error) {
	return w.writeAt(r, time.Now())
}

func (w *Writer) writeAt(r ChannelReport, t time.Time) (string, error) {
	framed, err := w.codec.Encode(r)
	if err != nil {
		return "", err
	}
	name, err := strftime.Format(w.pattern, t)
	if err != nil {
		return "", fmt.Errorf("telemetry: format report filename: %w", err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, framed, 0o644); err != nil {
		return "", fmt.Errorf("telemetry: write report %s: %w", path, err)
	}
	return path, nil
}

// Read loads and decodes a report file written by Write.
func (w *Writer) Read(path string) (ChannelReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ChannelReport{}, fmt.Errorf("telemetry: read report %s: %w", path, err)
	}
	return w.codec.Decode(data)
}
