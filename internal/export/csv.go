package export

import (
	"encoding/csv"
	"io"

	"lienwatch/internal/models"
)

// CSVWriter writes records as CSV with a header row.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write writes a single record, emitting the header first.
func (w *CSVWriter) Write(rec models.FlatRecord) error {
	if !w.wroteHeader {
		if err := w.w.Write(headers); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	return w.w.Write(row(rec))
}

// WriteAll writes multiple records.
func (w *CSVWriter) WriteAll(recs []models.FlatRecord) error {
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *CSVWriter) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}
