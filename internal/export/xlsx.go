package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"lienwatch/internal/models"
)

const sheetName = "Foreclosures"

// XLSXWriter writes records as an Excel workbook with one sheet.
type XLSXWriter struct {
	out   io.Writer
	items []models.FlatRecord
}

// NewXLSXWriter creates an XLSX writer.
func NewXLSXWriter(w io.Writer) *XLSXWriter {
	return &XLSXWriter{out: w, items: make([]models.FlatRecord, 0)}
}

// Write buffers a single record.
func (w *XLSXWriter) Write(rec models.FlatRecord) error {
	w.items = append(w.items, rec)
	return nil
}

// WriteAll buffers multiple records.
func (w *XLSXWriter) WriteAll(recs []models.FlatRecord) error {
	w.items = append(w.items, recs...)
	return nil
}

// Flush builds the workbook and writes it out.
func (w *XLSXWriter) Flush() error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerCells := make([]any, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerCells); err != nil {
		return err
	}

	for i, rec := range w.items {
		cells := make([]any, 0, len(headers))
		for _, v := range row(rec) {
			cells = append(cells, v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w.out)
	return err
}

// Close writes the workbook.
func (w *XLSXWriter) Close() error {
	return w.Flush()
}
