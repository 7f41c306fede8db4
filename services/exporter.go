package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
)

const (
	originalNotesHeader = "Original Notes"
	cleanedNotesHeader  = "Cleaned Notes"
	excelSheetName      = "Cleaned Notes"
	pdfReportTitle      = "Clinical Notes Cleaning Report"

	// Download names of the job artifacts
	OutputBaseName     = "cleaned_data"
	LogFileName        = "replacement_log.csv"
	SummaryFileName    = "replacement_summary.csv"
	ChartFileName      = "replacement_chart.png"
	chartContentType   = "image/png"
	reportsContentType = "text/csv; charset=utf-8"
)

// FileExporter renders cleaned documents into the supported export formats
type FileExporter struct{}

// NewExporter creates an exporter
func NewExporter() *FileExporter {
	return &FileExporter{}
}

// OutputFileName returns the download name of the cleaned output in format
func OutputFileName(format models.ExportFormat) string {
	return OutputBaseName + "." + format.Extension()
}

// Export implements DocumentExporter
func (e *FileExporter) Export(format models.ExportFormat, original, cleaned models.Document) (models.Artifact, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case models.ExportCSV:
		data, err = writeCSV(tableFor(original, cleaned))
	case models.ExportTXT:
		data = exportTXT(cleaned)
	case models.ExportExcel:
		data, err = exportExcel(tableFor(original, cleaned))
	case models.ExportPDF:
		data, err = exportPDF(original, cleaned)
	default:
		return models.Artifact{}, errors.NewValidationError(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported export format %q", format), nil)
	}
	if err != nil {
		return models.Artifact{}, errors.NewInternalError(errors.ErrCodeExportFailed,
			fmt.Sprintf("failed to render %s output", format), err)
	}

	return models.Artifact{
		Name:        OutputFileName(format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// ExportLog implements DocumentExporter
func (e *FileExporter) ExportLog(log []models.ReplacementLogEntry) (models.Artifact, error) {
	records := make([][]string, 0, len(log)+1)
	records = append(records, []string{"original", "replacement", "location"})
	for _, entry := range log {
		records = append(records, []string{entry.Original, entry.Replacement, entry.Location.String()})
	}

	data, err := writeCSV(records)
	if err != nil {
		return models.Artifact{}, errors.NewInternalError(errors.ErrCodeExportFailed, "failed to render replacement log", err)
	}
	return models.Artifact{Name: LogFileName, ContentType: reportsContentType, Data: data}, nil
}

// ExportSummary implements DocumentExporter
func (e *FileExporter) ExportSummary(counts []models.FrequencyCount) (models.Artifact, error) {
	records := make([][]string, 0, len(counts)+1)
	records = append(records, []string{"Shorthand", "Full Form", "Count"})
	for _, c := range counts {
		records = append(records, []string{c.Shorthand, c.FullForm, strconv.Itoa(c.Count)})
	}

	data, err := writeCSV(records)
	if err != nil {
		return models.Artifact{}, errors.NewInternalError(errors.ErrCodeExportFailed, "failed to render replacement summary", err)
	}
	return models.Artifact{Name: SummaryFileName, ContentType: reportsContentType, Data: data}, nil
}

// tableFor lays a result out as rows, header first.
// Line documents get an original/cleaned column pair; tables keep their shape.
func tableFor(original, cleaned models.Document) [][]string {
	if table, ok := cleaned.(*models.TabularDocument); ok {
		records := make([][]string, 0, len(table.Rows)+1)
		records = append(records, table.Header)
		return append(records, table.Rows...)
	}

	before := original.Units()
	after := cleaned.Units()
	records := make([][]string, 0, len(after)+1)
	records = append(records, []string{originalNotesHeader, cleanedNotesHeader})
	for i := range after {
		records = append(records, []string{before[i].Text, after[i].Text})
	}
	return records
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// exportTXT writes one line per row; targeted cells of a table row are tab-separated
func exportTXT(cleaned models.Document) []byte {
	var b strings.Builder
	units := cleaned.Units()

	for i := 0; i < len(units); {
		row := units[i].Row
		var cells []string
		for ; i < len(units) && units[i].Row == row; i++ {
			cells = append(cells, units[i].Text)
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func exportExcel(records [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), excelSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for r, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return nil, err
		}
		row := make([]interface{}, len(record))
		for i, v := range record {
			row[i] = v
		}
		if err := f.SetSheetRow(excelSheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// exportPDF writes an Original/Cleaned block per unit
func exportPDF(original, cleaned models.Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, pdfReportTitle, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	before := original.Units()
	after := cleaned.Units()
	for i := range after {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 6, "Original:", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(before[i].Text), "", "L", false)

		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 6, "Cleaned:", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 6, tr(after[i].Text), "", "L", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
