package services

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func sampleTable() (*models.TabularDocument, *models.TabularDocument) {
	header := []string{"Patient ID", "Clinical Notes"}
	original := models.NewTabularDocument(header, [][]string{{"1", "pt c/o SOB"}, {"2", "BP stable"}})
	cleaned := models.NewTabularDocument(header, [][]string{{"1", "patient complains of shortness of breath"}, {"2", "blood pressure stable"}})
	return original, cleaned
}

func TestExporter_CSVTable(t *testing.T) {
	original, cleaned := sampleTable()

	artifact, err := NewExporter().Export(models.ExportCSV, original, cleaned)
	require.NoError(t, err)

	assert.Equal(t, "cleaned_data.csv", artifact.Name)
	assert.Equal(t, models.ExportCSV.ContentType(), artifact.ContentType)
	assert.Equal(t, [][]string{
		{"Patient ID", "Clinical Notes"},
		{"1", "patient complains of shortness of breath"},
		{"2", "blood pressure stable"},
	}, readCSV(t, artifact.Data))
}

func TestExporter_CSVLines(t *testing.T) {
	original := models.NewLineDocument([]string{"pt c/o SOB"})
	cleaned := models.NewLineDocument([]string{"patient complains of shortness of breath"})

	artifact, err := NewExporter().Export(models.ExportCSV, original, cleaned)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Original Notes", "Cleaned Notes"},
		{"pt c/o SOB", "patient complains of shortness of breath"},
	}, readCSV(t, artifact.Data))
}

func TestExporter_TXT(t *testing.T) {
	original, cleaned := sampleTable()
	cleaned.Columns = []int{1}
	original.Columns = []int{1}

	artifact, err := NewExporter().Export(models.ExportTXT, original, cleaned)
	require.NoError(t, err)
	assert.Equal(t, "cleaned_data.txt", artifact.Name)
	assert.Equal(t, "patient complains of shortness of breath\nblood pressure stable\n", string(artifact.Data))
}

func TestExporter_TXTAllCells(t *testing.T) {
	original, cleaned := sampleTable()

	artifact, err := NewExporter().Export(models.ExportTXT, original, cleaned)
	require.NoError(t, err)
	assert.Equal(t, "1\tpatient complains of shortness of breath\n2\tblood pressure stable\n", string(artifact.Data))
}

func TestExporter_Excel(t *testing.T) {
	original, cleaned := sampleTable()

	artifact, err := NewExporter().Export(models.ExportExcel, original, cleaned)
	require.NoError(t, err)
	assert.Equal(t, "cleaned_data.xlsx", artifact.Name)

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Cleaned Notes"}, f.GetSheetList())
	rows, err := f.GetRows("Cleaned Notes")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Patient ID", "Clinical Notes"},
		{"1", "patient complains of shortness of breath"},
		{"2", "blood pressure stable"},
	}, rows)
}

func TestExporter_PDF(t *testing.T) {
	original := models.NewLineDocument([]string{"pt c/o fièvre"})
	cleaned := models.NewLineDocument([]string{"patient complains of fièvre"})

	artifact, err := NewExporter().Export(models.ExportPDF, original, cleaned)
	require.NoError(t, err)
	assert.Equal(t, "cleaned_data.pdf", artifact.Name)
	assert.Equal(t, "application/pdf", artifact.ContentType)
	assert.True(t, bytes.HasPrefix(artifact.Data, []byte("%PDF")))
}

func TestExporter_UnsupportedFormat(t *testing.T) {
	original, cleaned := sampleTable()

	_, err := NewExporter().Export(models.ExportFormat("docx"), original, cleaned)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedFormat))
}

func TestExporter_Log(t *testing.T) {
	log := []models.ReplacementLogEntry{
		{Original: "SOB", Shorthand: "sob", Replacement: "shortness of breath", Location: models.Location{Row: 0, Column: 1, Offset: 7, Length: 3}},
		{Original: "hx", Shorthand: "hx", Replacement: "history", Location: models.Location{Row: 2, Column: models.NoColumn, Offset: 0, Length: 2}},
	}

	artifact, err := NewExporter().ExportLog(log)
	require.NoError(t, err)
	assert.Equal(t, LogFileName, artifact.Name)
	assert.Equal(t, [][]string{
		{"original", "replacement", "location"},
		{"SOB", "shortness of breath", "row 1 col 2 offset 7"},
		{"hx", "history", "line 3 offset 0"},
	}, readCSV(t, artifact.Data))
}

func TestExporter_EmptyLogHasHeader(t *testing.T) {
	artifact, err := NewExporter().ExportLog(nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"original", "replacement", "location"}}, readCSV(t, artifact.Data))
}

func TestExporter_Summary(t *testing.T) {
	counts := []models.FrequencyCount{
		{Shorthand: "bp", FullForm: "blood pressure", Count: 3},
		{Shorthand: "hx", FullForm: "history", Count: 1},
	}

	artifact, err := NewExporter().ExportSummary(counts)
	require.NoError(t, err)
	assert.Equal(t, SummaryFileName, artifact.Name)
	assert.Equal(t, [][]string{
		{"Shorthand", "Full Form", "Count"},
		{"bp", "blood pressure", "3"},
		{"hx", "history", "1"},
	}, readCSV(t, artifact.Data))
}

func TestFrequencyChart_Render(t *testing.T) {
	counts := []models.FrequencyCount{
		{Shorthand: "bp", Count: 5},
		{Shorthand: "hr", Count: 3},
		{Shorthand: "sob", Count: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, NewFrequencyChart(2).Render(&buf, counts))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")))
}

func TestFrequencyChart_NoCounts(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, NewFrequencyChart(0).Render(&buf, nil))
	assert.Zero(t, buf.Len())
}
