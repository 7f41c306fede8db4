package models

import "fmt"

// DocumentKind identifies the shape of a parsed document
type DocumentKind string

const (
	DocumentKindLines   DocumentKind = "lines"
	DocumentKindTabular DocumentKind = "tabular"
)

// NoColumn is the column index used by units of line-oriented documents
const NoColumn = -1

// Location addresses a span of text inside one unit of a document.
// Row is the 0-based line index (or data row index, header excluded) and
// Column is the 0-based cell index, NoColumn for line documents.
// Offset and Length are byte positions inside the unit text.
type Location struct {
	Row    int `json:"row"`
	Column int `json:"column"`
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// String renders the location for human-readable exports
func (l Location) String() string {
	if l.Column == NoColumn {
		return fmt.Sprintf("line %d offset %d", l.Row+1, l.Offset)
	}
	return fmt.Sprintf("row %d col %d offset %d", l.Row+1, l.Column+1, l.Offset)
}

// TextUnit is one addressable piece of text (a line or a cell)
type TextUnit struct {
	Row    int    `json:"row"`
	Column int    `json:"column"`
	Text   string `json:"text"`
}

// Document is the format-independent view of an uploaded file.
// Units returns the text units subject to substitution in traversal order;
// WithUnits returns a copy of the document whose units carry the given texts,
// leaving everything that is not a unit untouched.
type Document interface {
	Kind() DocumentKind
	Units() []TextUnit
	WithUnits(texts []string) (Document, error)
}

// LineDocument is a line-oriented document (plain text, docx paragraphs)
type LineDocument struct {
	Lines []string `json:"lines"`
}

// NewLineDocument creates a line document from the given lines
func NewLineDocument(lines []string) *LineDocument {
	return &LineDocument{Lines: lines}
}

// Kind implements Document
func (d *LineDocument) Kind() DocumentKind {
	return DocumentKindLines
}

// Units implements Document
func (d *LineDocument) Units() []TextUnit {
	units := make([]TextUnit, len(d.Lines))
	for i, line := range d.Lines {
		units[i] = TextUnit{Row: i, Column: NoColumn, Text: line}
	}
	return units
}

// WithUnits implements Document
func (d *LineDocument) WithUnits(texts []string) (Document, error) {
	if len(texts) != len(d.Lines) {
		return nil, fmt.Errorf("unit count mismatch: document has %d lines, got %d", len(d.Lines), len(texts))
	}
	lines := make([]string, len(texts))
	copy(lines, texts)
	return &LineDocument{Lines: lines}, nil
}

// TabularDocument is a row/column document (CSV, Excel).
// Columns restricts substitution to the listed column indexes; nil means every cell.
type TabularDocument struct {
	Header  []string   `json:"header"`
	Rows    [][]string `json:"rows"`
	Columns []int      `json:"columns,omitempty"`
}

// NewTabularDocument creates a tabular document targeting every cell
func NewTabularDocument(header []string, rows [][]string) *TabularDocument {
	return &TabularDocument{Header: header, Rows: rows}
}

// ColumnIndex returns the index of the named header column, or -1
func (d *TabularDocument) ColumnIndex(name string) int {
	for i, h := range d.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Kind implements Document
func (d *TabularDocument) Kind() DocumentKind {
	return DocumentKindTabular
}

// Units implements Document
func (d *TabularDocument) Units() []TextUnit {
	var units []TextUnit
	for r, row := range d.Rows {
		if d.Columns == nil {
			for c, cell := range row {
				units = append(units, TextUnit{Row: r, Column: c, Text: cell})
			}
			continue
		}
		for _, c := range d.Columns {
			// Ragged rows simply have no unit for a missing cell
			if c < len(row) {
				units = append(units, TextUnit{Row: r, Column: c, Text: row[c]})
			}
		}
	}
	return units
}

// WithUnits implements Document
func (d *TabularDocument) WithUnits(texts []string) (Document, error) {
	units := d.Units()
	if len(texts) != len(units) {
		return nil, fmt.Errorf("unit count mismatch: document has %d cells, got %d", len(units), len(texts))
	}

	rows := make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		rows[i] = append([]string(nil), row...)
	}
	for i, unit := range units {
		rows[unit.Row][unit.Column] = texts[i]
	}

	out := &TabularDocument{
		Header: append([]string(nil), d.Header...),
		Rows:   rows,
	}
	if d.Columns != nil {
		out.Columns = append([]int{}, d.Columns...)
	}
	return out, nil
}
