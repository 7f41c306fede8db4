package services

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"

	"clinical-note-cleaner/errors"
	"clinical-note-cleaner/models"
)

// SupportedInputExtensions lists the upload formats, in the order they are advertised
var SupportedInputExtensions = []string{".csv", ".xlsx", ".txt", ".docx"}

// FileDocumentParser parses uploads by file extension
type FileDocumentParser struct {
	logger Logger
}

// NewDocumentParser creates a parser for every supported input format
func NewDocumentParser(logger Logger) *FileDocumentParser {
	if logger == nil {
		logger = NoopLogger{}
	}
	return &FileDocumentParser{logger: logger}
}

// SupportedExtensions implements DocumentParser
func (p *FileDocumentParser) SupportedExtensions() []string {
	return append([]string(nil), SupportedInputExtensions...)
}

// IsSupportedInput reports whether filename has a parsable extension
func IsSupportedInput(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range SupportedInputExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Parse implements DocumentParser
func (p *FileDocumentParser) Parse(filename string, content []byte) (models.Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		doc models.Document
		err error
	)
	switch ext {
	case ".csv":
		doc, err = p.parseCSV(filename, content)
	case ".xlsx":
		doc, err = parseXLSX(content)
	case ".txt":
		doc = p.parseTXT(filename, content)
	case ".docx":
		doc, err = parseDOCX(content)
	default:
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
			fmt.Sprintf("unsupported file type %q, use one of %s", ext, strings.Join(SupportedInputExtensions, ", ")), nil)
	}

	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFile,
			fmt.Sprintf("could not read %s", filepath.Base(filename)), err)
	}
	return doc, nil
}

func (p *FileDocumentParser) decode(filename string, content []byte) string {
	text, fallback := decodeText(content)
	if fallback {
		p.logger.Warn("UTF-8 decode failed, read as ISO-8859-1", String("filename", filename))
	}
	return text
}

func (p *FileDocumentParser) parseCSV(filename string, content []byte) (models.Document, error) {
	reader := csv.NewReader(strings.NewReader(p.decode(filename, content)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, record)
	}

	return models.NewTabularDocument(trimHeader(header), rows), nil
}

func parseXLSX(content []byte) (models.Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	return models.NewTabularDocument(trimHeader(all[0]), all[1:]), nil
}

// parseTXT keeps every non-blank line, trimmed
func (p *FileDocumentParser) parseTXT(filename string, content []byte) models.Document {
	text := p.decode(filename, content)

	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return models.NewLineDocument(lines)
}

// parseDOCX returns one line per non-empty paragraph of the document body
func parseDOCX(content []byte) (models.Document, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer r.Close()

	lines, err := docxParagraphs(r.Editable().GetContent())
	if err != nil {
		return nil, err
	}
	return models.NewLineDocument(lines), nil
}

// docxParagraphs collects the text runs of each w:p element
func docxParagraphs(documentXML string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		lines   = make([]string, 0)
		current strings.Builder
		inPara  bool
		inText  bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = inPara
			case "tab":
				if inPara {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inPara {
					current.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(current.String()); line != "" {
					lines = append(lines, line)
				}
				inPara = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return lines, nil
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}
