package template

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/spacesedan/sentinel-review/internal/models"
)

const maxSheetRows = 65536

// ParseError signals a template file that could not be read. A readable
// file with no data rows is not an error; it parses to an empty slice.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes an uploaded batch template into normalized rows. The file
// extension selects the tabular format; rows whose id is empty after
// trimming are dropped, source order is preserved.
func Parse(filename string, data []byte) ([]models.TemplateRow, error) {
	var (
		grid [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		grid, err = readCSV(data)
	case ".xls":
		grid, err = readXLS(data)
	case ".xlsx":
		grid, err = readXLSX(data)
	default:
		return nil, &ParseError{Msg: fmt.Sprintf("unsupported template format %q", filepath.Ext(filename))}
	}
	if err != nil {
		return nil, err
	}

	return gridToRows(grid), nil
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(decodeText(data)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var grid [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Msg: "malformed csv template", Err: err}
		}
		grid = append(grid, record)
	}
	return grid, nil
}

// decodeText tries the declared encodings in priority order (UTF-8, then
// the two CJK codecs the original templates ship in) and falls back to the
// raw bytes. Encoding selection itself never fails.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data)
	}
	for _, enc := range []transform.Transformer{
		simplifiedchinese.GBK.NewDecoder(),
		simplifiedchinese.GB18030.NewDecoder(),
	} {
		if decoded, _, err := transform.Bytes(enc, data); err == nil {
			return string(decoded)
		}
	}
	return string(data)
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &ParseError{Msg: "malformed xls template", Err: err}
	}
	if workbook.NumSheets() == 0 {
		return nil, nil
	}
	return workbook.ReadAllCells(maxSheetRows), nil
}

func readXLSX(data []byte) ([][]string, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Msg: "malformed xlsx template", Err: err}
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	grid, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Msg: "failed to read first sheet", Err: err}
	}
	return grid, nil
}

func gridToRows(grid [][]string) []models.TemplateRow {
	if len(grid) < 2 {
		return []models.TemplateRow{}
	}

	idCol, contentCol, photoCol := -1, -1, -1
	for i, name := range grid[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "id":
			if idCol < 0 {
				idCol = i
			}
		case "content":
			if contentCol < 0 {
				contentCol = i
			}
		case "photo":
			if photoCol < 0 {
				photoCol = i
			}
		}
	}

	rows := make([]models.TemplateRow, 0, len(grid)-1)
	for _, record := range grid[1:] {
		row := models.TemplateRow{
			ID:      cellAt(record, idCol),
			Content: cellAt(record, contentCol),
			Photo:   cellAt(record, photoCol),
		}
		if row.ID == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// cellAt treats missing cells and blank-after-trim cells the same way:
// the value is absent.
func cellAt(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}
