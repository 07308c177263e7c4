package template

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

const templateSheetName = "Template"

var templateRows = [][]string{
	{"ID", "content", "photo"},
	{"1", "示例文本内容", "https://example.com/image.jpg"},
}

// Generate produces the fixed example template in the requested format.
// There is no Go encoder for legacy BIFF8, so the xls variant carries the
// xlsx encoding under the .xls filename; spreadsheet apps open it with a
// name-mismatch notice.
func Generate(format Format) (string, []byte, error) {
	switch format {
	case FormatCSV:
		data, err := generateCSV()
		return "review_template.csv", data, err
	case FormatXLSX, FormatXLS:
		data, err := generateXLSX()
		return fmt.Sprintf("review_template.%s", format), data, err
	default:
		return "", nil, fmt.Errorf("unsupported template format %q", format)
	}
}

func generateCSV() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(templateRows); err != nil {
		return nil, fmt.Errorf("failed to write template csv: %w", err)
	}
	return buf.Bytes(), nil
}

func generateXLSX() ([]byte, error) {
	workbook := excelize.NewFile()
	defer workbook.Close()

	if err := workbook.SetSheetName(workbook.GetSheetName(0), templateSheetName); err != nil {
		return nil, fmt.Errorf("failed to name template sheet: %w", err)
	}

	for i, row := range templateRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("failed to address template row: %w", err)
		}
		if err := workbook.SetSheetRow(templateSheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write template row: %w", err)
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize template workbook: %w", err)
	}
	return buf.Bytes(), nil
}
