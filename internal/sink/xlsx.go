package sink

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// xlsxCodec reads the first worksheet and writes every cell as a string, so
// values like phone numbers and '2016.01 dates are kept verbatim.
type xlsxCodec struct{}

func (xlsxCodec) decode(data []byte) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

func (xlsxCodec) encode(header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeRow(f, 1, header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := writeRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, rowNum int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheetName, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}
	return nil
}
