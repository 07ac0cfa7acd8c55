package loader

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

func readXLSX(data []byte, sheet string) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return pickSheet(f.GetSheetList(), sheet, func(name string) ([][]string, error) {
		return f.GetRows(name)
	})
}

func readXLS(data []byte, sheet string) ([]string, [][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	var names []string
	sheets := make(map[string]*xls.WorkSheet)
	for i := 0; i < wb.NumSheets(); i++ {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		names = append(names, ws.Name)
		sheets[ws.Name] = ws
	}
	return pickSheet(names, sheet, func(name string) ([][]string, error) {
		ws := sheets[name]
		var rows [][]string
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		return rows, nil
	})
}

// pickSheet returns the header and data rows of the named sheet, or of the
// first sheet holding data when sheet is empty.
func pickSheet(names []string, sheet string, read func(name string) ([][]string, error)) ([]string, [][]string, error) {
	if sheet != "" {
		if !slices.Contains(names, sheet) {
			return nil, nil, fmt.Errorf("sheet %q not found", sheet)
		}
		names = []string{sheet}
	}
	for _, name := range names {
		rows, err := read(name)
		if err != nil {
			return nil, nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		rows = trimEmptyRows(rows)
		if len(rows) == 0 {
			continue
		}
		return rows[0], rows[1:], nil
	}
	if sheet != "" {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	return nil, nil, fmt.Errorf("workbook has no data")
}

// trimEmptyRows drops blank rows above the header and after the last data row.
func trimEmptyRows(rows [][]string) [][]string {
	blank := func(row []string) bool {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return false
			}
		}
		return true
	}
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}
