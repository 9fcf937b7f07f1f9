// Package reference loads the spool reference sheet and the material list
// from uploaded workbooks into keyed tables.
package reference

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnreadable    = errors.New("file is not a readable workbook")
	ErrMissingSheet  = errors.New("sheet not found")
	ErrMissingColumn = errors.New("column not found")
	ErrEmpty         = errors.New("sheet has no header row")
)

// Options locates the table inside a workbook. HeaderRow is 1-based; SkipRows
// counts rows between the header and the first data row that are discarded
// (units lines, sub-headers).
type Options struct {
	Sheet      string
	HeaderRow  int
	SkipRows   int
	KeyColumn  string
	KeyAliases []string
	Charset    string
}

func (o Options) headerRow() int {
	if o.HeaderRow < 1 {
		return 1
	}
	return o.HeaderRow
}

// Load reads the whole file and builds a table keyed by the key column.
// The format follows the file extension: .xls, .csv/.txt, anything else as xlsx.
func Load(r io.Reader, filename string, opts Options) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrUnreadable, filename)
	}

	var (
		sheet string
		grid  [][]string
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		sheet, grid, err = readXLS(data, opts.Sheet)
	case ".csv", ".txt":
		sheet = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		grid, err = readCSV(data, opts.Charset)
	default:
		sheet, grid, err = readXLSX(data, opts.Sheet)
	}
	if err != nil {
		return nil, err
	}
	return buildTable(filename, sheet, grid, opts)
}

func readXLSX(data []byte, want string) (string, [][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer func() { _ = file.Close() }()

	sheet, err := pickSheet(file.GetSheetList(), want)
	if err != nil {
		return "", nil, err
	}
	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return sheet, rows, nil
}

func readXLS(data []byte, want string) (sheet string, grid [][]string, err error) {
	// the BIFF parser panics on some truncated files
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	names := make([]string, 0, workbook.NumSheets())
	for i := 0; i < workbook.NumSheets(); i++ {
		if ws := workbook.GetSheet(i); ws != nil {
			names = append(names, ws.Name)
		}
	}
	sheet, err = pickSheet(names, want)
	if err != nil {
		return "", nil, err
	}

	for i := 0; i < workbook.NumSheets(); i++ {
		ws := workbook.GetSheet(i)
		if ws == nil || ws.Name != sheet {
			continue
		}
		rows := make([]*xls.Row, int(ws.MaxRow)+1)
		width := 0
		for r := range rows {
			if rows[r] = sheetRow(ws, r); rows[r] != nil {
				width = max(width, rows[r].LastCol())
			}
		}
		for _, row := range rows {
			if row == nil {
				grid = append(grid, nil)
				continue
			}
			// rows rebuilt from cell records alone carry no column bounds
			cells := make([]string, width)
			for c := range cells {
				cells[c] = row.Col(c)
			}
			grid = append(grid, cells)
		}
		break
	}
	return sheet, grid, nil
}

// sheetRow returns nil for rows the sheet holds no record of; the parser
// dereferences them unchecked.
func sheetRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// pickSheet matches want case-insensitively. An empty want selects the first sheet.
func pickSheet(names []string, want string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("%w: workbook has no worksheets", ErrMissingSheet)
	}
	want = strings.TrimSpace(want)
	if want == "" {
		return names[0], nil
	}
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), want) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q (have %s)", ErrMissingSheet, want, strings.Join(names, ", "))
}

func buildTable(source, sheet string, grid [][]string, opts Options) (*Table, error) {
	headerIdx := opts.headerRow() - 1
	if headerIdx >= len(grid) || isRowEmpty(grid[headerIdx]) {
		return nil, fmt.Errorf("%w: row %d of %q", ErrEmpty, headerIdx+1, sheet)
	}

	raw := grid[headerIdx]
	headers := make([]string, len(raw))
	labels := make(map[string]string, len(raw))
	order := make([]string, 0, len(raw))
	for i, h := range raw {
		name := NormalizeHeader(h)
		if name == "" {
			continue
		}
		if _, dup := labels[name]; dup {
			name = name + " (" + strconv.Itoa(i+1) + ")"
		}
		headers[i] = name
		labels[name] = strings.Join(strings.Fields(h), " ")
		order = append(order, name)
	}

	keyCol := -1
	candidates := append([]string{opts.KeyColumn}, opts.KeyAliases...)
	for _, c := range candidates {
		want := NormalizeHeader(c)
		if want == "" {
			continue
		}
		for i, h := range headers {
			if h == want {
				keyCol = i
				break
			}
		}
		if keyCol >= 0 {
			break
		}
	}
	if keyCol < 0 {
		return nil, fmt.Errorf("%w: %q in sheet %q", ErrMissingColumn, opts.KeyColumn, sheet)
	}

	table := newTable(source, sheet, headers[keyCol], order, labels)
	start := headerIdx + 1 + max(opts.SkipRows, 0)
	for i := start; i < len(grid); i++ {
		cells := grid[i]
		if isRowEmpty(cells) {
			continue
		}
		key := strings.TrimSpace(cellAt(cells, keyCol))
		if key == "" {
			continue
		}
		values := make(map[string]string, len(order))
		for c, h := range headers {
			if h == "" {
				continue
			}
			values[h] = strings.TrimSpace(cellAt(cells, c))
		}
		table.add(Row{Line: i + 1, Key: key, cells: values})
	}
	return table, nil
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func isRowEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
