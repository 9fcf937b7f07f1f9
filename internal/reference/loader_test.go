package reference

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/extrame/xls"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sgsOptions() Options {
	return Options{Sheet: "Spool", HeaderRow: 8, SkipRows: 1, KeyColumn: "PF Code", KeyAliases: []string{"SpoolNo"}}
}

// buildSGSWorkbook mimics the yard export: banner rows, header on row 8 and a units row 9.
func buildSGSWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetSheetName("Sheet1", "Spool"))
	require.NoError(t, f.SetCellValue("Spool", "A1", "SGS Spool Status Export"))
	header := []any{"PF Code", "Área", "Sheet", "Size", "Paint Code", "REV.", "Shop ID", "Weight", "Material"}
	require.NoError(t, f.SetSheetRow("Spool", "A8", &header))
	units := []any{"", "", "", "in", "", "", "", "kg", ""}
	require.NoError(t, f.SetSheetRow("Spool", "A9", &units))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, 10+i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Spool", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadXLSXSkipsHeaderOffsetAndUnitsRow(t *testing.T) {
	data := buildSGSWorkbook(t, [][]any{
		{"SP-001", "M01", "1", "6", "PC-1", "A", "S1", 12.5, "CS"},
		{"", "", "", "", "", "", "", "", ""},
		{"SP-002", "M02", "2", "8", "PC-2", "B", "S2", "7.25", "SS"},
	})

	table, err := Load(bytes.NewReader(data), "export.xlsx", sgsOptions())
	require.NoError(t, err)

	assert.Equal(t, "Spool", table.Sheet)
	assert.Equal(t, "pf code", table.KeyColumn)
	assert.Equal(t, 2, table.Len())

	row, ok := table.First("SP-001")
	require.True(t, ok)
	assert.Equal(t, 10, row.Line)
	assert.Equal(t, "M01", row.Value("área"))
	assert.Equal(t, "A", row.Value("rev"))
	assert.Equal(t, "12.5", row.Value("Weight"))

	_, ok = table.First("in")
	assert.False(t, ok, "units row must not be loaded")
}

func TestLoadKeysAreCaseInsensitive(t *testing.T) {
	data := buildSGSWorkbook(t, [][]any{{"sp-010", "M01"}})
	table, err := Load(bytes.NewReader(data), "export.xlsx", sgsOptions())
	require.NoError(t, err)
	assert.True(t, table.Contains("SP-010"))
	assert.True(t, table.Contains("  sp-010 "))
}

func TestLoadMissingSheet(t *testing.T) {
	data := buildSGSWorkbook(t, nil)
	opts := sgsOptions()
	opts.Sheet = "Piping"
	_, err := Load(bytes.NewReader(data), "export.xlsx", opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingSheet))
	assert.Contains(t, err.Error(), "Spool")
}

func TestLoadMissingKeyColumn(t *testing.T) {
	data := buildSGSWorkbook(t, nil)
	opts := sgsOptions()
	opts.KeyColumn = "Drawing"
	opts.KeyAliases = nil
	_, err := Load(bytes.NewReader(data), "export.xlsx", opts)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadHeaderRowBeyondSheet(t *testing.T) {
	data := buildSGSWorkbook(t, nil)
	opts := sgsOptions()
	opts.HeaderRow = 50
	_, err := Load(bytes.NewReader(data), "export.xlsx", opts)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoadGarbageIsUnreadable(t *testing.T) {
	_, err := Load(strings.NewReader("not a workbook"), "export.xlsx", sgsOptions())
	assert.ErrorIs(t, err, ErrUnreadable)

	_, err = Load(strings.NewReader(""), "export.xlsx", sgsOptions())
	assert.ErrorIs(t, err, ErrUnreadable)
}

// gap_row.xls is a BIFF8 sheet "Table" with header Code/Name/Description on
// row 1, codes code1..code11 below it and no record at all for code5.
func TestLoadXLSWithMissingRow(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "gap_row.xls"))
	require.NoError(t, err)

	table, err := Load(bytes.NewReader(data), "legacy.xls", Options{Sheet: "table", HeaderRow: 1, KeyColumn: "Code"})
	require.NoError(t, err)

	assert.Equal(t, "Table", table.Sheet)
	assert.Equal(t, 10, table.Len())
	assert.False(t, table.Contains("code5"))

	row, ok := table.First("CODE6")
	require.True(t, ok)
	assert.Equal(t, 7, row.Line)
	assert.Equal(t, "name6", row.Value("name"))
	assert.Equal(t, "description6", row.Value("Description"))

	row, ok = table.First("code11")
	require.True(t, ok)
	assert.Equal(t, 12, row.Line)
}

func TestSheetRowPastLastRecord(t *testing.T) {
	wb, err := xls.Open(filepath.Join("testdata", "gap_row.xls"), "utf-8")
	require.NoError(t, err)
	ws := wb.GetSheet(0)
	require.NotNil(t, ws)

	assert.NotNil(t, sheetRow(ws, 0))
	assert.Nil(t, sheetRow(ws, 5))
	assert.NotPanics(t, func() {
		assert.Nil(t, sheetRow(ws, int(ws.MaxRow)+1))
	})
}

func TestLoadKeyAlias(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	header := []any{"SpoolNo", "Weight"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	row := []any{"SP-100", 3}
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &row))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := Load(bytes.NewReader(buf.Bytes()), "list.xlsx", Options{HeaderRow: 1, KeyColumn: "PF Code", KeyAliases: []string{"SpoolNo"}})
	require.NoError(t, err)
	assert.Equal(t, "spoolno", table.KeyColumn)
	r, ok := table.First("SP-100")
	require.True(t, ok)
	assert.Equal(t, "3", r.Value("weight"))
}

func TestAllKeepsRepeatedKeysInOrder(t *testing.T) {
	csvData := "Spool;Item Type;Code;Qty\nD-1;PIPE;P-01;2\nD-2;PIPE;P-02;1\nD-1;FLANGE;F-01;4\n"
	table, err := Load(strings.NewReader(csvData), "materials.csv", Options{HeaderRow: 1, KeyColumn: "Spool"})
	require.NoError(t, err)

	rows := table.All("D-1")
	require.Len(t, rows, 2)
	assert.Equal(t, "P-01", rows[0].Value("code"))
	assert.Equal(t, "F-01", rows[1].Value("code"))
	assert.Empty(t, table.All("D-9"))
}

func TestLoadCSVWindows1252(t *testing.T) {
	// "Área" in Windows-1252
	raw := []byte("PF Code,\xc1rea\r\nSP-1,M01\r\n")
	table, err := Load(bytes.NewReader(raw), "ref.csv", Options{HeaderRow: 1, KeyColumn: "PF Code"})
	require.NoError(t, err)
	r, ok := table.First("SP-1")
	require.True(t, ok)
	assert.Equal(t, "M01", r.Value("Área"))
}

func TestLoadCSVExplicitCharset(t *testing.T) {
	raw := []byte("PF Code\tDescription\nSP-1,x\tTub\xe9\n")
	table, err := Load(bytes.NewReader(raw), "ref.txt", Options{HeaderRow: 1, KeyColumn: "pf code", Charset: "iso-8859-1"})
	require.NoError(t, err)
	r, ok := table.First("SP-1,x")
	require.True(t, ok)
	assert.Equal(t, "Tubé", r.Value("description"))
}

func TestLoadCSVStripsBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("PF Code,Weight\nSP-1,4\n")...)
	table, err := Load(bytes.NewReader(raw), "ref.csv", Options{HeaderRow: 1, KeyColumn: "PF Code"})
	require.NoError(t, err)
	assert.True(t, table.Contains("SP-1"))
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"REV.":          "rev",
		"  Paint  Code": "paint code",
		"Area / WBS":    "area / wbs",
		"Weight:":       "weight",
		"Paint\nCode":   "paint code",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestNilTableIsEmpty(t *testing.T) {
	var table *Table
	assert.Equal(t, 0, table.Len())
	_, ok := table.First("x")
	assert.False(t, ok)
	assert.Empty(t, table.All("x"))
	assert.False(t, table.HasColumn("weight"))
}
