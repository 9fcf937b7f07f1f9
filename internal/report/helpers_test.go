package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/phillip-england/jobcard/internal/reference"
)

func loadCSV(t *testing.T, data string, key string) *reference.Table {
	t.Helper()
	table, err := reference.Load(strings.NewReader(data), "ref.csv", reference.Options{HeaderRow: 1, KeyColumn: key})
	require.NoError(t, err)
	return table
}

func openWorkbook(t *testing.T, a *Artifact) *excelize.File {
	t.Helper()
	require.NotNil(t, a)
	f, err := excelize.OpenReader(bytes.NewReader(a.Data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func rawCell(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func testJob() JobInfo {
	return NewJobInfo("JC-0042", "2024-05-01", "Module 3")
}
