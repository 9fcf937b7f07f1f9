package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	fillEditable = "#FFFFE0"
	fillHeader   = "#D3D3D3"
	weightFormat = "#,##0.000"

	// first data row for both reports, right under the column headers on row 10
	firstDataRow = 11
	headerRow    = 10

	paperA4 = 9
)

// frame places the shared title block on a sheet with cols columns. The block
// spans [1,logoEnd] left logo, [logoEnd+1,titleEnd] titles and the rest the right logo.
type frame struct {
	cols     int
	logoEnd  int
	titleEnd int
	widths   []float64
}

var jobCardFrame = frame{
	cols:     12,
	logoEnd:  2,
	titleEnd: 8,
	widths:   []float64{5, 15, 35, 5, 5, 10, 5, 10, 15, 15, 20, 15},
}

var pickTicketFrame = frame{
	cols:     8,
	logoEnd:  2,
	titleEnd: 5,
	widths:   []float64{5, 18, 20, 45, 12, 8, 12, 20},
}

type styles struct {
	title    int
	subtitle int
	editable int
	banner   int
	header   int
	cell     int
	number   int
	label    int
	total    int
	sign     int
}

// sheetWriter keeps the first excelize error so layout code reads top to bottom.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	fr    frame
	st    styles
	err   error
}

func newSheetWriter(sheet string, fr frame) (*sheetWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	w := &sheetWriter{f: f, sheet: sheet, fr: fr}
	if err := w.createStyles(); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, width := range fr.widths {
		col := w.colName(i + 1)
		w.check(f.SetColWidth(sheet, col, col, width))
	}
	if w.err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set column widths: %w", w.err)
	}
	return w, nil
}

func (w *sheetWriter) close() {
	_ = w.f.Close()
}

func (w *sheetWriter) createStyles() error {
	var err error
	mk := func(s *excelize.Style) int {
		if err != nil {
			return 0
		}
		var id int
		id, err = w.f.NewStyle(s)
		return id
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}
	weightFmt := weightFormat

	w.st.title = mk(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: center,
		Border:    thinBorders(),
	})
	w.st.subtitle = mk(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Alignment: center,
		Border:    thinBorders(),
	})
	w.st.editable = mk(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{fillEditable}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    thinBorders(),
	})
	w.st.banner = mk(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	w.st.header = mk(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{fillHeader}, Pattern: 1},
		Alignment: center,
		Border:    thinBorders(),
	})
	w.st.cell = mk(&excelize.Style{
		Font:      &excelize.Font{Size: 10},
		Alignment: center,
		Border:    thinBorders(),
	})
	w.st.number = mk(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Alignment:    center,
		Border:       thinBorders(),
		CustomNumFmt: &weightFmt,
	})
	w.st.label = mk(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
		Border:    thinBorders(),
	})
	w.st.total = mk(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		Alignment:    center,
		Border:       thinBorders(),
		CustomNumFmt: &weightFmt,
	})
	w.st.sign = mk(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}
	return nil
}

func (w *sheetWriter) check(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

func (w *sheetWriter) colName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	w.check(err)
	return name
}

func (w *sheetWriter) cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	w.check(err)
	return name
}

// merge writes value into the top-left cell of the range and styles the whole range.
func (w *sheetWriter) merge(fromCol, fromRow, toCol, toRow int, value any, style int) {
	from, to := w.cell(fromCol, fromRow), w.cell(toCol, toRow)
	if from != to {
		w.check(w.f.MergeCell(w.sheet, from, to))
	}
	w.put(from, value)
	w.check(w.f.SetCellStyle(w.sheet, from, to, style))
}

func (w *sheetWriter) set(col, row int, value any, style int) {
	c := w.cell(col, row)
	w.put(c, value)
	w.check(w.f.SetCellStyle(w.sheet, c, c, style))
}

func (w *sheetWriter) put(cell string, value any) {
	switch v := value.(type) {
	case nil:
	case string:
		// stored as a shared string, so "=..." stays text
		w.check(w.f.SetCellStr(w.sheet, cell, v))
	default:
		w.check(w.f.SetCellValue(w.sheet, cell, v))
	}
}

func (w *sheetWriter) height(row int, h float64) {
	w.check(w.f.SetRowHeight(w.sheet, row, h))
}

// titleBlock fills rows 1-9: logos, client/project/title, the editable job
// metadata and the instruction banner.
func (w *sheetWriter) titleBlock(job JobInfo, layout Layout) {
	fr := w.fr
	titleFrom := fr.logoEnd + 1
	rightFrom := fr.titleEnd + 1

	w.merge(1, 1, fr.logoEnd, 5, nil, w.st.title)
	w.merge(titleFrom, 1, fr.titleEnd, 1, layout.Client, w.st.title)
	w.merge(titleFrom, 2, fr.titleEnd, 2, layout.Project, w.st.subtitle)
	w.merge(titleFrom, 3, fr.titleEnd, 3, layout.Title, w.st.subtitle)
	w.merge(titleFrom, 4, fr.titleEnd, 5, nil, w.st.subtitle)
	w.merge(rightFrom, 1, fr.cols, 5, nil, w.st.title)
	for r := 1; r <= 5; r++ {
		w.height(r, 18)
	}
	w.logo(w.cell(1, 1), layout.LeftLogo)
	w.logo(w.cell(rightFrom, 1), layout.RightLogo)

	meta := []string{
		"JC Number : " + job.Number,
		"Issue Date : " + job.IssueDate,
		"Area : " + job.Area,
	}
	for i, text := range meta {
		r := 6 + i
		w.merge(1, r, fr.titleEnd, r, text, w.st.editable)
		w.merge(rightFrom, r, fr.cols, r, "", w.st.editable)
	}

	w.merge(1, 9, fr.cols, 9, layout.Instruction, w.st.banner)
	w.height(9, 30)
}

func (w *sheetWriter) logo(cell string, png []byte) {
	if len(png) == 0 {
		return
	}
	w.check(w.f.AddPictureFromBytes(w.sheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      png,
		Format:    &excelize.GraphicOptions{AutoFit: true, OffsetX: 4, OffsetY: 4, LockAspectRatio: true},
	}))
}

func (w *sheetWriter) headers(labels []string) {
	for i, h := range labels {
		w.set(i+1, headerRow, h, w.st.header)
	}
	w.height(headerRow, 30)
}

// signatures writes the sign-off rows starting at row and returns the last row used.
func (w *sheetWriter) signatures(row int, vendor string) int {
	last := w.fr.cols
	w.merge(1, row, 2, row, "Prepared by", w.st.sign)
	w.merge(3, row, 4, row, "Approved by", w.st.sign)
	w.merge(5, row, last, row, "Received", w.st.sign)
	w.height(row, 36)
	row++
	w.merge(1, row, 2, row, "Piping Engg.", w.st.sign)
	w.merge(3, row, 4, row, "J/C Co-Ordinator", w.st.sign)
	w.merge(5, row, last, row, "Spooling Vendor : "+vendor, w.st.sign)
	row++
	w.merge(1, row, last, row, "CC", w.st.sign)
	w.height(row, 24)
	return row
}

// printSetup prints the used range on A4 landscape, one page wide, repeating
// the title block and column headers on every page.
func (w *sheetWriter) printSetup(lastRow int) {
	size := paperA4
	orientation := "landscape"
	fitWidth, fitHeight := 1, 0
	w.check(w.f.SetPageLayout(w.sheet, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &orientation,
		FitToWidth:  &fitWidth,
		FitToHeight: &fitHeight,
	}))
	fit := true
	w.check(w.f.SetSheetProps(w.sheet, &excelize.SheetPropsOptions{FitToPage: &fit}))

	lastCol := w.colName(w.fr.cols)
	w.check(w.f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Area",
		RefersTo: fmt.Sprintf("'%s'!$A$1:$%s$%d", w.sheet, lastCol, lastRow),
		Scope:    w.sheet,
	}))
	w.check(w.f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Titles",
		RefersTo: fmt.Sprintf("'%s'!$1:$%d", w.sheet, headerRow),
		Scope:    w.sheet,
	}))
}

func (w *sheetWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
