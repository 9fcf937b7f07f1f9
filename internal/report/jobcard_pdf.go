package report

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	pdfHeaderBg = &props.Color{Red: 211, Green: 211, Blue: 211}
	pdfEditBg   = &props.Color{Red: 255, Green: 255, Blue: 224}
	pdfBorder   = props.Cell{BorderType: border.Full, BorderThickness: 0.2}
	pdfNumbers  = message.NewPrinter(language.English)
)

// RenderJobCardPDF lays out the job card for printing: same title block,
// columns and footer as the workbook on A4 landscape.
func RenderJobCardPDF(job JobInfo, card JobCard, layout Layout) (*Artifact, error) {
	layout = layout.withDefaults()
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(8).
		WithTopMargin(8).
		WithRightMargin(8).
		WithMaxGridSize(13).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
		}).
		Build()

	m := maroto.New(cfg)
	addPDFTitle(m, job, layout)
	addPDFHeader(m)
	for _, r := range card.Rows {
		addPDFRow(m, r)
	}
	addPDFFooter(m, card.TotalWeight, layout.Vendor)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render job card pdf: %w", err)
	}
	return newArtifact(KindJobCardPDF, job.fileName("job_card.pdf"), ContentTypePDF, doc.GetBytes()), nil
}

func boxed(c core.Col, bg *props.Color) core.Col {
	style := pdfBorder
	style.BackgroundColor = bg
	return c.WithStyle(&style)
}

func pdfText(s string, size float64, bold bool, a align.Type) core.Component {
	p := props.Text{Size: size, Align: a, Top: 1.5, Left: 1, Right: 1}
	if bold {
		p.Style = fontstyle.Bold
	}
	return text.New(s, p)
}

func logoCol(size int, png []byte) core.Col {
	c := col.New(size)
	if len(png) > 0 {
		c.Add(image.NewFromBytes(png, extension.Png, props.Rect{Center: true, Percent: 85}))
	}
	return boxed(c, nil)
}

func addPDFTitle(m core.Maroto, job JobInfo, layout Layout) {
	m.AddRows(
		row.New(28).Add(
			logoCol(3, layout.LeftLogo),
			boxed(col.New(7).Add(
				pdfText(layout.Client, 14, true, align.Center),
				text.New(layout.Project, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Center, Top: 9}),
				text.New(layout.Title, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Center, Top: 16}),
			), nil),
			logoCol(3, layout.RightLogo),
		),
	)
	for _, line := range []string{
		"JC Number : " + job.Number,
		"Issue Date : " + job.IssueDate,
		"Area : " + job.Area,
	} {
		m.AddRows(row.New(7).Add(
			boxed(col.New(10).Add(pdfText(line, 9, true, align.Left)), pdfEditBg),
			boxed(col.New(3), pdfEditBg),
		))
	}
	m.AddRows(row.New(10).Add(
		boxed(col.New(13).Add(pdfText(layout.Instruction, 9, true, align.Left)), nil),
	))
}

func addPDFHeader(m core.Maroto) {
	cols := make([]core.Col, 0, len(jobCardHeaders))
	for i, h := range jobCardHeaders {
		cols = append(cols, boxed(col.New(pdfWidth(i)).Add(pdfText(h, 7, true, align.Center)), pdfHeaderBg))
	}
	m.AddRows(row.New(9).Add(cols...))
}

func addPDFRow(m core.Maroto, r JobCardRow) {
	weight := ""
	if r.Found {
		weight = formatWeight(r.Weight)
	}
	values := []string{
		fmt.Sprint(r.No), r.Area, r.Spool, r.Sheet, r.Size, r.PaintCode,
		r.Revision, r.ShopID, weight, r.Material, r.Status, r.Remarks,
	}
	cols := make([]core.Col, 0, len(values))
	for i, v := range values {
		cols = append(cols, boxed(col.New(pdfWidth(i)).Add(pdfText(v, 7, false, align.Center)), nil))
	}
	m.AddRows(row.New(7).Add(cols...))
}

func addPDFFooter(m core.Maroto, total float64, vendor string) {
	m.AddRows(
		row.New(8).Add(
			boxed(col.New(9).Add(pdfText("Total Weight: (Kg)", 9, true, align.Right)), nil),
			boxed(col.New(4).Add(pdfText(formatWeight(total), 9, true, align.Center)), nil),
		),
		row.New(14).Add(
			boxed(col.New(3).Add(pdfText("Prepared by", 8, true, align.Left)), nil),
			boxed(col.New(3).Add(pdfText("Approved by", 8, true, align.Left)), nil),
			boxed(col.New(7).Add(pdfText("Received", 8, true, align.Left)), nil),
		),
		row.New(8).Add(
			boxed(col.New(3).Add(pdfText("Piping Engg.", 8, true, align.Left)), nil),
			boxed(col.New(3).Add(pdfText("J/C Co-Ordinator", 8, true, align.Left)), nil),
			boxed(col.New(7).Add(pdfText("Spooling Vendor : "+vendor, 8, true, align.Left)), nil),
		),
		row.New(8).Add(
			boxed(col.New(13).Add(pdfText("CC", 8, true, align.Left)), nil),
		),
	)
}

// pdfWidth maps the twelve report columns onto the 13-unit grid; Spool gets two.
func pdfWidth(i int) int {
	if i == 2 {
		return 2
	}
	return 1
}

func formatWeight(v float64) string {
	return pdfNumbers.Sprintf("%.3f", v)
}
