package report

import "fmt"

var jobCardHeaders = []string{
	"No.", "Area / WBS", "Spool", "Sheet", "Size", "Paint Code",
	"REV.", "Shop ID", "Weight", "Base Material", "Material Status", "Remarks",
}

const jobCardSheet = "Job Card"

// RenderJobCardXLSX writes the Request For Fabrication workbook: title block,
// one row per spool from row 11, the total weight and the sign-off footer.
func RenderJobCardXLSX(job JobInfo, card JobCard, layout Layout) (*Artifact, error) {
	layout = layout.withDefaults()
	w, err := newSheetWriter(jobCardSheet, jobCardFrame)
	if err != nil {
		return nil, err
	}
	defer w.close()

	w.titleBlock(job, layout)
	w.headers(jobCardHeaders)

	row := firstDataRow
	for _, r := range card.Rows {
		values := []any{
			r.No, r.Area, r.Spool, r.Sheet, r.Size, r.PaintCode,
			r.Revision, r.ShopID, nil, r.Material, r.Status, r.Remarks,
		}
		for i, v := range values {
			w.set(i+1, row, v, w.st.cell)
		}
		if r.Found {
			w.set(9, row, r.Weight, w.st.number)
		} else {
			w.set(9, row, "", w.st.cell)
		}
		row++
	}

	w.merge(1, row, 8, row, "Total Weight: (Kg)", w.st.label)
	w.merge(9, row, 12, row, card.TotalWeight, w.st.total)
	last := w.signatures(row+1, layout.Vendor)
	w.printSetup(last)

	data, err := w.bytes()
	if err != nil {
		return nil, fmt.Errorf("render job card: %w", err)
	}
	return newArtifact(KindJobCard, job.fileName("job_card.xlsx"), ContentTypeXLSX, data), nil
}
