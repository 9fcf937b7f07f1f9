package report

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/phillip-england/jobcard/internal/reference"
)

const (
	pickTicketSheet = "Pick Ticket"
	pickTicketTitle = "Material Pick Ticket"
)

var pickTicketHeaders = []string{
	"No.", "Spool / Drawing", "Material Code", "Description",
	"Required Qty", "UOM", "Issued Qty", "Remarks",
}

type PickTicketFields struct {
	Type        []string
	Code        []string
	Description []string
	Qty         []string
	UOM         []string
}

func DefaultPickTicketFields() PickTicketFields {
	return PickTicketFields{
		Type:        []string{"item type", "type", "category"},
		Code:        []string{"material code", "code", "item code", "ident"},
		Description: []string{"description", "desc", "material description"},
		Qty:         []string{"required qty", "qty", "quantity"},
		UOM:         []string{"uom", "unit"},
	}
}

// MaterialFilter decides which material rows go on a pick ticket. An empty
// AllowedTypes admits every type.
type MaterialFilter struct {
	AllowedTypes     []string
	ExcludedPrefixes []string
}

func (f MaterialFilter) Allows(itemType, code string) bool {
	if len(f.AllowedTypes) > 0 {
		ok := false
		for _, t := range f.AllowedTypes {
			if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(itemType)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	upper := strings.ToUpper(strings.TrimSpace(code))
	for _, p := range f.ExcludedPrefixes {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" && strings.HasPrefix(upper, p) {
			return false
		}
	}
	return true
}

type PickTicketRow struct {
	No          int
	Spool       string
	Type        string
	Code        string
	Description string
	Qty         float64
	UOM         string
}

type PickTicket struct {
	Rows     []PickTicketRow
	Missing  []string
	Filtered int
	Warnings []string
}

// BuildPickTicket emits, per identifier in order, every eligible material row
// keyed by it. Material rows for other identifiers never appear.
func BuildPickTicket(ids []string, materials *reference.Table, fields PickTicketFields, filter MaterialFilter, log *zap.Logger) PickTicket {
	if log == nil {
		log = zap.NewNop()
	}
	var ticket PickTicket
	for _, id := range ids {
		rows := materials.All(id)
		if len(rows) == 0 {
			ticket.Missing = append(ticket.Missing, id)
			continue
		}
		for _, ref := range rows {
			itemType := ref.Lookup(fields.Type...)
			code := ref.Lookup(fields.Code...)
			if !filter.Allows(itemType, code) {
				ticket.Filtered++
				continue
			}
			qty, warning := numberOrZero(ref.Lookup(fields.Qty...), id+" "+code, "quantity")
			if warning != "" {
				log.Warn("quantity fallback",
					zap.String("spool", id),
					zap.String("code", code),
					zap.Int("line", ref.Line),
					zap.String("detail", warning))
				ticket.Warnings = append(ticket.Warnings, warning)
			}
			ticket.Rows = append(ticket.Rows, PickTicketRow{
				No:          len(ticket.Rows) + 1,
				Spool:       id,
				Type:        itemType,
				Code:        code,
				Description: ref.Lookup(fields.Description...),
				Qty:         qty,
				UOM:         ref.Lookup(fields.UOM...),
			})
		}
	}
	log.Debug("pick ticket built",
		zap.Int("rows", len(ticket.Rows)),
		zap.Int("filtered", ticket.Filtered),
		zap.Int("missing", len(ticket.Missing)))
	return ticket
}

// RenderPickTicketXLSX shares the job card title block; Issued Qty and Remarks
// are left blank for the store to fill in.
func RenderPickTicketXLSX(job JobInfo, ticket PickTicket, layout Layout) (*Artifact, error) {
	layout = layout.withDefaults()
	layout.Title = pickTicketTitle
	w, err := newSheetWriter(pickTicketSheet, pickTicketFrame)
	if err != nil {
		return nil, err
	}
	defer w.close()

	w.titleBlock(job, layout)
	w.headers(pickTicketHeaders)

	row := firstDataRow
	for _, r := range ticket.Rows {
		w.set(1, row, r.No, w.st.cell)
		w.set(2, row, r.Spool, w.st.cell)
		w.set(3, row, r.Code, w.st.cell)
		w.set(4, row, r.Description, w.st.cell)
		w.set(5, row, r.Qty, w.st.cell)
		w.set(6, row, r.UOM, w.st.cell)
		w.set(7, row, "", w.st.editable)
		w.set(8, row, "", w.st.editable)
		row++
	}

	last := w.signatures(row, layout.Vendor)
	w.printSetup(last)

	data, err := w.bytes()
	if err != nil {
		return nil, fmt.Errorf("render pick ticket: %w", err)
	}
	return newArtifact(KindPickTicket, job.fileName("pick_ticket.xlsx"), ContentTypeXLSX, data), nil
}
