package report

import (
	"go.uber.org/zap"

	"github.com/phillip-england/jobcard/internal/reference"
)

// JobCardFields lists, per output column, the reference headers to read it from.
// The first header present in the row wins.
type JobCardFields struct {
	Area      []string
	Sheet     []string
	Size      []string
	PaintCode []string
	Revision  []string
	ShopID    []string
	Weight    []string
	Material  []string
	Status    []string
	Remarks   []string
}

func DefaultJobCardFields() JobCardFields {
	return JobCardFields{
		Area:      []string{"area / wbs", "área", "area", "module", "wbs"},
		Sheet:     []string{"sheet", "sheet no", "sht"},
		Size:      []string{"size", "nps", "dn", "diameter"},
		PaintCode: []string{"paint code", "paint system", "paint"},
		Revision:  []string{"rev", "revision"},
		ShopID:    []string{"shop id", "shop"},
		Weight:    []string{"weight", "weight (kg)", "weight kg", "wt"},
		Material:  []string{"base material", "material"},
		Status:    []string{"material status", "status"},
		Remarks:   []string{"remarks", "remark", "comments"},
	}
}

type JobCardRow struct {
	No        int
	Area      string
	Spool     string
	Sheet     string
	Size      string
	PaintCode string
	Revision  string
	ShopID    string
	Weight    float64
	Material  string
	Status    string
	Remarks   string
	// Found is false when the spool is not in the reference table; the row
	// then carries only its number and identifier.
	Found bool
}

type JobCard struct {
	Rows        []JobCardRow
	TotalWeight float64
	Missing     []string
	Warnings    []string
}

// BuildJobCard produces exactly one row per identifier, in order. Identifiers
// without a reference row yield a blank row with weight 0.
func BuildJobCard(ids []string, table *reference.Table, fields JobCardFields, log *zap.Logger) JobCard {
	if log == nil {
		log = zap.NewNop()
	}
	card := JobCard{Rows: make([]JobCardRow, 0, len(ids))}
	for i, id := range ids {
		row := JobCardRow{No: i + 1, Spool: id}
		ref, ok := table.First(id)
		if !ok {
			card.Missing = append(card.Missing, id)
			card.Rows = append(card.Rows, row)
			continue
		}

		row.Found = true
		row.Area = ref.Lookup(fields.Area...)
		row.Sheet = ref.Lookup(fields.Sheet...)
		row.Size = ref.Lookup(fields.Size...)
		row.PaintCode = ref.Lookup(fields.PaintCode...)
		row.Revision = ref.Lookup(fields.Revision...)
		row.ShopID = ref.Lookup(fields.ShopID...)
		row.Material = ref.Lookup(fields.Material...)
		row.Status = ref.Lookup(fields.Status...)
		row.Remarks = ref.Lookup(fields.Remarks...)

		weight, warning := numberOrZero(ref.Lookup(fields.Weight...), id, "weight")
		if warning != "" {
			log.Warn("weight fallback",
				zap.String("spool", id),
				zap.Int("line", ref.Line),
				zap.String("detail", warning))
			card.Warnings = append(card.Warnings, warning)
		}
		row.Weight = weight
		card.TotalWeight += weight
		card.Rows = append(card.Rows, row)
	}
	if len(card.Missing) > 0 {
		log.Info("spools not in reference table", zap.Strings("spools", card.Missing))
	}
	return card
}
