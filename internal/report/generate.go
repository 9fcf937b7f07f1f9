package report

import (
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phillip-england/jobcard/internal/reference"
)

// Options carries the column mappings, material filter and page layout shared
// by every report of one run.
type Options struct {
	JobCardFields  JobCardFields
	PickFields     PickTicketFields
	MaterialFilter MaterialFilter
	Layout         Layout
	// SkipPDF leaves out the PDF rendition of the job card.
	SkipPDF bool
}

func DefaultOptions() Options {
	return Options{
		JobCardFields: DefaultJobCardFields(),
		PickFields:    DefaultPickTicketFields(),
		Layout:        DefaultLayout(),
	}
}

// Bundle is everything one generation run produced.
type Bundle struct {
	Artifacts   []*Artifact
	TotalWeight float64
	Missing     []string
	Warnings    []string
}

// Generate joins ids against the reference table and renders the job card,
// plus the pick ticket when a material table is given. Renders run
// concurrently; artifacts come back in a fixed order.
func Generate(job JobInfo, ids []string, ref, materials *reference.Table, opts Options, log *zap.Logger) (Bundle, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := job.Validate(); err != nil {
		return Bundle{}, err
	}

	card := BuildJobCard(ids, ref, opts.JobCardFields, log)
	b := Bundle{
		TotalWeight: card.TotalWeight,
		Missing:     card.Missing,
		Warnings:    card.Warnings,
	}

	var ticket PickTicket
	if materials != nil {
		ticket = BuildPickTicket(ids, materials, opts.PickFields, opts.MaterialFilter, log)
		b.Warnings = append(b.Warnings, ticket.Warnings...)
	}

	arts := make([]*Artifact, 3)
	var g errgroup.Group
	g.Go(func() (err error) {
		arts[0], err = RenderJobCardXLSX(job, card, opts.Layout)
		return err
	})
	if !opts.SkipPDF {
		g.Go(func() (err error) {
			arts[1], err = RenderJobCardPDF(job, card, opts.Layout)
			return err
		})
	}
	if materials != nil {
		g.Go(func() (err error) {
			arts[2], err = RenderPickTicketXLSX(job, ticket, opts.Layout)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	for _, a := range arts {
		if a != nil {
			b.Artifacts = append(b.Artifacts, a)
		}
	}
	return b, nil
}
