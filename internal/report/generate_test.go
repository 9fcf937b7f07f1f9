package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(arts []*Artifact) []Kind {
	out := make([]Kind, 0, len(arts))
	for _, a := range arts {
		out = append(out, a.Kind)
	}
	return out
}

func TestGenerateWithMaterials(t *testing.T) {
	ref := loadCSV(t, spoolCSV, "PF Code")
	materials := loadCSV(t, "Spool,Item Type,Material Code,Description,Qty,UOM\nSP-001,PIPE,P-1,Pipe,x,M\n", "Spool")

	b, err := Generate(testJob(), []string{"SP-001", "SP-404"}, ref, materials, DefaultOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, []Kind{KindJobCard, KindJobCardPDF, KindPickTicket}, kinds(b.Artifacts))
	assert.InDelta(t, 12.5, b.TotalWeight, 1e-9)
	assert.Equal(t, []string{"SP-404"}, b.Missing)
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "P-1")
	for _, a := range b.Artifacts {
		assert.NotEmpty(t, a.ID)
		assert.NotEmpty(t, a.Data)
		assert.Contains(t, a.Name, "JC-0042")
	}
}

func TestGenerateJobCardOnly(t *testing.T) {
	ref := loadCSV(t, spoolCSV, "PF Code")
	opts := DefaultOptions()
	opts.SkipPDF = true

	b, err := Generate(testJob(), []string{"SP-001"}, ref, nil, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindJobCard}, kinds(b.Artifacts))
}

func TestGenerateRejectsInvalidJob(t *testing.T) {
	ref := loadCSV(t, spoolCSV, "PF Code")
	_, err := Generate(NewJobInfo("", "2024-05-01", "M"), []string{"SP-001"}, ref, nil, DefaultOptions(), nil)
	require.Error(t, err)
}
