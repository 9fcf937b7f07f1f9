package report

import (
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobInfoValidate(t *testing.T) {
	require.NoError(t, testJob().Validate())

	err := NewJobInfo("  ", "2024-13-40", "").Validate()
	require.Error(t, err)
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Contains(t, errs, "jc_number")
	assert.Contains(t, errs, "issue_date")
	assert.Contains(t, errs, "area")

	err = NewJobInfo("JC-1", "01/05/2024", "A").Validate()
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 1)
	assert.Contains(t, errs, "issue_date")
}

func TestJobInfoFileStem(t *testing.T) {
	assert.Equal(t, "JC-0042", testJob().FileStem())
	assert.Equal(t, "JC_12_A", NewJobInfo("JC 12/A", "", "").FileStem())
	assert.Equal(t, "job", NewJobInfo("///", "", "").FileStem())
}
