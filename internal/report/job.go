package report

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const IssueDateLayout = "2006-01-02"

// JobInfo is the metadata printed in rows 6-8 of every report.
type JobInfo struct {
	Number    string `json:"jc_number"`
	IssueDate string `json:"issue_date"`
	Area      string `json:"area"`
}

func NewJobInfo(number, issueDate, area string) JobInfo {
	return JobInfo{
		Number:    strings.TrimSpace(number),
		IssueDate: strings.TrimSpace(issueDate),
		Area:      strings.TrimSpace(area),
	}
}

func (j JobInfo) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.Number, validation.Required, validation.Length(1, 64)),
		validation.Field(&j.IssueDate, validation.Required, validation.Date(IssueDateLayout)),
		validation.Field(&j.Area, validation.Required, validation.Length(1, 128)),
	)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileStem turns the JC number into something safe for a download name.
func (j JobInfo) FileStem() string {
	stem := strings.Trim(unsafeFileChars.ReplaceAllString(j.Number, "_"), "._")
	if stem == "" {
		return "job"
	}
	return stem
}

func (j JobInfo) fileName(suffix string) string {
	return j.FileStem() + "_" + suffix
}
