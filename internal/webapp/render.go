package webapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/phillip-england/jobcard/internal/report"
	"github.com/phillip-england/jobcard/internal/workflow"
)

var numbers = message.NewPrinter(language.English)

var templateFuncs = template.FuncMap{
	"weight": func(v float64) string { return numbers.Sprintf("%.3f", v) },
	"kb": func(n int) string {
		if n < 1024 {
			return fmt.Sprintf("%d B", n)
		}
		return numbers.Sprintf("%.1f KB", float64(n)/1024)
	},
}

type pageData struct {
	Title    string
	Error    string
	CSRF     string
	Username string

	RequirePassword bool

	PresetName      string
	MaterialsPreset string
	ReferenceSheet  string
	MaterialsSheet  string
	MaxUploadMB     int64
	ReferenceName   string
	ReferenceRows   int
	MaterialsName   string
	MaterialsRows   int

	Job    report.JobInfo
	Spools string

	Result    *workflow.Result
	Artifacts []artifactView
}

type artifactView struct {
	Kind  string
	Label string
	Name  string
	Size  int
}

func artifactLabel(k report.Kind) string {
	switch k {
	case report.KindJobCard:
		return "Job Card (Excel)"
	case report.KindJobCardPDF:
		return "Job Card (PDF)"
	case report.KindPickTicket:
		return "Material Pick Ticket (Excel)"
	default:
		return string(k)
	}
}

func renderHTMLTemplate(w http.ResponseWriter, tmpl *template.Template, status int, data pageData) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
