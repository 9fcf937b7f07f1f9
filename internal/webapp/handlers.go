package webapp

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/phillip-england/jobcard/internal/archive"
	"github.com/phillip-england/jobcard/internal/report"
	"github.com/phillip-england/jobcard/internal/spool"
	"github.com/phillip-england/jobcard/internal/workflow"
)

func redirectWithError(w http.ResponseWriter, r *http.Request, path, message string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(message), http.StatusFound)
}

// page snapshots the session for rendering. When the session is not in want,
// the user is redirected to the page of its current state and ok is false.
func (s *Server) page(w http.ResponseWriter, r *http.Request, want workflow.State) (data pageData, ok bool) {
	var state workflow.State
	found := s.update(w, r, func(sess *workflow.Session) error {
		state = sess.State()
		data = pageData{
			Error:           r.URL.Query().Get("error"),
			CSRF:            sess.CSRFToken,
			Username:        sess.Username,
			RequirePassword: s.opts.Users.RequiresPassword(),
			PresetName:      presetName(s.opts.ReferencePreset),
			MaterialsPreset: presetName(s.opts.MaterialsPreset),
			ReferenceSheet:  s.opts.Reference.Sheet,
			MaterialsSheet:  s.opts.Materials.Sheet,
			MaxUploadMB:     s.opts.MaxUploadBytes >> 20,
		}
		ds := sess.Data()
		data.ReferenceName, data.ReferenceRows = ds.ReferenceName, ds.Reference.Len()
		data.MaterialsName, data.MaterialsRows = ds.MaterialsName, ds.Materials.Len()
		job, spools := sess.Draft()
		data.Job, data.Spools = job, spool.Join(spools)
		data.Result = sess.Result()
		return nil
	})
	if !found {
		return pageData{}, false
	}
	if state != want {
		http.Redirect(w, r, pathFor(state), http.StatusFound)
		return pageData{}, false
	}
	return data, true
}

func (s *Server) currentState(r *http.Request) (workflow.State, error) {
	var state workflow.State
	err := s.store.View(sessionIDFromContext(r.Context()), func(sess *workflow.Session) {
		state = sess.State()
	})
	return state, err
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, status int, data pageData) {
	if err := renderHTMLTemplate(w, tmpl, status, data); err != nil {
		s.log.Error("template render failed", zap.String("page", data.Title), zap.Error(err))
		http.Error(w, "template render failed", http.StatusInternalServerError)
	}
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	state, err := s.currentState(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	http.Redirect(w, r, pathFor(state), http.StatusFound)
}

func (s *Server) loginRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, ok := s.page(w, r, workflow.AwaitingAuth)
		if !ok {
			return
		}
		data.Title = "Sign in"
		s.render(w, s.loginTmpl, http.StatusOK, data)
	case http.MethodPost:
		s.login(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// login swaps the anonymous session for a fresh authenticated one so a
// pre-login session id is never reused.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	state, err := s.currentState(r)
	if err != nil || state != workflow.AwaitingAuth {
		http.Redirect(w, r, pathFor(state), http.StatusFound)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || (s.opts.Users.RequiresPassword() && password == "") {
		redirectWithError(w, r, "/login", "Username and password are required")
		return
	}
	if !s.opts.Users.Verify(username, password) {
		s.log.Warn("login rejected", zap.String("username", username))
		redirectWithError(w, r, "/login", "Invalid credentials")
		return
	}

	sess, err := s.store.Create()
	if err != nil {
		s.log.Error("create session", zap.Error(err))
		redirectWithError(w, r, "/login", "Unable to sign in")
		return
	}
	if err := s.store.Update(sess.ID, func(sess *workflow.Session) error {
		return sess.Authenticate(username)
	}); err != nil {
		s.log.Error("authenticate session", zap.Error(err))
		redirectWithError(w, r, "/login", "Unable to sign in")
		return
	}
	s.store.Delete(sessionIDFromContext(r.Context()))
	s.setSessionCookie(w, sess.ID)
	s.log.Info("login", zap.String("username", username))
	http.Redirect(w, r, "/data", http.StatusFound)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := sessionIDFromContext(r.Context())
	var username string
	_ = s.store.Update(id, func(sess *workflow.Session) error {
		username = sess.Username
		sess.Logout()
		return nil
	})
	s.store.Delete(id)
	expireSessionCookie(w)
	s.log.Info("logout", zap.String("username", username))
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) dataRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, ok := s.page(w, r, workflow.AwaitingData)
		if !ok {
			return
		}
		data.Title = "Reference data"
		s.render(w, s.dataTmpl, http.StatusOK, data)
	case http.MethodPost:
		s.loadData(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) loadData(w http.ResponseWriter, r *http.Request) {
	state, err := s.currentState(r)
	if err != nil || state == workflow.AwaitingAuth {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	var ds workflow.DataSet
	ds.Reference, ds.ReferenceName, err = s.loadUploadedTable(r, "reference", s.opts.Reference)
	if errors.Is(err, errNoFile) {
		if s.opts.ReferencePreset == "" {
			redirectWithError(w, r, "/data", "Upload the SGS spool reference file")
			return
		}
		ds.Reference, ds.ReferenceName, err = loadPresetTable(s.opts.ReferencePreset, s.opts.Reference)
	}
	if err != nil {
		s.log.Warn("reference load failed", zap.Error(err))
		redirectWithError(w, r, "/data", loadErrorMessage("Reference file", err))
		return
	}

	ds.Materials, ds.MaterialsName, err = s.loadUploadedTable(r, "materials", s.opts.Materials)
	if errors.Is(err, errNoFile) {
		err = nil
		if s.opts.MaterialsPreset != "" {
			ds.Materials, ds.MaterialsName, err = loadPresetTable(s.opts.MaterialsPreset, s.opts.Materials)
		}
	}
	if err != nil {
		s.log.Warn("material list load failed", zap.Error(err))
		redirectWithError(w, r, "/data", loadErrorMessage("Material list", err))
		return
	}

	var next workflow.State
	if !s.update(w, r, func(sess *workflow.Session) error {
		if err := sess.LoadData(ds); err != nil && !errors.Is(err, workflow.ErrInvalidTransition) {
			return err
		}
		next = sess.State()
		return nil
	}) {
		return
	}
	s.log.Info("reference data loaded",
		zap.String("reference", ds.ReferenceName),
		zap.Int("reference_rows", ds.Reference.Len()),
		zap.String("materials", ds.MaterialsName),
		zap.Int("material_rows", ds.Materials.Len()))
	http.Redirect(w, r, pathFor(next), http.StatusFound)
}

func (s *Server) jobRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, ok := s.page(w, r, workflow.AwaitingJobInfo)
		if !ok {
			return
		}
		data.Title = "Job details"
		if data.Job.IssueDate == "" {
			data.Job.IssueDate = time.Now().Format(report.IssueDateLayout)
		}
		s.render(w, s.jobTmpl, http.StatusOK, data)
	case http.MethodPost:
		s.submitJob(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	job := report.NewJobInfo(r.FormValue("jc_number"), r.FormValue("issue_date"), r.FormValue("area"))
	spoolText := r.FormValue("spools")
	ids := spool.ParseList(spoolText)

	var (
		state  workflow.State
		genErr error
		result workflow.Result
	)
	problem := jobProblem(job, ids)
	if !s.update(w, r, func(sess *workflow.Session) error {
		state = sess.State()
		if state != workflow.AwaitingJobInfo && state != workflow.ReportsReady {
			return nil
		}
		if problem != "" {
			return nil
		}
		result, genErr = s.generate(job, ids, sess.Data())
		if genErr != nil {
			return nil
		}
		if err := sess.Complete(result); err != nil {
			return err
		}
		state = sess.State()
		return nil
	}) {
		return
	}
	if state != workflow.AwaitingJobInfo && state != workflow.ReportsReady {
		http.Redirect(w, r, pathFor(state), http.StatusFound)
		return
	}

	if problem != "" || genErr != nil {
		status := http.StatusUnprocessableEntity
		if genErr != nil {
			s.log.Error("report generation failed", zap.String("jc_number", job.Number), zap.Error(genErr))
			problem = "Report generation failed: " + genErr.Error()
			status = http.StatusInternalServerError
		}
		data, ok := s.pageAny(w, r)
		if !ok {
			return
		}
		data.Title = "Job details"
		data.Error = problem
		data.Job = job
		data.Spools = spoolText
		s.render(w, s.jobTmpl, status, data)
		return
	}

	s.log.Info("reports generated",
		zap.String("jc_number", job.Number),
		zap.Int("spools", len(ids)),
		zap.Int("missing", len(result.Missing)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Float64("total_weight", result.TotalWeight))
	http.Redirect(w, r, "/reports", http.StatusFound)
}

// pageAny is page without the state gate, for re-rendering a rejected form.
func (s *Server) pageAny(w http.ResponseWriter, r *http.Request) (pageData, bool) {
	state, err := s.currentState(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return pageData{}, false
	}
	return s.page(w, r, state)
}

func jobProblem(job report.JobInfo, ids []string) string {
	if err := job.Validate(); err != nil {
		var errs validation.Errors
		if errors.As(err, &errs) {
			return "Please fix: " + errs.Error()
		}
		return err.Error()
	}
	if len(ids) == 0 {
		return "Enter at least one spool number"
	}
	return ""
}

// generate renders every report for the session tables and archives them.
func (s *Server) generate(job report.JobInfo, ids []string, ds workflow.DataSet) (workflow.Result, error) {
	log := s.log.With(zap.String("jc_number", job.Number))
	bundle, err := report.Generate(job, ids, ds.Reference, ds.Materials, s.opts.Report, log)
	if err != nil {
		return workflow.Result{}, err
	}
	s.archiveArtifacts(bundle.Artifacts)
	return workflow.Result{
		Job:         job,
		Spools:      ids,
		Artifacts:   bundle.Artifacts,
		TotalWeight: bundle.TotalWeight,
		Missing:     bundle.Missing,
		Warnings:    bundle.Warnings,
	}, nil
}

func (s *Server) archiveArtifacts(arts []*report.Artifact) {
	if s.opts.Archive == nil {
		return
	}
	for _, a := range arts {
		path, err := s.opts.Archive.Save(archive.Name(a.CreatedAt, a.Name), a.Data)
		if err != nil {
			s.log.Warn("archive report failed", zap.String("name", a.Name), zap.Error(err))
			continue
		}
		s.log.Debug("report archived", zap.String("path", path))
	}
}

func (s *Server) reportsPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, ok := s.page(w, r, workflow.ReportsReady)
	if !ok {
		return
	}
	data.Title = "Reports"
	if data.Result != nil {
		for _, a := range data.Result.Artifacts {
			data.Artifacts = append(data.Artifacts, artifactView{
				Kind:  string(a.Kind),
				Label: artifactLabel(a.Kind),
				Name:  a.Name,
				Size:  len(a.Data),
			})
		}
	}
	s.render(w, s.reportsTmpl, http.StatusOK, data)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	kind := report.Kind(strings.TrimSpace(r.URL.Query().Get("kind")))
	if !kind.Valid() {
		http.Error(w, "unknown report kind", http.StatusBadRequest)
		return
	}

	var (
		state    workflow.State
		artifact *report.Artifact
		found    bool
	)
	if !s.update(w, r, func(sess *workflow.Session) error {
		state = sess.State()
		artifact, found = sess.Artifact(kind)
		return nil
	}) {
		return
	}
	if state != workflow.ReportsReady {
		http.Redirect(w, r, pathFor(state), http.StatusFound)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(artifact.Data)
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var state workflow.State
	if !s.update(w, r, func(sess *workflow.Session) error {
		if err := sess.Back(); err != nil && !errors.Is(err, workflow.ErrInvalidTransition) {
			return err
		}
		state = sess.State()
		return nil
	}) {
		return
	}
	http.Redirect(w, r, pathFor(state), http.StatusFound)
}
