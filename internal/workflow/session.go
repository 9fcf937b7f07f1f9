package workflow

import (
	"strings"
	"time"

	"github.com/phillip-england/jobcard/internal/reference"
	"github.com/phillip-england/jobcard/internal/report"
)

// DataSet is what the data step produced: the spool reference table and the
// optional material list.
type DataSet struct {
	Reference     *reference.Table
	ReferenceName string
	Materials     *reference.Table
	MaterialsName string
}

func (d DataSet) HasMaterials() bool {
	return d.Materials != nil
}

// Result is the output of the job step.
type Result struct {
	Job         report.JobInfo
	Spools      []string
	Artifacts   []*report.Artifact
	TotalWeight float64
	Missing     []string
	Warnings    []string
}

// Session holds one user's workflow. It is only touched through Store.Update
// or Store.View, which serialise access.
type Session struct {
	ID        string
	CSRFToken string
	Username  string
	CreatedAt time.Time
	LastSeen  time.Time

	state State
	data  DataSet
	// job and spools survive Back so the job form can be pre-filled
	job    report.JobInfo
	spools []string
	result *Result
}

func newSession(id, csrf string, now time.Time) *Session {
	return &Session{ID: id, CSRFToken: csrf, CreatedAt: now, LastSeen: now, state: AwaitingAuth}
}

func (s *Session) State() State { return s.state }

func (s *Session) Data() DataSet { return s.data }

func (s *Session) Result() *Result { return s.result }

// Draft returns the last submitted job fields and spool list.
func (s *Session) Draft() (report.JobInfo, []string) { return s.job, s.spools }

func (s *Session) Authenticate(username string) error {
	if s.state != AwaitingAuth {
		return transitionError("authenticate", s.state)
	}
	s.Username = strings.TrimSpace(username)
	s.state = AwaitingData
	return nil
}

// LoadData replaces the tables; reports built from the old tables are dropped.
func (s *Session) LoadData(ds DataSet) error {
	switch s.state {
	case AwaitingData, AwaitingJobInfo, ReportsReady:
	default:
		return transitionError("load data", s.state)
	}
	if ds.Reference == nil {
		return ErrNoReference
	}
	s.data = ds
	s.result = nil
	s.state = AwaitingJobInfo
	return nil
}

func (s *Session) Complete(res Result) error {
	switch s.state {
	case AwaitingJobInfo, ReportsReady:
	default:
		return transitionError("complete", s.state)
	}
	s.job = res.Job
	s.spools = res.Spools
	s.result = &res
	s.state = ReportsReady
	return nil
}

func (s *Session) Back() error {
	switch s.state {
	case ReportsReady:
		s.result = nil
		s.state = AwaitingJobInfo
	case AwaitingJobInfo:
		s.state = AwaitingData
	default:
		return transitionError("back", s.state)
	}
	return nil
}

// Logout returns to the login step and forgets everything but the session id.
func (s *Session) Logout() {
	s.Username = ""
	s.data = DataSet{}
	s.job = report.JobInfo{}
	s.spools = nil
	s.result = nil
	s.state = AwaitingAuth
}

// Artifact returns the generated report of the given kind, if any.
func (s *Session) Artifact(kind report.Kind) (*report.Artifact, bool) {
	if s.state != ReportsReady || s.result == nil {
		return nil, false
	}
	for _, a := range s.result.Artifacts {
		if a.Kind == kind {
			return a, true
		}
	}
	return nil, false
}
