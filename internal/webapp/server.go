// Package webapp serves the login, upload, job and download pages.
package webapp

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phillip-england/jobcard/internal/middleware"
	"github.com/phillip-england/jobcard/internal/workflow"
)

const (
	csrfHeaderName    = "X-CSRF-Token"
	csrfFieldName     = "csrf_token"
	sessionCookieName = "jobcard_session"
)

//go:embed templates/layout.html templates/login.html templates/data.html templates/job.html templates/reports.html assets/app.css
var templatesFS embed.FS

type Server struct {
	opts  Options
	log   *zap.Logger
	store *workflow.Store

	loginTmpl   *template.Template
	dataTmpl    *template.Template
	jobTmpl     *template.Template
	reportsTmpl *template.Template
}

func New(opts Options) (*Server, error) {
	if opts.Users == nil || opts.Users.Len() == 0 {
		return nil, errors.New("webapp: no users configured")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	return &Server{
		opts:        opts,
		log:         opts.Log,
		store:       workflow.NewStore(opts.SessionTTL, opts.Log.Named("sessions")).LimitAnonymous(opts.AnonymousTTL, opts.MaxAnonymous),
		loginTmpl:   parsePage("templates/login.html"),
		dataTmpl:    parsePage("templates/data.html"),
		jobTmpl:     parsePage("templates/job.html"),
		reportsTmpl: parsePage("templates/reports.html"),
	}, nil
}

func parsePage(name string) *template.Template {
	return template.Must(template.New("layout.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/layout.html", name))
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(s.health))
	mux.Handle("/assets/app.css", http.HandlerFunc(s.appCSSFile))
	mux.Handle("/", middleware.Chain(http.HandlerFunc(s.index), s.withSession))
	mux.Handle("/login", middleware.Chain(http.HandlerFunc(s.loginRoute), s.withSession, s.csrfProtect))
	mux.Handle("/logout", middleware.Chain(http.HandlerFunc(s.logout), s.withSession, s.csrfProtect))
	mux.Handle("/data", middleware.Chain(http.HandlerFunc(s.dataRoute), s.withSession, s.csrfProtect))
	mux.Handle("/job", middleware.Chain(http.HandlerFunc(s.jobRoute), s.withSession, s.csrfProtect))
	mux.Handle("/reports", middleware.Chain(http.HandlerFunc(s.reportsPage), s.withSession))
	mux.Handle("/reports/download", middleware.Chain(http.HandlerFunc(s.download), s.withSession))
	mux.Handle("/back", middleware.Chain(http.HandlerFunc(s.back), s.withSession, s.csrfProtect))

	csp := strings.Join([]string{
		"default-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"script-src 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	return middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.AccessLog(s.log.Named("http")),
		middleware.Recover(s.log),
		middleware.Gzip,
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: csp}),
	)
}

// httpServer bounds the whole request read, upload bodies included.
func (s *Server) httpServer() *http.Server {
	return &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}
}

// Run serves HTTP and sweeps idle sessions until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := s.httpServer()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", s.opts.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return s.store.Run(gctx, s.opts.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) appCSSFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, err := templatesFS.ReadFile("assets/app.css")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(data)
}
