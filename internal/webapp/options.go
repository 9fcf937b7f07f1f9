package webapp

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phillip-england/jobcard/internal/archive"
	"github.com/phillip-england/jobcard/internal/config"
	"github.com/phillip-england/jobcard/internal/reference"
	"github.com/phillip-england/jobcard/internal/report"
	"github.com/phillip-england/jobcard/internal/security"
)

// Options is everything the web app needs; OptionsFromConfig fills it from
// the loaded configuration.
type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	// AnonymousTTL and MaxAnonymous bound sessions that have not logged in;
	// zero keeps the workflow defaults.
	AnonymousTTL time.Duration
	MaxAnonymous int

	Users *security.Allowlist

	Reference       reference.Options
	ReferencePreset string
	Materials       reference.Options
	MaterialsPreset string
	Report          report.Options

	// Archive is optional; nil disables archiving.
	Archive *archive.Store
	Log     *zap.Logger
}

func OptionsFromConfig(cfg *config.Config, log *zap.Logger) (Options, error) {
	users, err := allowlistFromConfig(cfg.Auth)
	if err != nil {
		return Options{}, err
	}

	reportOpts, err := report.OptionsFromConfig(cfg)
	if err != nil {
		return Options{}, err
	}

	var store *archive.Store
	if strings.TrimSpace(cfg.Archive.Dir) != "" {
		if store, err = archive.New(cfg.Archive.Dir); err != nil {
			return Options{}, err
		}
	}

	return Options{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		MaxUploadBytes:  cfg.MaxUploadBytes(),
		SessionTTL:      cfg.Session.TTL,
		AnonymousTTL:    cfg.Session.AnonymousTTL,
		MaxAnonymous:    cfg.Session.MaxAnonymous,
		Users:           users,
		Reference:       report.SpoolSource(cfg),
		ReferencePreset: cfg.Reference.PresetPath,
		Materials:       report.MaterialSource(cfg),
		MaterialsPreset: cfg.Materials.PresetPath,
		Report:          reportOpts,
		Archive:         store,
		Log:             log,
	}, nil
}

// allowlistFromConfig hashes the ADMIN_USERNAME/ADMIN_PASSWORD pair, which
// arrives in plain text from .env, next to the pre-hashed auth.users entries.
func allowlistFromConfig(auth config.AuthConfig) (*security.Allowlist, error) {
	users := security.NewAllowlist(auth.Users, auth.RequirePassword)
	if auth.AdminUsername != "" {
		hash := ""
		if auth.AdminPassword != "" {
			var err error
			if hash, err = security.HashPassword(auth.AdminPassword); err != nil {
				return nil, fmt.Errorf("admin password: %w", err)
			}
		}
		users.Add(auth.AdminUsername, hash)
	}
	if users.Len() == 0 {
		return nil, fmt.Errorf("no users configured: set ADMIN_USERNAME/ADMIN_PASSWORD or auth.users")
	}
	return users, nil
}

func presetName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
