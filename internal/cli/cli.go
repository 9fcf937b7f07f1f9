// Package cli wires the jobcard commands: serve, setup, generate,
// hash-password and archive.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phillip-england/jobcard/internal/config"
	"github.com/phillip-england/jobcard/internal/logging"
	"github.com/phillip-england/jobcard/internal/webapp"
)

type globalFlags struct {
	configPath string
	envFile    string
}

func Execute(args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.Execute()
}

func NewRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "jobcard",
		Short:         "Generate spool job cards and material pick tickets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to jobcard.yaml (default: ./jobcard.yaml or ./configs/jobcard.yaml)")
	root.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "path to .env file")

	root.AddCommand(
		newServeCommand(g),
		newSetupCommand(g),
		newGenerateCommand(g),
		newHashPasswordCommand(),
		newArchiveCommand(g),
	)
	return root
}

// load reads .env and the config file, in that order, so .env values feed
// the environment overrides.
func (g *globalFlags) load() (*config.Config, error) {
	if err := config.LoadDotEnv(g.envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", g.envFile, err)
	}
	return config.Load(g.configPath)
}

func newServeCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			opts, err := webapp.OptionsFromConfig(cfg, log)
			if err != nil {
				return err
			}
			srv, err := webapp.New(opts)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			log.Info("starting jobcard",
				zap.String("addr", opts.Addr),
				zap.Bool("archive", opts.Archive != nil),
				zap.String("preset", opts.ReferencePreset))
			if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("stopped")
			return nil
		},
	}
}

func newSetupCommand(g *globalFlags) *cobra.Command {
	var (
		adminUser  string
		adminPass  string
		addr       string
		presetPath string
		archiveDir string
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write a .env file with the admin login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if adminPass == "" {
				return errors.New("--admin-password is required")
			}
			if _, err := hashPassword(adminPass); err != nil {
				return err
			}

			values := map[string]string{
				"ADMIN_USERNAME": adminUser,
				"ADMIN_PASSWORD": adminPass,
				"CLIENT_ADDR":    addr,
			}
			if presetPath != "" {
				values["PRESET_REFERENCE_PATH"] = presetPath
			}
			if archiveDir != "" {
				values["ARCHIVE_DIR"] = archiveDir
			}
			if err := config.WriteDotEnv(g.envFile, values, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", g.envFile)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&adminUser, "admin-username", "admin", "initial admin username")
	fs.StringVar(&adminPass, "admin-password", "", "initial admin password (min 12 chars)")
	fs.StringVar(&addr, "addr", ":3000", "listen address")
	fs.StringVar(&presetPath, "preset-reference", "", "reference workbook used when no file is uploaded")
	fs.StringVar(&archiveDir, "archive-dir", "", "keep compressed copies of generated reports here")
	fs.BoolVar(&force, "force", false, "overwrite existing env file")
	return cmd
}

// Main runs the command line and returns the process exit code.
func Main() int {
	if err := Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "jobcard:", err)
		return 1
	}
	return 0
}
