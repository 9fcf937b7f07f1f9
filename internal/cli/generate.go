package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phillip-england/jobcard/internal/archive"
	"github.com/phillip-england/jobcard/internal/config"
	"github.com/phillip-england/jobcard/internal/logging"
	"github.com/phillip-england/jobcard/internal/reference"
	"github.com/phillip-england/jobcard/internal/report"
	"github.com/phillip-england/jobcard/internal/spool"
)

type generateFlags struct {
	referencePath string
	materialsPath string
	number        string
	issueDate     string
	area          string
	spools        string
	spoolsFile    string
	outDir        string
	noPDF         bool
	archive       bool
}

func newGenerateCommand(g *globalFlags) *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the reports for a spool list without the web app",
		Example: `  jobcard generate --reference sgs.xlsx --jc-number JC-12 --area "Module 3" --spools SP-001,SP-002
  jobcard generate --reference sgs.xlsx --materials mto.xlsx --jc-number JC-12 --area M3 --spools-file spools.txt --out reports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log.Level, "console")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runGenerate(cmd, cfg, f, log)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.referencePath, "reference", "", "SGS spool reference workbook (default: reference.preset_path)")
	fs.StringVar(&f.materialsPath, "materials", "", "material list workbook; adds the pick ticket (default: materials.preset_path)")
	fs.StringVar(&f.number, "jc-number", "", "job card number")
	fs.StringVar(&f.issueDate, "issue-date", time.Now().Format(report.IssueDateLayout), "issue date (YYYY-MM-DD)")
	fs.StringVar(&f.area, "area", "", "area / module")
	fs.StringVar(&f.spools, "spools", "", "spool numbers separated by commas, semicolons or newlines")
	fs.StringVar(&f.spoolsFile, "spools-file", "", "file with spool numbers, or - for stdin")
	fs.StringVar(&f.outDir, "out", ".", "output directory")
	fs.BoolVar(&f.noPDF, "no-pdf", false, "skip the PDF job card")
	fs.BoolVar(&f.archive, "archive", false, "also store the reports in archive.dir")
	return cmd
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, f *generateFlags, log *zap.Logger) error {
	ids, err := f.spoolIDs(cmd)
	if err != nil {
		return err
	}
	job := report.NewJobInfo(f.number, f.issueDate, f.area)
	if err := job.Validate(); err != nil {
		return fmt.Errorf("job fields: %w", err)
	}

	refPath := f.referencePath
	if refPath == "" {
		refPath = cfg.Reference.PresetPath
	}
	if refPath == "" {
		return errors.New("--reference is required when reference.preset_path is not set")
	}
	ref, err := loadTable(refPath, report.SpoolSource(cfg))
	if err != nil {
		return fmt.Errorf("reference: %w", err)
	}
	matPath := f.materialsPath
	if matPath == "" {
		matPath = cfg.Materials.PresetPath
	}
	var materials *reference.Table
	if matPath != "" {
		if materials, err = loadTable(matPath, report.MaterialSource(cfg)); err != nil {
			return fmt.Errorf("materials: %w", err)
		}
	}

	opts, err := report.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.SkipPDF = f.noPDF

	bundle, err := report.Generate(job, ids, ref, materials, opts, log)
	if err != nil {
		return err
	}

	var store *archive.Store
	if f.archive {
		if cfg.Archive.Dir == "" {
			return errors.New("--archive needs archive.dir (or ARCHIVE_DIR) to be set")
		}
		if store, err = archive.New(cfg.Archive.Dir); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(f.outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", f.outDir, err)
	}
	out := cmd.OutOrStdout()
	for _, a := range bundle.Artifacts {
		path := filepath.Join(f.outDir, a.Name)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(out, "wrote %s\n", path)
		if store != nil {
			if _, err := store.Save(archive.Name(a.CreatedAt, a.Name), a.Data); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(out, "spools: %d  total weight: %.3f\n", len(ids), bundle.TotalWeight)
	if len(bundle.Missing) > 0 {
		fmt.Fprintf(out, "not in reference: %s\n", strings.Join(bundle.Missing, ", "))
	}
	for _, w := range bundle.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}

func (f *generateFlags) spoolIDs(cmd *cobra.Command) ([]string, error) {
	text := f.spools
	switch f.spoolsFile {
	case "":
	case "-":
		raw, err := readAll(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		text += "\n" + raw
	default:
		raw, err := os.ReadFile(f.spoolsFile)
		if err != nil {
			return nil, fmt.Errorf("read spools file: %w", err)
		}
		text += "\n" + string(raw)
	}
	ids := spool.ParseList(text)
	if len(ids) == 0 {
		return nil, errors.New("no spool numbers given: use --spools or --spools-file")
	}
	return ids, nil
}

func loadTable(path string, opts reference.Options) (*reference.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return reference.Load(file, path, opts)
}
