package report

import (
	"fmt"

	"github.com/phillip-england/jobcard/internal/config"
	"github.com/phillip-england/jobcard/internal/reference"
)

// Key headers accepted when the configured key column is absent.
var (
	SpoolKeyAliases    = []string{"SpoolNo", "Spool No"}
	MaterialKeyAliases = []string{"SpoolNo", "Spool No", "Drawing", "Drawing No"}
)

// SpoolSource locates the spool reference table as configured.
func SpoolSource(cfg *config.Config) reference.Options {
	return sourceOptions(cfg.Reference, SpoolKeyAliases)
}

// MaterialSource locates the material list as configured.
func MaterialSource(cfg *config.Config) reference.Options {
	return sourceOptions(cfg.Materials.SourceConfig, MaterialKeyAliases)
}

func sourceOptions(src config.SourceConfig, aliases []string) reference.Options {
	return reference.Options{
		Sheet:      src.Sheet,
		HeaderRow:  src.HeaderRow,
		SkipRows:   src.SkipRows,
		KeyColumn:  src.KeyColumn,
		KeyAliases: aliases,
		Charset:    src.Charset,
	}
}

// OptionsFromConfig builds the page layout and material filter from cfg,
// loading the logo files it names.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	opts.MaterialFilter = MaterialFilter{
		AllowedTypes:     cfg.Materials.AllowedTypes,
		ExcludedPrefixes: cfg.Materials.ExcludedPrefixes,
	}
	opts.Layout = Layout{
		Client:      cfg.Report.Client,
		Project:     cfg.Report.Project,
		Title:       cfg.Report.Title,
		Vendor:      cfg.Report.Vendor,
		Instruction: cfg.Report.Instruction,
	}
	var err error
	if opts.Layout.LeftLogo, err = LoadLogo(cfg.Report.LeftLogo); err != nil {
		return Options{}, fmt.Errorf("left logo: %w", err)
	}
	if opts.Layout.RightLogo, err = LoadLogo(cfg.Report.RightLogo); err != nil {
		return Options{}, fmt.Errorf("right logo: %w", err)
	}
	return opts, nil
}
