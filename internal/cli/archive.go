package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/phillip-england/jobcard/internal/archive"
)

func newArchiveCommand(g *globalFlags) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect archived reports",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "archive directory (default: archive.dir)")

	open := func() (*archive.Store, error) {
		if dir == "" {
			cfg, err := g.load()
			if err != nil {
				return nil, err
			}
			dir = cfg.Archive.Dir
		}
		if strings.TrimSpace(dir) == "" {
			return nil, fmt.Errorf("no archive directory: pass --dir or set archive.dir")
		}
		return archive.New(dir)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List archived reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			entries, err := store.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tARCHIVED")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Name, e.Size, e.ModTime.UTC().Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	var outDir string
	extract := &cobra.Command{
		Use:   "extract NAME...",
		Short: "Decompress archived reports into --out",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", outDir, err)
			}
			for _, name := range args {
				data, err := store.Load(name)
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(name), ".xz"))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}
	extract.Flags().StringVar(&outDir, "out", ".", "output directory")

	cmd.AddCommand(list, extract)
	return cmd
}
