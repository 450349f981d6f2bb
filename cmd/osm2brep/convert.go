package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/philipparndt/osm2brep/internal/config"
	"github.com/philipparndt/osm2brep/internal/convert"
	"github.com/philipparndt/osm2brep/pkg/kernel/occt"
	"github.com/philipparndt/osm2brep/pkg/sqlresult"
	"github.com/philipparndt/osm2brep/pkg/watcher"
)

const watchDebounce = 500 * time.Millisecond

func convertCmd(opts *rootOptions) *cobra.Command {
	var (
		out         string
		apertures   string
		shading     string
		stlPath     string
		overwrite   bool
		upgrade     bool
		tolerance   float64
		placement   []float64
		skipInvalid bool
		watch       bool
	)

	cmd := &cobra.Command{
		Use:   "convert [model.osm]",
		Short: "Convert a building model to BREP",
		Long: `Rebuild every space of the model as a cell and write all cells as one
BREP cluster. Apertures and shading surfaces go to their own files when
requested. The model path may also come from the job file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if len(args) == 1 {
				cfg.Model.Path = args[0]
			}

			flags := cmd.Flags()
			if flags.Changed("out") {
				cfg.Output.Cells = out
			}
			if flags.Changed("apertures") {
				cfg.Output.Apertures = apertures
			}
			if flags.Changed("shading") {
				cfg.Output.Shading = shading
			}
			if flags.Changed("stl") {
				cfg.Output.STL = stlPath
			}
			if flags.Changed("overwrite") {
				cfg.Output.Overwrite = overwrite
			}
			if flags.Changed("upgrade") {
				cfg.Model.Upgrade = upgrade
			}
			if flags.Changed("tolerance") {
				cfg.Geometry.Tolerance = tolerance
			}
			if flags.Changed("placement") {
				if len(placement) != 3 {
					return fmt.Errorf("--placement needs three values u,v,w, got %d", len(placement))
				}
				cfg.Geometry.AperturePlacement = config.Placement{U: placement[0], V: placement[1], W: placement[2]}
			}
			if flags.Changed("skip-invalid") {
				cfg.Geometry.SkipInvalidSpaces = skipInvalid
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runConvert(cmd.Context(), cmd.OutOrStdout(), opts, watch)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Cell cluster output (default: model path with .brep)")
	cmd.Flags().StringVar(&apertures, "apertures", "", "Aperture cluster output")
	cmd.Flags().StringVar(&shading, "shading", "", "Shading cluster output")
	cmd.Flags().StringVar(&stlPath, "stl", "", "Binary STL mesh of the cells")
	cmd.Flags().BoolVarP(&overwrite, "overwrite", "f", false, "Replace existing output files")
	cmd.Flags().BoolVar(&upgrade, "upgrade", false, "Migrate models older than 3.0.0")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Vertex welding tolerance")
	cmd.Flags().Float64SliceVar(&placement, "placement", nil, "Aperture placement u,v,w")
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Skip spaces with invalid geometry")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Convert again whenever the model changes")

	return cmd
}

func runConvert(ctx context.Context, w io.Writer, opts *rootOptions, watch bool) error {
	cfg := opts.cfg
	k := occt.New(occt.WithTolerance(cfg.Geometry.Tolerance))
	c := convert.New(k,
		convert.WithLogger(opts.log),
		convert.WithPlacement(cfg.Placement()),
		convert.WithSkipInvalidSpaces(cfg.Geometry.SkipInvalidSpaces))

	job := convert.Job{
		Model:     cfg.Model.Path,
		Upgrade:   cfg.Model.Upgrade,
		Cells:     cfg.CellsPath(),
		Apertures: cfg.Output.Apertures,
		Shading:   cfg.Output.Shading,
		STL:       cfg.Output.STL,
		Overwrite: cfg.Output.Overwrite,
	}

	run := func() error {
		report, err := c.Run(job)
		if err != nil {
			return err
		}
		printReport(w, report)
		return printQueries(ctx, w, cfg.Results)
	}

	if err := run(); err != nil {
		if !watch {
			return err
		}
		opts.log.Error("Conversion failed", "error", err)
	}
	if !watch {
		return nil
	}

	// later runs replace the files of the earlier ones
	job.Overwrite = true

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fw, err := watcher.NewFileWatcher(watchDebounce, opts.log)
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Watch([]string{cfg.Model.Path}, func(string) {
		if err := run(); err != nil {
			opts.log.Error("Conversion failed", "error", err)
		}
	}); err != nil {
		return err
	}

	opts.log.Info("Watching for changes", "path", cfg.Model.Path)
	return fw.Run(ctx)
}

func printReport(w io.Writer, report *convert.Report) {
	fmt.Fprintf(w, "Spaces: %d converted", len(report.Result.Spaces))
	if n := len(report.Result.Skipped); n > 0 {
		fmt.Fprintf(w, ", %d skipped", n)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Apertures: %d\n", len(report.Result.Apertures()))
	fmt.Fprintf(w, "Shading surfaces: %d\n", len(report.Result.Shading))
	for _, path := range report.Files {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
}

func printQueries(ctx context.Context, w io.Writer, results config.ResultsConfig) error {
	if results.SQL == "" || len(results.Queries) == 0 {
		return nil
	}
	file, err := sqlresult.Open(results.SQL)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, q := range results.Queries {
		value, err := file.String(ctx, q)
		if err != nil {
			return fmt.Errorf("%s: %w", q, err)
		}
		fmt.Fprintf(w, "%s = %s\n", q, value)
	}
	return nil
}
