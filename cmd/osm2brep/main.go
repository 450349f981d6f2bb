package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/philipparndt/osm2brep/internal/config"
	"github.com/philipparndt/osm2brep/version"
)

// rootOptions is shared by all commands. cfg and log are set before any
// command runs.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *slog.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "osm2brep",
		Short: "Convert OpenStudio building models to BREP solids",
		Long: `osm2brep rebuilds the spaces of an OpenStudio (.osm) building model as
closed solid cells and writes them, together with their windows, doors and
shading surfaces, as OpenCASCADE BREP files.`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Job file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(convertCmd(opts))
	cmd.AddCommand(infoCmd(opts))
	cmd.AddCommand(queryCmd(opts))
	cmd.AddCommand(versionCmd())

	return cmd
}

// setup loads the job file and installs the default logger.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(o.log)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "osm2brep version %s\n", version.GetFullVersion())
		},
	}
}
