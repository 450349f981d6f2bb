package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/osm2brep/pkg/sqlresult"
)

func queryCmd(opts *rootOptions) *cobra.Command {
	var (
		q         sqlresult.Query
		valueType string
	)

	cmd := &cobra.Command{
		Use:   "query [eplusout.sql]",
		Short: "Read one value from an EnergyPlus SQL output",
		Long: `Look up one cell of the TabularDataWithStrings table by report, report
target, table, row, column and units. The path may also come from the job
file (results.sql).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfg.Results.SQL
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no SQL output given")
			}

			file, err := sqlresult.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			ctx := cmd.Context()
			var value any
			switch valueType {
			case "double":
				value, err = file.Double(ctx, q)
			case "int":
				value, err = file.Int(ctx, q)
			case "string":
				value, err = file.String(ctx, q)
			default:
				return fmt.Errorf("unknown value type %q (double, int, string)", valueType)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Report, "report", "", "Report name")
	cmd.Flags().StringVar(&q.ReportFor, "report-for", "Entire Facility", "Report target")
	cmd.Flags().StringVar(&q.Table, "table", "", "Table name")
	cmd.Flags().StringVar(&q.Row, "row", "", "Row name")
	cmd.Flags().StringVar(&q.Column, "column", "", "Column name")
	cmd.Flags().StringVar(&q.Units, "units", "", "Units")
	cmd.Flags().StringVarP(&valueType, "type", "t", "double", "Value type (double, int, string)")

	return cmd
}
