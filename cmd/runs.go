package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/doutora-ia/questbank-cli/internal/model"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List import run history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.ListImportRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		if runsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func formatRunsList(w io.Writer, runs []model.ImportRun) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tADMITTED\tDUPLICATES\tFAILED\tCREATED")
	for _, r := range runs {
		admitted, duplicates, failed := "-", "-", "-"
		if r.Report != nil {
			admitted = fmt.Sprintf("%d", r.Report.RecordsAdmitted)
			duplicates = fmt.Sprintf("%d", r.Report.DuplicatesDropped)
			failed = fmt.Sprintf("%d", r.Report.SourcesFailed)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Status, admitted, duplicates, failed,
			r.CreatedAt.Local().Format(time.RFC3339))
	}
	tw.Flush()
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "output full run records as JSON")
	rootCmd.AddCommand(runsCmd)
}
