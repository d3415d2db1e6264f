package commands

import (
	"time"

	"madischedule-backend/internal/components/db"
	"madischedule-backend/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runsLimit *int64

func init() {
	runsLimit = runsCmd.Flags().Int64("limit", 20, "Number of recent runs to list.")
	rootCmd.AddCommand(runsCmd)
}

func formatUnix(seconds int64) string {
	return time.Unix(seconds, 0).Format(time.DateTime)
}

var runsCmd = &cobra.Command{
	Use:   "runs [run id]",
	Short: "Lists recent scrape runs, or the failed groups of one run.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		database, err := db.OpenDB(cfg.Database)
		if err != nil {
			serviceutil.Fatal("failed to open run history", err)
		}
		defer database.Close()
		qry := db.New(database)

		t := newTable()
		if len(args) == 1 {
			failures, err := qry.GetGroupFailures(cmd.Context(), args[0])
			if err != nil {
				serviceutil.Fatal("failed to query group failures", err)
			}
			t.AppendHeader(table.Row{"Group", "Error"})
			for _, f := range failures {
				t.AppendRow(table.Row{f.GroupLabel, f.Error})
			}
			t.Render()
			return
		}

		runs, err := qry.ListRuns(cmd.Context(), *runsLimit)
		if err != nil {
			serviceutil.Fatal("failed to query runs", err)
		}
		t.AppendHeader(table.Row{"Run", "Started", "Finished", "Success", "Groups", "Ok", "Failed", "Error"})
		for _, r := range runs {
			finished := "-"
			if r.FinishedAt.Valid {
				finished = formatUnix(r.FinishedAt.Int64)
			}
			t.AppendRow(table.Row{
				r.ID,
				formatUnix(r.StartedAt),
				finished,
				r.Success,
				r.GroupsTotal,
				r.GroupsOk,
				r.GroupsFailed,
				r.Error.String,
			})
		}
		t.Render()
	},
}
