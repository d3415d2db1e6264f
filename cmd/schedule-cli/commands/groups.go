package commands

import (
	"fmt"

	"madischedule-backend/internal/schedulestore"
	"madischedule-backend/pkg/serviceutil"
	"madischedule-backend/pkg/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var groupsLimit *int

func init() {
	groupsLimit = groupsCmd.Flags().Int("limit", 10, "Maximum number of matches shown when searching.")
	rootCmd.AddCommand(groupsCmd)
}

var groupsCmd = &cobra.Command{
	Use:   "groups [query]",
	Short: "Lists the stored groups, or the closest matches to a query.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		groups, err := schedulestore.New(cfg.Store.Dir).Groups()
		if err != nil {
			serviceutil.Fatal("failed to read schedule documents", err)
		}

		t := newTable()
		if len(args) == 0 {
			t.AppendHeader(table.Row{"Group"})
			for _, g := range groups {
				t.AppendRow(table.Row{g})
			}
			t.AppendFooter(table.Row{fmt.Sprintf("%d groups", len(groups))})
			t.Render()
			return
		}

		t.AppendHeader(table.Row{"Group", "Score"})
		for _, m := range textutil.RankNames(args[0], groups, *groupsLimit) {
			t.AppendRow(table.Row{m.Name, fmt.Sprintf("%.2f", m.Score)})
		}
		t.Render()
	},
}
