package commands

import (
	"fmt"

	"madischedule-backend/internal/schedule"
	"madischedule-backend/internal/schedulestore"
	"madischedule-backend/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var showWeek *string

func init() {
	showWeek = showCmd.Flags().String("week", "", "Only show one rotation, numerator or denominator.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <group> [--week numerator|denominator]",
	Short: "Prints the stored sessions of a group.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rotations := schedule.Rotations
		if *showWeek != "" {
			r, ok := schedule.ParseRotation(*showWeek)
			if !ok {
				serviceutil.Fatal("invalid week", fmt.Errorf("unknown rotation %q", *showWeek))
			}
			rotations = []schedule.Rotation{r}
		}

		cfg := loadConfig()
		store := schedulestore.New(cfg.Store.Dir)

		found := false
		for _, r := range rotations {
			sessions, ok, err := store.Group(r, args[0])
			if err != nil {
				serviceutil.Fatal("failed to read schedule document", err)
			}
			if !ok {
				continue
			}
			found = true

			t := newTable()
			t.SetTitle(fmt.Sprintf("%s (%s)", args[0], r))
			t.AppendHeader(table.Row{"Day", "Time", "Subject", "Type", "Teacher", "Room"})
			for _, s := range sessions {
				t.AppendRow(table.Row{s.Day, s.Time, s.Subject, s.LessonType, s.Teacher, s.Room})
			}
			t.Render()
		}
		if !found {
			serviceutil.Fatal("group not found", fmt.Errorf("no stored schedule for %q", args[0]))
		}
	},
}
