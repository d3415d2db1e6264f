package commands

import (
	"context"
	"fmt"
	"os"

	"madischedule-backend/internal/config"
	"madischedule-backend/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var configPath *string

var rootCmd = &cobra.Command{
	Use:   "schedule-cli",
	Short: "schedule-cli scrapes the MADI timetable and inspects the stored schedule.",
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", config.DefaultConfigPath, "Path to the json5 config file.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() config.Config {
	err := config.LoadEnv()
	if err != nil {
		serviceutil.Fatal("failed to load env", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
