package commands

import (
	"log/slog"
	"time"

	devenv "madischedule-backend/dev/env"
	"madischedule-backend/internal/components/chrono"
	"madischedule-backend/internal/components/db"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/internal/config"
	"madischedule-backend/internal/notify"
	"madischedule-backend/internal/schedulestore"
	"madischedule-backend/internal/scrapers/madi"
	"madischedule-backend/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeLive      *bool
	scrapeMaxGroups *int
	scrapeOut       *string
	scrapeBrowser   *string
	scrapeDump      *bool
)

func init() {
	scrapeLive = scrapeCmd.Flags().Bool("live", false, "Use dev/.state/live_scrape.json5 instead of the config file.")
	scrapeMaxGroups = scrapeCmd.Flags().Int("max-groups", -1, "Override the group cap, 0 scrapes every group.")
	scrapeOut = scrapeCmd.Flags().String("out", "", "Override the directory the schedule documents are written to.")
	scrapeBrowser = scrapeCmd.Flags().String("browser", "", "Override the browser, either chrome or http.")
	scrapeDump = scrapeCmd.Flags().Bool("dump", false, "Dump http exchanges to dev/.state/resty (http browser only).")
	rootCmd.AddCommand(scrapeCmd)
}

// applyLiveConfig points cfg at the settings of the dev live scrape config.
func applyLiveConfig(cfg *config.Config) {
	live, err := devenv.GetStateConfig[devenv.LiveScrapeConfig]("live_scrape.json5")
	if err != nil {
		serviceutil.Fatal("failed to read live scrape config, run the dev setup first", err)
	}
	if live.Url != "" {
		cfg.Scraper.Url = live.Url
	}
	if live.Browser != "" {
		cfg.Scraper.Browser = live.Browser
	}
	cfg.Scraper.MaxGroups = &live.MaxGroups
	if live.OutputDir != "" {
		cfg.Store.Dir, err = devenv.ResolvePath(live.OutputDir)
		if err != nil {
			serviceutil.Fatal("failed to resolve live output dir", err)
		}
	}
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--live] [--max-groups <n>] [--out <dir>] [--browser chrome|http] [--dump]",
	Short: "Runs one scrape of the timetable and writes both schedule documents.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if *scrapeLive {
			applyLiveConfig(&cfg)
		}
		if *scrapeMaxGroups >= 0 {
			cfg.Scraper.MaxGroups = scrapeMaxGroups
		}
		if *scrapeOut != "" {
			cfg.Store.Dir = *scrapeOut
		}
		if *scrapeBrowser != "" {
			cfg.Scraper.Browser = *scrapeBrowser
		}
		if *scrapeDump {
			dir, err := devenv.ResolvePath("<dev_state>/resty")
			if err != nil {
				serviceutil.Fatal("failed to resolve dump dir", err)
			}
			cfg.Scraper.HttpDumpDir = dir
		}
		err := cfg.Validate()
		if err != nil {
			serviceutil.Fatal("invalid scrape flags", err)
		}

		database, err := db.OpenDB(cfg.Database)
		if err != nil {
			serviceutil.Fatal("failed to open run history", err)
		}
		defer database.Close()

		clock, err := chrono.NewStandardTime()
		if err != nil {
			serviceutil.Fatal("failed to load timezone", err)
		}
		classifier, err := cfg.Scraper.NewClassifier()
		if err != nil {
			serviceutil.Fatal("failed to create classifier", err)
		}

		tel := telemetry.SlogAPI{}
		scraper := madi.NewScraper(
			cfg.Scraper.Launcher(tel),
			classifier,
			schedulestore.New(cfg.Store.Dir),
			db.NewHistory(database),
			notify.Nop{},
			clock,
			tel,
			cfg.Scraper.Options(),
		)

		t1 := time.Now()
		result := scraper.Scrape(cmd.Context())
		t2 := time.Now()
		slog.Info("scraping time", "seconds", t2.Sub(t1).Seconds())

		t := newTable()
		t.AppendHeader(table.Row{"Run", "Success", "Groups", "Ok", "Failed", "Sessions", "Output"})
		t.AppendRow(table.Row{
			result.ID,
			result.Success,
			result.GroupsTotal,
			result.GroupsOk,
			result.GroupsFailed,
			result.Sessions,
			cfg.Store.Dir,
		})
		t.Render()

		if !result.Success {
			serviceutil.Fatal("scrape failed", result.Err)
		}
	},
}
