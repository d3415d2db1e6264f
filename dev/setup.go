package main

import (
	"fmt"
	"log/slog"
	"os"

	devenv "madischedule-backend/dev/env"
	"madischedule-backend/internal/components/db"
)

func CreateRunHistoryDB() error {
	path, err := devenv.ResolvePath("<dev_state>/schedule_runs.db")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	database, err := db.OpenDB(db.Config{File: path})
	if err != nil {
		return err
	}
	return database.Close()
}

const liveScrapeTemplate = `{
    // used by "schedule-cli scrape --live"
    url: "https://raspisanie.madi.ru/tplan/r/?task=7",
    browser: "chrome",
    max_groups: 2,
    output_dir: "<dev_state>/static",
}
`

func CreateLiveScrapeConfig() error {
	path, err := devenv.GetStateFilePath("live_scrape.json5")
	if err != nil {
		return err
	}
	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("live scrape config already exists at", path)
		return nil
	}
	return os.WriteFile(path, []byte(liveScrapeTemplate), 0666)
}

func PrintConfigLocations() {
	slog.Info("the live scrape smoke test reads dev/.state/live_scrape.json5, edit it to point at a different site or browser.")
}
