package main

import (
	"flag"

	"madischedule-backend/internal/components/db"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/internal/config"
	"madischedule-backend/internal/schedulestore"
	"madischedule-backend/pkg/serviceutil"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the json5 config file.")
	serveOnly := flag.Bool("serve-only", false, "Serve the stored schedule without scraping.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	err := config.LoadEnv()
	if err != nil {
		serviceutil.Fatal("load env", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	database, err := db.OpenDB(cfg.Database)
	if err != nil {
		serviceutil.Fatal("open run history", err)
	}
	defer database.Close()
	history := db.NewHistory(database)

	store := schedulestore.New(cfg.Store.Dir)
	tel := telemetry.SlogAPI{}

	if !*serveOnly {
		stop, err := InitScraper(ctx, cfg, store, history, tel)
		if err != nil {
			serviceutil.Fatal("init scraper", err)
		}
		defer stop()
	}

	err = ServeApi(ctx, cfg.Api, store, history.Queries, tel)
	if err != nil {
		serviceutil.Fatal("serve api", err)
	}
}
