package main

import (
	"context"
	"sync"

	"madischedule-backend/internal/components/chrono"
	"madischedule-backend/internal/components/db"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/internal/config"
	"madischedule-backend/internal/notify"
	"madischedule-backend/internal/schedulestore"
	"madischedule-backend/internal/scrapers/madi"
)

// scrapeJob runs at most one scrape at a time, a trigger that arrives while a
// run is in progress is dropped.
type scrapeJob struct {
	ctx     context.Context
	scrape  func(ctx context.Context) bool
	tel     telemetry.API
	running sync.Mutex
	// detached counts the runs started outside the cron schedule.
	detached sync.WaitGroup
}

func (j *scrapeJob) run() {
	if !j.running.TryLock() {
		j.tel.ReportInfo("scrape already running, skipping trigger")
		return
	}
	defer j.running.Unlock()

	if j.ctx.Err() != nil {
		return
	}
	ok := j.scrape(j.ctx)
	j.tel.ReportInfo("scrape finished", "success", ok)
}

func (j *scrapeJob) runDetached() {
	j.detached.Add(1)
	go func() {
		defer j.detached.Done()
		j.run()
	}()
}

func (j *scrapeJob) wait() {
	j.detached.Wait()
}

func InitScraper(
	ctx context.Context,
	cfg config.Config,
	store schedulestore.Store,
	history db.History,
	tel telemetry.API,
) (stop func(), err error) {
	clock, err := chrono.NewStandardTime()
	if err != nil {
		return nil, err
	}
	classifier, err := cfg.Scraper.NewClassifier()
	if err != nil {
		return nil, err
	}

	scraper := madi.NewScraper(
		cfg.Scraper.Launcher(tel),
		classifier,
		store,
		history,
		notify.FromConfig(cfg.Smtp),
		clock,
		tel,
		cfg.Scraper.Options(),
	)
	job := &scrapeJob{
		ctx:    ctx,
		scrape: scraper.Run,
		tel:    telemetry.NewScopedAPI("scrape_job", tel),
	}

	cron := chrono.NewStandardCron(clock, tel)
	err = cron.Cron(cfg.Scraper.Schedule, job.run)
	if err != nil {
		return nil, err
	}
	cron.Start()

	if *cfg.Scraper.RunOnStart {
		job.tel.ReportInfo("scraping on start")
		job.runDetached()
	}

	// the run history must outlive every scrape, so stopping blocks on the
	// scheduled runs and on the startup run alike
	return func() {
		cron.Stop()
		job.wait()
	}, nil
}
