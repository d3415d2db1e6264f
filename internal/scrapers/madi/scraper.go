package madi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"madischedule-backend/internal/components/assert"
	"madischedule-backend/internal/components/chrono"
	"madischedule-backend/internal/components/db"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/internal/notify"
	"madischedule-backend/internal/schedule"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("madischedule.scrapers.madi")
var meter = otel.Meter("madischedule.scrapers.madi")
var groupsOkCounter, _ = meter.Int64Counter("scraper.groups_ok")
var groupsFailedCounter, _ = meter.Int64Counter("scraper.groups_failed")
var sessionsCounter, _ = meter.Int64Counter("scraper.sessions")

// DocumentWriter persists the documents of every rotation at once.
//
// note: fault injection point
type DocumentWriter interface {
	WriteAll(docs map[schedule.Rotation]schedule.Document) error
}

// RunResult summarizes one scrape run.
type RunResult struct {
	ID           string
	Success      bool
	GroupsTotal  int
	GroupsOk     int
	GroupsFailed int
	Sessions     int
	// Failures lists the skipped groups in the order they were tried.
	Failures []GroupFailure
	// Err is the fatal error of a failed run.
	Err error
}

type GroupFailure struct {
	Group string
	Err   error
}

// Scraper scrapes the weekly timetable of every group and writes one
// document per rotation.
type Scraper struct {
	launch     Launcher
	classifier Classifier
	extract    func(html string) ([]RawSession, error)
	store      DocumentWriter
	history    db.History
	notifier   notify.Notifier
	time       chrono.TimeAPI
	tel        telemetry.API
	opts       Options
}

func NewScraper(
	launch Launcher,
	classifier Classifier,
	store DocumentWriter,
	history db.History,
	notifier notify.Notifier,
	time chrono.TimeAPI,
	tel telemetry.API,
	opts Options,
) Scraper {
	assert.NotNil(launch, "launcher")
	assert.NotNil(classifier, "classifier")
	assert.NotNil(store, "document writer")
	assert.NotNil(history.Queries, "run history")
	assert.NotNil(notifier, "notifier")
	assert.NotNil(time, "time api")
	assert.NotNil(tel, "telemetry api")

	return Scraper{
		launch:     launch,
		classifier: classifier,
		extract:    ExtractTable,
		store:      store,
		history:    history,
		notifier:   notifier,
		time:       time,
		tel:        telemetry.NewScopedAPI("madi_scraper", tel),
		opts:       opts.WithDefaults(),
	}
}

// Run performs one full scrape, it returns true when the page was loaded,
// the groups were listed and both documents were written. Individual groups
// that fail are skipped and do not fail the run.
func (s Scraper) Run(ctx context.Context) bool {
	return s.Scrape(ctx).Success
}

// Scrape is Run with the details of the outcome.
func (s Scraper) Scrape(ctx context.Context) RunResult {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	result := RunResult{ID: uuid.NewString()}
	span.SetAttributes(attribute.String("run_id", result.ID))

	// run history is kept even when ctx gets cancelled midway
	dbCtx := context.WithoutCancel(ctx)

	started := s.time.Now()
	err := s.history.CreateRun(dbCtx, db.CreateRunParams{
		ID:        result.ID,
		StartedAt: started.Unix(),
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "CreateRun")
	}

	s.scrape(ctx, &result)
	result.Success = result.Err == nil

	s.finish(dbCtx, result)

	groupsOkCounter.Add(ctx, int64(result.GroupsOk))
	groupsFailedCounter.Add(ctx, int64(result.GroupsFailed))
	sessionsCounter.Add(ctx, int64(result.Sessions), metric.WithAttributes(
		attribute.Bool("success", result.Success),
	))

	if !result.Success {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, "scrape failed")
		s.tel.ReportBroken(report_scraper_run, result.Err, result.ID)
		s.notifyFailure(ctx, result, started)
		return result
	}

	s.tel.ReportInfo(
		"scrape finished",
		result.ID,
		fmt.Sprintf("groups_ok=%d", result.GroupsOk),
		fmt.Sprintf("groups_failed=%d", result.GroupsFailed),
		fmt.Sprintf("sessions=%d", result.Sessions),
		s.time.Now().Sub(started).String(),
	)
	return result
}

func (s Scraper) scrape(ctx context.Context, result *RunResult) {
	browser, err := s.launch(ctx)
	if err != nil {
		result.Err = fmt.Errorf("launch browser: %w", err)
		return
	}
	defer func() {
		err := browser.Close()
		if err != nil {
			s.tel.ReportWarning(report_scraper_close, err)
		}
	}()

	nav := newNavigator(browser, s.opts)
	err = nav.Load(ctx)
	if err != nil {
		result.Err = err
		return
	}
	s.tel.ReportInfo("opened timetable page", s.opts.Url)

	groups, err := nav.Groups(ctx)
	if err != nil {
		result.Err = err
		return
	}
	s.tel.ReportInfo("found groups", len(groups))
	if s.opts.MaxGroups > 0 && len(groups) > s.opts.MaxGroups {
		groups = groups[:s.opts.MaxGroups]
	}
	result.GroupsTotal = len(groups)

	docs := map[schedule.Rotation]schedule.Document{
		schedule.RotationA: {},
		schedule.RotationB: {},
	}
	for i, group := range groups {
		if ctx.Err() != nil {
			result.Err = fmt.Errorf("scrape interrupted: %w", ctx.Err())
			return
		}
		s.tel.ReportInfo("parsing group", fmt.Sprintf("%d/%d", i+1, len(groups)), group)

		sessions, err := s.scrapeGroup(ctx, nav, group)
		if err != nil {
			result.GroupsFailed++
			result.Failures = append(result.Failures, GroupFailure{Group: group, Err: err})
			continue
		}

		a, b := s.classifier.Partition(sessions)
		docs[schedule.RotationA][group] = toSessions(a)
		docs[schedule.RotationB][group] = toSessions(b)

		result.GroupsOk++
		result.Sessions += len(sessions)
		s.tel.ReportInfo("parsed group", group, len(sessions))
	}
	if ctx.Err() != nil {
		result.Err = fmt.Errorf("scrape interrupted: %w", ctx.Err())
		return
	}

	err = s.store.WriteAll(docs)
	if err != nil {
		result.Err = fmt.Errorf("write documents: %w", err)
		return
	}
	s.tel.ReportInfo("wrote documents", len(groups))
}

func (s Scraper) scrapeGroup(ctx context.Context, nav *navigator, group string) ([]RawSession, error) {
	html, err := nav.Render(ctx, group)
	if err != nil {
		s.tel.ReportBroken(report_scraper_render_group, err, group)
		return nil, err
	}

	sessions, err := s.extract(html)
	if err != nil && len(sessions) == 0 {
		s.tel.ReportBroken(report_scraper_extract, err, group)
		return nil, err
	}
	if err != nil {
		s.tel.ReportWarning(
			report_scraper_extract,
			fmt.Errorf("keeping %d sessions parsed before: %w", len(sessions), err),
			group,
		)
	}
	return sessions, nil
}

func (s Scraper) finish(ctx context.Context, result RunResult) {
	params := db.FinishRunParams{
		ID:           result.ID,
		FinishedAt:   sql.NullInt64{Int64: s.time.Now().Unix(), Valid: true},
		Success:      result.Success,
		GroupsTotal:  int64(result.GroupsTotal),
		GroupsOk:     int64(result.GroupsOk),
		GroupsFailed: int64(result.GroupsFailed),
	}
	if result.Err != nil {
		params.Error = sql.NullString{String: result.Err.Error(), Valid: true}
	}

	// the failures of a run only appear together with its finish row
	err := s.history.Tx(ctx, func(tx *db.Queries) error {
		for _, failure := range result.Failures {
			err := tx.AddGroupFailure(ctx, db.AddGroupFailureParams{
				RunID:      result.ID,
				GroupLabel: failure.Group,
				Error:      failure.Err.Error(),
			})
			if err != nil {
				return fmt.Errorf("add failure of %s: %w", failure.Group, err)
			}
		}
		return tx.FinishRun(ctx, params)
	})
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "FinishRun", result.ID)
	}
}

func (s Scraper) notifyFailure(ctx context.Context, result RunResult, started time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	body := fmt.Sprintf(
		"The timetable scrape %s started at %s failed, the previous documents were kept.\n\n%v\n",
		result.ID,
		started.Format(time.RFC3339),
		result.Err,
	)
	err := s.notifier.Notify(ctx, "MADI schedule scrape failed", body)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.tel.ReportWarning(report_scraper_notify, err)
	}
}
