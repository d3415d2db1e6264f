package madi

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"madischedule-backend/internal/components/chrono"
	"madischedule-backend/internal/components/db"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/internal/schedule"
	"madischedule-backend/internal/schedulestore"

	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mutex    sync.Mutex
	subjects []string
	bodies   []string
}

func (n *recordingNotifier) Notify(ctx context.Context, subject, body string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.subjects = append(n.subjects, subject)
	n.bodies = append(n.bodies, body)
	return nil
}

type failingWriter struct{}

func (failingWriter) WriteAll(map[schedule.Rotation]schedule.Document) error {
	return errors.New("disk full")
}

type harness struct {
	site     *fakeSite
	store    schedulestore.Store
	database *sql.DB
	qry      *db.Queries
	tel      *telemetry.RecorderAPI
	notifier *recordingNotifier
	scraper  Scraper
}

func setup(t *testing.T, site *fakeSite, opts Options) *harness {
	t.Helper()

	database, err := db.OpenDB(db.Config{File: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		database.Close()
	})

	h := &harness{
		site:     site,
		store:    schedulestore.New(filepath.Join(t.TempDir(), "static")),
		database: database,
		qry:      db.New(database),
		tel:      telemetry.NewRecorderAPI(),
		notifier: &recordingNotifier{},
	}
	h.scraper = NewScraper(
		site.launcher,
		BalancedClassifier{},
		h.store,
		db.NewHistory(database),
		h.notifier,
		chrono.FixedTime{Instant: time.Date(2026, 9, 7, 3, 0, 0, 0, time.UTC)},
		h.tel,
		opts,
	)
	return h
}

func mondayTable(times ...string) string {
	rows := []string{row("понедельник", "1 пара", "", "", "", "", "")}
	for i, tm := range times {
		rows = append(rows, row("", tm, "Предмет "+string(rune('A'+i)), "Лекции", "Иванов И.И.", "242", ""))
	}
	return table(rows...)
}

func TestScraperEndToEnd(t *testing.T) {
	site := &fakeSite{
		options: []string{DefaultPlaceholder, "1бАЭн1"},
		tables: map[string]string{
			"1бАЭн1": mondayTable("9:55am", "11:40am", "1:25pm", "3:10pm", "4:55pm"),
		},
	}
	h := setup(t, site, Options{})

	result := h.scraper.Scrape(context.Background())
	require.NoError(t, result.Err)
	require.True(t, result.Success)
	require.Equal(t, 1, result.GroupsOk)
	require.Equal(t, 5, result.Sessions)

	a, err := h.store.Read(schedule.RotationA)
	require.NoError(t, err)
	b, err := h.store.Read(schedule.RotationB)
	require.NoError(t, err)

	require.Len(t, a["1бАЭн1"], 3)
	require.Len(t, b["1бАЭн1"], 2)

	var times []string
	for i := 0; i < 5; i++ {
		var s schedule.Session
		if i%2 == 0 {
			s = a["1бАЭн1"][i/2]
		} else {
			s = b["1бАЭн1"][i/2]
		}
		require.Equal(t, schedule.Monday, s.Day)
		times = append(times, s.Time)
	}
	require.Equal(t, []string{"09:55", "11:40", "13:25", "15:10", "16:55"}, times)

	require.Equal(t, 1, site.launched)
	require.Equal(t, 1, site.closed)

	run, err := h.qry.GetLatestRun(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.ID, run.ID)
	require.True(t, run.Success)
	require.Equal(t, int64(1), run.GroupsOk)
	require.True(t, run.FinishedAt.Valid)
	require.Empty(t, h.notifier.subjects)
}

func TestScraperSkipsFailingGroup(t *testing.T) {
	site := &fakeSite{
		options: []string{"G1", "G2", "G3"},
		tables: map[string]string{
			"G1": mondayTable("9:55am"),
			"G2": mondayTable("9:55am"),
			"G3": mondayTable("9:55am", "11:40am"),
		},
		selectErr: map[string]error{"G2": errors.New("element is not attached to the page")},
	}
	h := setup(t, site, Options{})

	require.True(t, h.scraper.Run(context.Background()))

	for _, r := range schedule.Rotations {
		doc, err := h.store.Read(r)
		require.NoError(t, err)
		require.Equal(t, []string{"G1", "G3"}, doc.Groups())
	}

	require.Len(t, h.tel.Find(telemetry.REPORT_BROKEN, report_scraper_render_group), 1)

	run, err := h.qry.GetLatestRun(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), run.GroupsTotal)
	require.Equal(t, int64(2), run.GroupsOk)
	require.Equal(t, int64(1), run.GroupsFailed)

	failures, err := h.qry.GetGroupFailures(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	require.Equal(t, "G2", failures[0].GroupLabel)
	require.Contains(t, failures[0].Error, "element is not attached")
}

func TestScraperFailuresCommitWithFinish(t *testing.T) {
	site := &fakeSite{
		options: []string{"G1", "G2"},
		tables: map[string]string{
			"G1": mondayTable("9:55am"),
		},
		selectErr: map[string]error{"G2": errors.New("element is not attached to the page")},
	}
	h := setup(t, site, Options{})

	_, err := h.database.Exec(`create trigger reject_finish before update on scrape_runs
begin
    select raise(abort, 'finish rejected');
end`)
	require.NoError(t, err)

	require.True(t, h.scraper.Run(context.Background()))
	require.Len(t, h.tel.Find(telemetry.REPORT_BROKEN, report_db_query), 1)

	run, err := h.qry.GetLatestRun(context.Background())
	require.NoError(t, err)
	require.False(t, run.FinishedAt.Valid)

	failures, err := h.qry.GetGroupFailures(context.Background(), run.ID)
	require.NoError(t, err)
	require.Empty(t, failures)
}

func TestScraperIsIdempotent(t *testing.T) {
	site := &fakeSite{
		options: []string{"1бАЭн1", "1бАЭн2"},
		tables: map[string]string{
			"1бАЭн1": mondayTable("9:55am", "11:40am", "1:25pm"),
			"1бАЭн2": mondayTable("3:10pm"),
		},
	}
	h := setup(t, site, Options{})

	require.True(t, h.scraper.Run(context.Background()))
	firstA, err := os.ReadFile(h.store.Path(schedule.RotationA))
	require.NoError(t, err)
	firstB, err := os.ReadFile(h.store.Path(schedule.RotationB))
	require.NoError(t, err)

	require.True(t, h.scraper.Run(context.Background()))
	secondA, err := os.ReadFile(h.store.Path(schedule.RotationA))
	require.NoError(t, err)
	secondB, err := os.ReadFile(h.store.Path(schedule.RotationB))
	require.NoError(t, err)

	require.Equal(t, firstA, secondA)
	require.Equal(t, firstB, secondB)

	runs, err := h.qry.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestScraperFatalKeepsPreviousDocuments(t *testing.T) {
	site := &fakeSite{
		options: []string{"1бАЭн1"},
		tables:  map[string]string{"1бАЭн1": mondayTable("9:55am")},
	}
	h := setup(t, site, Options{})
	require.True(t, h.scraper.Run(context.Background()))
	before, err := os.ReadFile(h.store.Path(schedule.RotationA))
	require.NoError(t, err)

	site.openErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	result := h.scraper.Scrape(context.Background())
	require.False(t, result.Success)
	require.ErrorContains(t, result.Err, "ERR_NAME_NOT_RESOLVED")

	after, err := os.ReadFile(h.store.Path(schedule.RotationA))
	require.NoError(t, err)
	require.Equal(t, before, after)

	require.Equal(t, 2, site.closed, "the browser is released on failure too")
	require.Len(t, h.notifier.subjects, 1)
	require.Contains(t, h.notifier.bodies[0], result.ID)
	require.Len(t, h.tel.Find(telemetry.REPORT_BROKEN, report_scraper_run), 1)

	run, err := h.qry.GetLatestRun(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.ID, run.ID)
	require.False(t, run.Success)
	require.Contains(t, run.Error.String, "ERR_NAME_NOT_RESOLVED")
}

func TestScraperGroupListFailure(t *testing.T) {
	site := &fakeSite{optionsErr: ErrNoSelector}
	h := setup(t, site, Options{})

	require.False(t, h.scraper.Run(context.Background()))
	_, err := os.Stat(h.store.Path(schedule.RotationA))
	require.True(t, os.IsNotExist(err))
}

func TestScraperLaunchFailure(t *testing.T) {
	h := setup(t, &fakeSite{}, Options{})
	h.scraper.launch = func(ctx context.Context) (Browser, error) {
		return nil, errors.New("chrome not found")
	}

	result := h.scraper.Scrape(context.Background())
	require.False(t, result.Success)
	require.ErrorContains(t, result.Err, "launch browser")
	require.Len(t, h.notifier.subjects, 1)
}

func TestScraperWriteFailure(t *testing.T) {
	site := &fakeSite{
		options: []string{"1бАЭн1"},
		tables:  map[string]string{"1бАЭн1": mondayTable("9:55am")},
	}
	h := setup(t, site, Options{})
	h.scraper.store = failingWriter{}

	result := h.scraper.Scrape(context.Background())
	require.False(t, result.Success)
	require.ErrorContains(t, result.Err, "disk full")
	require.Equal(t, 1, result.GroupsOk)
}

func TestScraperMaxGroups(t *testing.T) {
	site := &fakeSite{tables: map[string]string{}}
	for i := 0; i < 12; i++ {
		label := "G" + string(rune('A'+i))
		site.options = append(site.options, label)
		site.tables[label] = mondayTable("9:55am")
	}

	h := setup(t, site, Options{MaxGroups: DefaultMaxGroups})
	require.True(t, h.scraper.Run(context.Background()))
	doc, err := h.store.Read(schedule.RotationA)
	require.NoError(t, err)
	require.Len(t, doc, DefaultMaxGroups)
	require.Len(t, site.selected, DefaultMaxGroups)
	require.Equal(t, "GA", site.selected[0])

	// zero means every group
	site.selected = nil
	h = setup(t, site, Options{})
	require.True(t, h.scraper.Run(context.Background()))
	doc, err = h.store.Read(schedule.RotationA)
	require.NoError(t, err)
	require.Len(t, doc, 12)
}

func TestScraperKeepsPartialExtraction(t *testing.T) {
	site := &fakeSite{
		options: []string{"partial", "broken"},
		tables:  map[string]string{"partial": "", "broken": ""},
	}
	h := setup(t, site, Options{})
	h.scraper.extract = func(html string) ([]RawSession, error) {
		if len(site.selected) == 1 {
			return []RawSession{{Day: schedule.Friday, Time: "09:55", Subject: "Физика"}}, errors.New("truncated table")
		}
		return nil, ErrNoTable
	}

	result := h.scraper.Scrape(context.Background())
	require.True(t, result.Success)
	require.Equal(t, 1, result.GroupsOk)
	require.Equal(t, 1, result.GroupsFailed)

	doc, err := h.store.Read(schedule.RotationA)
	require.NoError(t, err)
	require.Equal(t, []string{"partial"}, doc.Groups())
	require.Len(t, h.tel.Find(telemetry.REPORT_WARNING, report_scraper_extract), 1)
	require.Len(t, h.tel.Find(telemetry.REPORT_BROKEN, report_scraper_extract), 1)
}

func TestScraperGroupWithoutSessions(t *testing.T) {
	site := &fakeSite{
		options: []string{"empty"},
		tables:  map[string]string{"empty": table(row("понедельник", "1 пара", "", "", "", "", ""))},
	}
	h := setup(t, site, Options{})
	require.True(t, h.scraper.Run(context.Background()))

	contents, err := os.ReadFile(h.store.Path(schedule.RotationB))
	require.NoError(t, err)
	require.Equal(t, "{\n  \"empty\": []\n}\n", string(contents))
}

func TestScraperCancelled(t *testing.T) {
	site := &fakeSite{
		options: []string{"1бАЭн1"},
		tables:  map[string]string{"1бАЭн1": mondayTable("9:55am")},
	}
	h := setup(t, site, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.False(t, h.scraper.Run(ctx))
	_, err := os.Stat(h.store.Path(schedule.RotationA))
	require.True(t, os.IsNotExist(err))

	run, err := h.qry.GetLatestRun(context.Background())
	require.NoError(t, err)
	require.False(t, run.Success)
	require.True(t, run.FinishedAt.Valid)
}
