package madi

import (
	"time"

	"madischedule-backend/internal/schedule"
)

const (
	report_db_query             = "db.query"
	report_scraper_run          = "scraper.run"
	report_scraper_render_group = "scraper.render-group"
	report_scraper_extract      = "scraper.extract"
	report_scraper_close        = "scraper.close-browser"
	report_scraper_notify       = "scraper.notify"
	report_browser_select       = "browser.select"
)

const (
	DefaultUrl           = "https://raspisanie.madi.ru/tplan/r/?task=7"
	DefaultPlaceholder   = "Выберите группу"
	DefaultMaxGroups     = 10
	DefaultSelectTimeout = 10 * time.Second
	DefaultSettleDelay   = 2 * time.Second
)

// RawSession is one timetable row as it was scraped, before it is assigned a
// rotation.
type RawSession struct {
	Day        schedule.Weekday
	Time       string
	Subject    string
	LessonType string
	Teacher    string
	Room       string
	// Trailing holds the cells after the room column, they are the only
	// place a rotation marker can show up.
	Trailing []string
}

func (r RawSession) Session() schedule.Session {
	return schedule.Session{
		Day:        r.Day,
		Time:       r.Time,
		Subject:    r.Subject,
		LessonType: r.LessonType,
		Teacher:    r.Teacher,
		Room:       r.Room,
	}
}

func toSessions(raw []RawSession) []schedule.Session {
	sessions := make([]schedule.Session, len(raw))
	for i, r := range raw {
		sessions[i] = r.Session()
	}
	return sessions
}

// Options control a single scrape run.
type Options struct {
	// Url is the page carrying the group selector.
	Url string
	// Placeholder is the label of the "choose a group" option.
	Placeholder string
	// MaxGroups caps how many groups are scraped per run, 0 means all.
	MaxGroups int
	// SelectTimeout bounds the wait for a table after selecting a group.
	SelectTimeout time.Duration
	// SettleDelay is slept after selecting a group, before waiting.
	SettleDelay time.Duration
}

// WithDefaults fills unset fields, a negative MaxGroups means no cap.
func (o Options) WithDefaults() Options {
	if o.Url == "" {
		o.Url = DefaultUrl
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	if o.MaxGroups < 0 {
		o.MaxGroups = 0
	}
	if o.SelectTimeout <= 0 {
		o.SelectTimeout = DefaultSelectTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	return o
}
