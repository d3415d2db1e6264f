package madi

import (
	"errors"
	"fmt"
	"strings"

	"madischedule-backend/internal/schedule"
	"madischedule-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNoTable is returned when the rendered page holds no timetable.
	ErrNoTable = errors.New("no timetable in document")
	// ErrRowShape marks a row that does not have the fixed timetable width,
	// as opposed to a row with legitimately empty cells.
	ErrRowShape = errors.New("row does not match the timetable shape")
	// ErrRowFault stops the extraction at a row that could not be read, the
	// rows before it are still returned.
	ErrRowFault = errors.New("unreadable timetable row")
)

const (
	colDay = iota
	colTime
	colSubject
	colType
	colTeacher
	colRoom
	colTrailing

	minRowCells = 7
)

// parseRow reads the fixed positional columns of a timetable row. The day is
// left unset, it is tracked by the caller across rows.
func parseRow(cells []string) (RawSession, error) {
	if len(cells) < minRowCells {
		return RawSession{}, fmt.Errorf("%w: %d cells", ErrRowShape, len(cells))
	}
	session := RawSession{
		Time:       cells[colTime],
		Subject:    cells[colSubject],
		LessonType: cells[colType],
		Teacher:    cells[colTeacher],
		Room:       cells[colRoom],
	}
	if len(cells) > colTrailing {
		session.Trailing = append([]string(nil), cells[colTrailing:]...)
	}
	return session, nil
}

func isFillerTime(text string) bool {
	return text == "" || strings.Contains(strings.ToLower(text), "пара")
}

func rowCells(row *goquery.Selection) []string {
	tds := row.ChildrenFiltered("td")
	cells := make([]string, tds.Length())
	tds.Each(func(i int, td *goquery.Selection) {
		cells[i] = htmlutil.CellText(td)
	})
	return cells
}

// ExtractTable walks the first table of the given html and returns one
// RawSession per data row in table order.
//
// The current day is carried over rows, it changes only when a row's first
// cell is a weekday name. Rows that are too narrow, have no time or have a
// "пара" marker in the time column are skipped. A time that cannot be
// normalized is kept as the raw cell text. A row that faults ends the walk
// with ErrRowFault and the sessions read up to it.
func ExtractTable(html string) ([]RawSession, error) {
	return extractTable(html, parseRow)
}

func extractTable(html string, parse func(cells []string) (RawSession, error)) ([]RawSession, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse timetable: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	sessions := []RawSession{}
	var (
		day   schedule.Weekday
		fault error
	)
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		session, ok, err := readRow(row, &day, parse)
		if err != nil {
			fault = fmt.Errorf("%w %d: %v", ErrRowFault, i, err)
			return false
		}
		if ok {
			sessions = append(sessions, session)
		}
		return true
	})

	return sessions, fault
}

// readRow returns ok when row holds a session, it updates day when the row
// starts a new weekday. A panic while reading the row becomes its error.
func readRow(
	row *goquery.Selection,
	day *schedule.Weekday,
	parse func(cells []string) (RawSession, error),
) (session RawSession, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	cells := rowCells(row)
	if len(cells) > 0 {
		parsed, isDay := schedule.ParseWeekday(cells[colDay])
		if isDay {
			*day = parsed
		}
	}

	session, err = parse(cells)
	if err != nil {
		// a malformed row is skipped, not a fault
		return RawSession{}, false, nil
	}
	if isFillerTime(session.Time) {
		return RawSession{}, false, nil
	}
	normalized, err := NormalizeTimeRange(session.Time)
	if err == nil {
		session.Time = normalized
	}
	if !day.Valid() || session.Time == "" {
		return RawSession{}, false, nil
	}

	session.Day = *day
	return session, true, nil
}
