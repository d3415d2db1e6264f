package api

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"madischedule-backend/internal/components/db"
	"madischedule-backend/internal/schedule"
	"madischedule-backend/internal/schedulestore"
	"madischedule-backend/pkg/textutil"

	"github.com/gofiber/fiber/v2"
)

const defaultSearchLimit = 10

func (s Server) root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": ServiceName + " работает",
		"endpoints": fiber.Map{
			"schedule":       "/api/schedule/{numerator|denominator}",
			"group_schedule": "/api/schedule/{numerator|denominator}/{group}",
			"groups":         "/api/groups",
			"search":         "/api/groups/search?q={query}",
			"health":         "/api/health",
		},
	})
}

func parseWeek(c *fiber.Ctx) (schedule.Rotation, error) {
	week, ok := schedule.ParseRotation(c.Params("week"))
	if !ok {
		return "", fiber.NewError(
			fiber.StatusBadRequest,
			fmt.Sprintf("invalid week type, use '%s' or '%s'", schedule.RotationA, schedule.RotationB),
		)
	}
	return week, nil
}

func (s Server) schedule(c *fiber.Ctx) error {
	week, err := parseWeek(c)
	if err != nil {
		return err
	}

	doc, err := s.store.Read(week)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(doc) == 0) {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("schedule for %s not found", week))
	}
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

func (s Server) groupSchedule(c *fiber.Ctx) error {
	week, err := parseWeek(c)
	if err != nil {
		return err
	}
	group := c.Params("group")

	sessions, ok, err := s.store.Group(week, group)
	if err != nil {
		return err
	}
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("group %s not found in %s", group, week))
	}
	if sessions == nil {
		sessions = []schedule.Session{}
	}
	return c.JSON(fiber.Map{
		"week":     week,
		"group":    group,
		"sessions": sessions,
	})
}

// staticDocument serves the raw document files, nothing else in the store
// directory is exposed.
func (s Server) staticDocument(c *fiber.Ctx) error {
	name := c.Params("file")
	for _, r := range schedule.Rotations {
		if schedulestore.FileName(r) != name {
			continue
		}
		contents, err := os.ReadFile(s.store.Path(r))
		if errors.Is(err, os.ErrNotExist) {
			return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%s not found", name))
		}
		if err != nil {
			return err
		}
		c.Type("json", "utf-8")
		return c.Send(contents)
	}
	return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("%s not found", name))
}

func (s Server) groups(c *fiber.Ctx) error {
	groups, err := s.store.Groups()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"groups": groups})
}

func (s Server) searchGroups(c *fiber.Ctx) error {
	query := c.Query("q")
	if textutil.NormalizeName(query) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing query parameter q")
	}
	limit := c.QueryInt("limit", defaultSearchLimit)
	if limit <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be positive")
	}

	groups, err := s.store.Groups()
	if err != nil {
		return err
	}
	matches := textutil.RankNames(query, groups, limit)

	results := make([]fiber.Map, len(matches))
	for i, m := range matches {
		results[i] = fiber.Map{"group": m.Name, "score": m.Score}
	}
	return c.JSON(fiber.Map{"query": query, "results": results})
}

type runView struct {
	ID           string     `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at"`
	Success      bool       `json:"success"`
	GroupsTotal  int64      `json:"groups_total"`
	GroupsOk     int64      `json:"groups_ok"`
	GroupsFailed int64      `json:"groups_failed"`
	Error        string     `json:"error,omitempty"`
}

func newRunView(run db.ScrapeRun) runView {
	view := runView{
		ID:           run.ID,
		StartedAt:    time.Unix(run.StartedAt, 0).UTC(),
		Success:      run.Success,
		GroupsTotal:  run.GroupsTotal,
		GroupsOk:     run.GroupsOk,
		GroupsFailed: run.GroupsFailed,
		Error:        run.Error.String,
	}
	if run.FinishedAt.Valid {
		finished := time.Unix(run.FinishedAt.Int64, 0).UTC()
		view.FinishedAt = &finished
	}
	return view
}

func (s Server) health(c *fiber.Ctx) error {
	res := fiber.Map{
		"status":  "healthy",
		"service": ServiceName,
	}
	if s.runs == nil {
		return c.JSON(res)
	}

	run, err := s.runs.GetLatestRun(c.UserContext())
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res["last_run"] = nil
	case err != nil:
		// health stays up when only the history is unreadable
		s.tel.ReportWarning(report_api_health, err)
		res["last_run"] = nil
	default:
		res["last_run"] = newRunView(run)
	}
	return c.JSON(res)
}
