package db

import (
	"database/sql"
)

type ScrapeRun struct {
	ID           string
	StartedAt    int64
	FinishedAt   sql.NullInt64
	Success      bool
	GroupsTotal  int64
	GroupsOk     int64
	GroupsFailed int64
	Error        sql.NullString
}

type ScrapeGroupFailure struct {
	RunID      string
	GroupLabel string
	Error      string
}
