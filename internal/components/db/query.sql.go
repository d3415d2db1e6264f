package db

import (
	"context"
	"database/sql"
)

const addGroupFailure = `-- name: AddGroupFailure :exec
insert into scrape_group_failures(run_id, group_label, error)
values (?, ?, ?)
`

type AddGroupFailureParams struct {
	RunID      string
	GroupLabel string
	Error      string
}

func (q *Queries) AddGroupFailure(ctx context.Context, arg AddGroupFailureParams) error {
	_, err := q.db.ExecContext(ctx, addGroupFailure, arg.RunID, arg.GroupLabel, arg.Error)
	return err
}

const createRun = `-- name: CreateRun :exec
insert into scrape_runs(id, started_at)
values (?, ?)
`

type CreateRunParams struct {
	ID        string
	StartedAt int64
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun, arg.ID, arg.StartedAt)
	return err
}

const finishRun = `-- name: FinishRun :exec
update scrape_runs set
    finished_at = ?,
    success = ?,
    groups_total = ?,
    groups_ok = ?,
    groups_failed = ?,
    error = ?
where id = ?
`

type FinishRunParams struct {
	FinishedAt   sql.NullInt64
	Success      bool
	GroupsTotal  int64
	GroupsOk     int64
	GroupsFailed int64
	Error        sql.NullString
	ID           string
}

func (q *Queries) FinishRun(ctx context.Context, arg FinishRunParams) error {
	_, err := q.db.ExecContext(ctx, finishRun,
		arg.FinishedAt,
		arg.Success,
		arg.GroupsTotal,
		arg.GroupsOk,
		arg.GroupsFailed,
		arg.Error,
		arg.ID,
	)
	return err
}

const getGroupFailures = `-- name: GetGroupFailures :many
select run_id, group_label, error from scrape_group_failures
where run_id = ?
order by rowid
`

func (q *Queries) GetGroupFailures(ctx context.Context, runID string) ([]ScrapeGroupFailure, error) {
	rows, err := q.db.QueryContext(ctx, getGroupFailures, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ScrapeGroupFailure
	for rows.Next() {
		var i ScrapeGroupFailure
		if err := rows.Scan(&i.RunID, &i.GroupLabel, &i.Error); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLatestRun = `-- name: GetLatestRun :one
select id, started_at, finished_at, success, groups_total, groups_ok, groups_failed, error from scrape_runs
order by started_at desc, rowid desc
limit 1
`

func (q *Queries) GetLatestRun(ctx context.Context) (ScrapeRun, error) {
	row := q.db.QueryRowContext(ctx, getLatestRun)
	var i ScrapeRun
	err := row.Scan(
		&i.ID,
		&i.StartedAt,
		&i.FinishedAt,
		&i.Success,
		&i.GroupsTotal,
		&i.GroupsOk,
		&i.GroupsFailed,
		&i.Error,
	)
	return i, err
}

const listRuns = `-- name: ListRuns :many
select id, started_at, finished_at, success, groups_total, groups_ok, groups_failed, error from scrape_runs
order by started_at desc, rowid desc
limit ?
`

func (q *Queries) ListRuns(ctx context.Context, limit int64) ([]ScrapeRun, error) {
	rows, err := q.db.QueryContext(ctx, listRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ScrapeRun
	for rows.Next() {
		var i ScrapeRun
		if err := rows.Scan(
			&i.ID,
			&i.StartedAt,
			&i.FinishedAt,
			&i.Success,
			&i.GroupsTotal,
			&i.GroupsOk,
			&i.GroupsFailed,
			&i.Error,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
