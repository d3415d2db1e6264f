package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	devenv "madischedule-backend/dev/env"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config picks where run history lives. A remote libsql url takes precedence
// over the local sqlite file.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url" validate:"omitempty,url"`
	AuthToken string `json:"auth_token"`
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens the configured database and applies Schema to it.
func OpenDB(config Config) (*sql.DB, error) {
	var (
		database *sql.DB
		err      error
	)
	switch {
	case config.Url != "":
		database, err = openRemote(config.Url, config.AuthToken)
	case config.File != "":
		database, err = openLocal(config.File)
	default:
		return nil, wrapOpenDB(fmt.Errorf("neither a file nor a url was specified"))
	}
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return nil, wrapOpenDB(err)
	}
	return database, nil
}

func openLocal(file string) (*sql.DB, error) {
	path, err := devenv.ResolvePath(file)
	if err != nil {
		return nil, err
	}
	if path != ":memory:" {
		err = os.MkdirAll(filepath.Dir(path), 0777)
		if err != nil {
			return nil, err
		}
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	database.SetMaxOpenConns(1)
	_, err = database.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		database.Close()
		return nil, err
	}
	_, err = database.Exec("PRAGMA foreign_keys=ON")
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func openRemote(url, authToken string) (*sql.DB, error) {
	dsn := url
	if authToken != "" {
		dsn = fmt.Sprintf("%s?authToken=%s", url, authToken)
	}
	return sql.Open("libsql", dsn)
}
