package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
)

const stateDir = "dev/.state"

type setupStep struct {
	name string
	run  func() error
}

var steps = []setupStep{
	{"run history database", CreateRunHistoryDB},
	{"live scrape config", CreateLiveScrapeConfig},
}

func prepareState(recreate bool) error {
	_, err := os.Stat("go.mod")
	if errors.Is(err, os.ErrNotExist) {
		return errors.New("run the dev setup from the repository root, next to go.mod")
	}
	if recreate {
		err = os.RemoveAll(stateDir)
		if err != nil {
			return err
		}
	}
	return os.MkdirAll(stateDir, 0777)
}

func main() {
	recreate := flag.Bool("recreate", false, "wipe dev/.state before setting it up again")
	flag.Parse()

	err := prepareState(*recreate)
	if err != nil {
		slog.Error("prepare dev state", "err", err)
		os.Exit(1)
	}
	for _, step := range steps {
		err = step.run()
		if err != nil {
			slog.Error("dev setup step failed", "step", step.name, "err", err)
			os.Exit(1)
		}
	}
	PrintConfigLocations()
}
