package main

import (
	"context"
	"os"

	"madischedule-backend/cmd/schedule-cli/commands"
	"madischedule-backend/internal/components/telemetry"
)

func main() {
	telemetry.InitSlog(os.Getenv("VERBOSE") != "")
	commands.ExecuteContext(context.Background())
}
