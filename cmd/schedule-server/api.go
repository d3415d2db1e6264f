package main

import (
	"context"
	"fmt"

	"madischedule-backend/internal/api"
	"madischedule-backend/internal/components/db"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/internal/config"
	"madischedule-backend/internal/schedulestore"
)

func ServeApi(
	ctx context.Context,
	cfg config.ApiConfig,
	store schedulestore.Store,
	qry *db.Queries,
	tel telemetry.API,
) error {
	server := api.NewServer(store, qry, tel)
	return server.Listen(ctx, fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
}
