package api

import (
	"context"
	"errors"

	"madischedule-backend/internal/components/assert"
	"madischedule-backend/internal/components/db"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/internal/schedulestore"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("madischedule-backend/internal/api")

const ServiceName = "MADI Schedule API"

const (
	report_api_handler = "api.handler"
	report_api_health  = "api.health"
)

// Server is the read-only http surface over the stored schedule documents.
type Server struct {
	app   *fiber.App
	store schedulestore.Store
	// runs is optional, health omits the last run without it.
	runs *db.Queries
	tel  telemetry.API
}

func NewServer(store schedulestore.Store, runs *db.Queries, tel telemetry.API) Server {
	assert.NotNil(tel, "telemetry")
	assert.NotEmptyStr(store.Dir(), "store dir")

	s := Server{
		store: store,
		runs:  runs,
		tel:   telemetry.NewScopedAPI("api", tel),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               ServiceName,
		UnescapePath:          true,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,HEAD,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	s.app.Use(s.trace)

	s.app.Get("/", s.root)
	s.app.Get("/api/health", s.health)
	s.app.Get("/api/groups", s.groups)
	s.app.Get("/api/groups/search", s.searchGroups)
	s.app.Get("/api/schedule/:week", s.schedule)
	s.app.Get("/api/schedule/:week/:group", s.groupSchedule)
	s.app.Get("/static/:file", s.staticDocument)

	return s
}

func (s Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled.
func (s Server) Listen(ctx context.Context, addr string) error {
	stop := context.AfterFunc(ctx, func() {
		err := s.app.Shutdown()
		if err != nil {
			s.tel.ReportWarning(report_api_handler, err)
		}
	})
	defer stop()

	s.tel.ReportInfo("listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s Server) trace(c *fiber.Ctx) error {
	ctx, span := tracer.Start(c.UserContext(), c.Method()+" "+c.Path())
	defer span.End()
	c.SetUserContext(ctx)
	return c.Next()
}

func (s Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		s.tel.ReportBroken(report_api_handler, err, "path", c.Path())
	}
	return c.Status(code).JSON(fiber.Map{"detail": message})
}
