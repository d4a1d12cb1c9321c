// Package api is the HTTP boundary: thin request/response marshalling
// over the ledger, report engine, settings store and recognition services.
// Responses use the conventional envelope {success, message?, ...payload}
// with 400 for validation failures and duplicates, 404 for missing
// entities and 500 for unexpected failures.
package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/rollcall/rollcall/internal/ledger"
	"github.com/rollcall/rollcall/internal/model"
	"github.com/rollcall/rollcall/internal/recognition"
	"github.com/rollcall/rollcall/internal/report"
	"github.com/rollcall/rollcall/internal/settings"
	"github.com/rollcall/rollcall/internal/store"
)

// Server bundles the components the handlers dispatch to.
type Server struct {
	store    store.Store
	ledger   *ledger.Ledger
	reports  *report.Engine
	settings *settings.Store
	faces    *recognition.FaceService
	voices   *recognition.VoiceService

	// now stamps "today" for symbolic date ranges. Tests override it.
	now func() time.Time
}

// New creates the Server and its fiber application.
func New(st store.Store, led *ledger.Ledger, rep *report.Engine, set *settings.Store, faces *recognition.FaceService, voices *recognition.VoiceService) (*Server, *fiber.App) {
	s := &Server{
		store:    st,
		ledger:   led,
		reports:  rep,
		settings: set,
		faces:    faces,
		voices:   voices,
		now:      time.Now,
	}

	app := fiber.New(fiber.Config{
		AppName:               "rollcall",
		DisableStartupMessage: true,
	})
	app.Use(requestID())

	app.Get("/", s.status)

	api := app.Group("/api")
	api.Get("/students", s.listStudents)
	api.Post("/students/register", s.registerStudent)
	api.Get("/students/:id", s.getStudent)
	api.Put("/students/:id", s.updateStudent)
	api.Delete("/students/:id", s.deleteStudent)

	api.Get("/sessions", s.listSessions)
	api.Post("/sessions", s.createSession)
	api.Delete("/sessions/:id", s.deleteSession)

	api.Get("/attendance", s.sessionAttendance)
	api.Post("/attendance/mark", s.markAttendance)

	api.Get("/reports", s.reportsHandler)
	api.Get("/reports/export", s.exportReports)

	api.Get("/settings", s.getSettings)
	api.Post("/settings", s.saveSettings)

	api.Post("/recognition/detect-face", s.detectFace)
	api.Post("/recognition/verify-voice", s.verifyVoice)

	api.Get("/diagnostics", s.diagnostics)

	return s, app
}

// SetNow overrides the reference time. Tests only.
func (s *Server) SetNow(now func() time.Time) {
	s.now = now
}

func (s *Server) status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "attendance system API is running"})
}

// requestID stamps every request with a correlation id, echoed in the
// response header and attached to the access log line.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := uuid.NewString()
		c.Locals("request_id", id)
		c.Set("X-Request-ID", id)

		start := time.Now()
		err := c.Next()

		slog.Info("request",
			"id", id,
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
		)
		return err
	}
}

// fail renders a failure envelope with the given status.
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// respondError maps a typed error to its transport status. Unexpected
// failures are logged with the request id and reported generically.
func respondError(c *fiber.Ctx, err error) error {
	var e *model.Error
	if errors.As(err, &e) {
		switch e.Code {
		case model.CodeNotFound:
			return fail(c, fiber.StatusNotFound, e.Message)
		case model.CodeConflict, model.CodeValidation:
			return fail(c, fiber.StatusBadRequest, e.Message)
		}
	}
	slog.Error("request failed",
		"id", c.Locals("request_id"),
		"path", c.Path(),
		"error", err,
	)
	return fail(c, fiber.StatusInternalServerError, "unexpected error")
}
