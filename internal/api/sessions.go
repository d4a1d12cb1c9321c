package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rollcall/rollcall/internal/model"
)

// sessionView is a session decorated with its attendance count for the
// session list.
type sessionView struct {
	model.Session
	AttendanceCount int `json:"attendance_count"`
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	sessions, err := s.store.ListSessions(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	views := []sessionView{}
	for _, sess := range sessions {
		count, err := s.store.SessionAttendanceCount(c.Context(), sess.ID)
		if err != nil {
			return respondError(c, err)
		}
		views = append(views, sessionView{Session: sess, AttendanceCount: count})
	}
	return c.JSON(fiber.Map{"success": true, "sessions": views})
}

type createSessionRequest struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (s *Server) createSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return fail(c, fiber.StatusBadRequest, "session name is required")
	}
	if req.Date == "" {
		req.Date = s.now().Format(model.DateLayout)
	}

	id, err := s.store.CreateSession(c.Context(), model.NewSession{
		Name:      req.Name,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "Session created successfully",
		"session_id": id,
	})
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid session id")
	}
	if err := s.store.DeleteSession(c.Context(), int64(id)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Session deleted successfully"})
}
