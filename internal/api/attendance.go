package api

import (
	"github.com/gofiber/fiber/v2"
)

func (s *Server) sessionAttendance(c *fiber.Ctx) error {
	sessionID := c.QueryInt("session_id")
	if sessionID == 0 {
		return fail(c, fiber.StatusBadRequest, "session ID is required")
	}
	attendance, err := s.store.AttendanceBySession(c.Context(), int64(sessionID))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "attendance": attendance})
}

type markRequest struct {
	StudentID int64 `json:"student_id"`
	SessionID int64 `json:"session_id"`
}

func (s *Server) markAttendance(c *fiber.Ctx) error {
	var req markRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.StudentID == 0 || req.SessionID == 0 {
		return fail(c, fiber.StatusBadRequest, "student ID and session ID are required")
	}

	rec, studentName, err := s.ledger.Mark(c.Context(), req.StudentID, req.SessionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "Attendance marked successfully",
		"attendance_id": rec.ID,
		"student_name":  studentName,
	})
}
