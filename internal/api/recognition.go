package api

import (
	"encoding/base64"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type detectFaceRequest struct {
	Image string `json:"image"`
}

// detectFace identifies the student on a face sample. A sample below the
// threshold is a successful request with recognized=false, not an error.
func (s *Server) detectFace(c *fiber.Ctx) error {
	var req detectFaceRequest
	if err := c.BodyParser(&req); err != nil || req.Image == "" {
		return fail(c, fiber.StatusBadRequest, "missing face image data")
	}
	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "face image is not valid base64")
	}

	match, ok, err := s.faces.Identify(c.Context(), image)
	if err != nil {
		return respondError(c, err)
	}
	if !ok {
		return c.JSON(fiber.Map{
			"success":    true,
			"recognized": false,
			"message":    "No matching student found",
		})
	}

	student, err := s.store.StudentByID(c.Context(), match.StudentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"recognized": true,
		"student_id": student.ID,
		"name":       student.Name,
		"score":      match.Score,
	})
}

type verifyVoiceRequest struct {
	StudentID  int64  `json:"student_id"`
	Transcript string `json:"transcript"`
}

func (s *Server) verifyVoice(c *fiber.Ctx) error {
	var req verifyVoiceRequest
	if err := c.BodyParser(&req); err != nil || req.StudentID == 0 || req.Transcript == "" {
		return fail(c, fiber.StatusBadRequest, "student ID and transcript are required")
	}

	if _, err := s.store.StudentByID(c.Context(), req.StudentID); err != nil {
		return respondError(c, err)
	}

	score, ok, err := s.voices.Verify(c.Context(), req.StudentID, req.Transcript)
	if err != nil {
		return respondError(c, err)
	}

	message := "Voice verification failed"
	if ok {
		message = "Voice verified successfully"
	}
	return c.JSON(fiber.Map{
		"success": ok,
		"message": message,
		"score":   score,
	})
}

// diagnostics probes the persistence backend so operators can tell a dead
// store apart from a dead process.
func (s *Server) diagnostics(c *fiber.Ctx) error {
	if err := s.store.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"status":  "degraded",
			"message": fmt.Sprintf("storage backend unreachable: %v", err),
		})
	}
	return c.JSON(fiber.Map{"success": true, "status": "ok"})
}
