package api

import (
	"encoding/base64"

	"github.com/gofiber/fiber/v2"

	"github.com/rollcall/rollcall/internal/model"
)

func (s *Server) listStudents(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 10)
	query := c.Query("query")

	students, total, err := s.store.ListStudents(c.Context(), page, perPage, query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"students": students,
		"total":    total,
	})
}

func (s *Server) getStudent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid student id")
	}
	student, err := s.store.StudentByID(c.Context(), int64(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "student": student})
}

type registerRequest struct {
	StudentID       string `json:"student_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Course          string `json:"course"`
	FaceImage       string `json:"face_image"`
	VoiceTranscript string `json:"voice_transcript"`
}

func (s *Server) registerStudent(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.StudentID == "" || req.Name == "" || req.Email == "" || req.Course == "" {
		return fail(c, fiber.StatusBadRequest, "missing required student information")
	}
	if req.FaceImage == "" {
		return fail(c, fiber.StatusBadRequest, "missing face image data")
	}
	if req.VoiceTranscript == "" {
		return fail(c, fiber.StatusBadRequest, "missing voice sample")
	}
	image, err := base64.StdEncoding.DecodeString(req.FaceImage)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "face image is not valid base64")
	}

	id, err := s.store.CreateStudent(c.Context(), model.NewStudent{
		ExternalID: req.StudentID,
		Name:       req.Name,
		Email:      req.Email,
		Course:     req.Course,
	})
	if err != nil {
		return respondError(c, err)
	}

	if _, err := s.faces.Enroll(c.Context(), id, image); err != nil {
		return respondError(c, err)
	}
	if _, err := s.voices.Enroll(c.Context(), id, req.VoiceTranscript); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "Student " + req.Name + " registered successfully",
		"student_id": id,
	})
}

type updateRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Course *string `json:"course"`
	Status *string `json:"status"`
}

func (s *Server) updateStudent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid student id")
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status != nil && *req.Status != model.StatusActive && *req.Status != model.StatusInactive {
		return fail(c, fiber.StatusBadRequest, "status must be active or inactive")
	}

	patch := model.StudentPatch{
		Name:   req.Name,
		Email:  req.Email,
		Course: req.Course,
		Status: req.Status,
	}
	if err := s.store.UpdateStudent(c.Context(), int64(id), patch); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Student updated successfully"})
}

func (s *Server) deleteStudent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid student id")
	}
	if err := s.store.DeleteStudent(c.Context(), int64(id)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Student deleted successfully"})
}
