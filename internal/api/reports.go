package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rollcall/rollcall/internal/report"
	"github.com/rollcall/rollcall/internal/store"
)

// reportFilter reads the shared report query parameters, resolving a
// symbolic date_range against today when one is supplied.
func (s *Server) reportFilter(c *fiber.Ctx) store.ReportFilter {
	start, end := report.ResolveRange(
		c.Query("date_range"),
		c.Query("start_date"),
		c.Query("end_date"),
		s.now(),
	)
	return store.ReportFilter{
		StartDate: start,
		EndDate:   end,
		SessionID: int64(c.QueryInt("session_id")),
		StudentID: int64(c.QueryInt("student_id")),
	}
}

func (s *Server) reportsHandler(c *fiber.Ctx) error {
	filter := s.reportFilter(c)

	rows, stats, err := s.reports.Build(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	daily, err := s.reports.Daily(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"attendance":  rows,
		"stats":       stats,
		"daily_stats": daily,
	})
}

func (s *Server) exportReports(c *fiber.Ctx) error {
	rows, _, err := s.reports.Build(c.Context(), s.reportFilter(c))
	if err != nil {
		return respondError(c, err)
	}
	csv, err := report.ExportCSV(rows)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "csv_content": csv})
}
