package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/rollcall/rollcall/internal/settings"
)

func (s *Server) getSettings(c *fiber.Ctx) error {
	resolved, err := s.settings.Get(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "settings": resolved})
}

// saveSettings requires the recognition keys so a partial write cannot
// leave the thresholds unset, then refreshes the in-process services.
func (s *Server) saveSettings(c *fiber.Ctx) error {
	var values map[string]any
	if err := c.BodyParser(&values); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid settings payload")
	}

	required := []string{
		settings.KeyFaceThreshold,
		settings.KeyVoiceThreshold,
		settings.KeyRequireBoth,
	}
	for _, key := range required {
		if _, ok := values[key]; !ok {
			return fail(c, fiber.StatusBadRequest, fmt.Sprintf("Missing required setting: %s", key))
		}
	}

	if err := s.settings.Set(c.Context(), values); err != nil {
		return respondError(c, err)
	}

	s.faces.SetThreshold(settings.Float(values, settings.KeyFaceThreshold))
	s.voices.SetThreshold(settings.Float(values, settings.KeyVoiceThreshold))

	return c.JSON(fiber.Map{"success": true, "message": "Settings saved successfully"})
}
