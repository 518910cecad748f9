package handler

import "github.com/gofiber/fiber/v2"

// successPayload is the envelope for every successful API response.
type successPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeSuccess(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(successPayload{
		Success: true,
		Message: message,
		Data:    data,
	})
}
