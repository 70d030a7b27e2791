package handlers

import (
	"strings"

	"github.com/fenilmodi00/ipo-insights/shared"
	"github.com/gofiber/fiber/v2"
)

// errorResponse maps a service error to an HTTP status and JSON body
func errorResponse(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{
		"success": false,
		"error":   err.Error(),
	}

	if serviceErr, ok := shared.AsServiceError(err); ok {
		body["error"] = serviceErr.Message
		body["code"] = serviceErr.Code
		body["retryable"] = serviceErr.Retryable
		if serviceErr.Details != nil {
			body["details"] = serviceErr.Details
		}

		switch {
		case serviceErr.Category == shared.ErrorCategoryValidation:
			status = fiber.StatusBadRequest
		case serviceErr.Category == shared.ErrorCategoryNotFound:
			status = fiber.StatusNotFound
		case serviceErr.Category == shared.ErrorCategoryAuthentication:
			status = fiber.StatusUnauthorized
		case serviceErr.Retryable:
			status = fiber.StatusBadGateway
		}
	}

	return c.Status(status).JSON(body)
}

// credentialFrom returns the caller's bearer token, if any
func credentialFrom(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
