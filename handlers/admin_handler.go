package handlers

import (
	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	IPOService *services.IPOService
}

func NewAdminHandler(ipoService *services.IPOService) *AdminHandler {
	return &AdminHandler{IPOService: ipoService}
}

// RequireCredential rejects admin calls without a bearer token. The backend
// decides whether the token carries the admin role.
func RequireCredential(c *fiber.Ctx) error {
	if credentialFrom(c) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Authorization required",
		})
	}
	return c.Next()
}

// UpdateSubscription takes the offered/subscribed figures entered by an admin,
// derives the multipliers and stores both on the backend.
func (h *AdminHandler) UpdateSubscription(c *fiber.Ctx) error {
	var details models.SubscriptionDetails
	if err := c.BodyParser(&details); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	ipoID := c.Params("id")
	update, err := h.IPOService.UpdateSubscription(c.UserContext(), ipoID, details, credentialFrom(c))
	if err != nil {
		return errorResponse(c, err)
	}

	logrus.WithFields(logrus.Fields{
		"component": "AdminHandler",
		"ipo_id":    ipoID,
	}).Info("Subscription figures updated")

	return c.JSON(fiber.Map{
		"success": true,
		"data":    update,
	})
}
