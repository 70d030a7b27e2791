package handlers

import (
	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	IPOService *services.IPOService
}

func NewDashboardHandler(ipoService *services.IPOService) *DashboardHandler {
	return &DashboardHandler{IPOService: ipoService}
}

// GetApplications returns the caller's tracked applications and counters
func (h *DashboardHandler) GetApplications(c *fiber.Ctx) error {
	apps, stats, err := h.IPOService.Applications(c.UserContext(), credentialFrom(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"applications": apps,
			"stats":        stats,
		},
	})
}

type statusRequest struct {
	Status  string          `json:"status"`
	LotSize models.Quantity `json:"lotSize"`
}

// UpdateApplicationStatus stores the allotment result a user read on the
// registrar site for one of their applications
func (h *DashboardHandler) UpdateApplicationStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	update, err := h.IPOService.UpdateApplicationStatus(c.UserContext(), c.Params("id"), req.Status, req.LotSize, credentialFrom(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    update,
	})
}
