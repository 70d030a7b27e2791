package handlers

import (
	"strings"

	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/gofiber/fiber/v2"
)

type IPOHandler struct {
	Service *services.IPOService
}

func NewIPOHandler(service *services.IPOService) *IPOHandler {
	return &IPOHandler{Service: service}
}

// GetIPOs lists offerings with their derived phase, GMP and subscription views.
// A board selects one of the home page listings; the other parameters narrow
// it further.
func (h *IPOHandler) GetIPOs(c *fiber.Ctx) error {
	board := c.Query("board", "all")
	filter, ok := models.BoardFilter(board)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Unknown board: " + board,
		})
	}
	filter.Query = c.Query("q")

	if order := c.Query("sort"); order != "" {
		sortOrder, ok := models.ParseIPOSort(order)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Unknown sort: " + order,
			})
		}
		filter.Sort = sortOrder
	}
	if c.QueryBool("hasGmp") {
		filter.HasGMP = true
	}
	if limit := c.QueryInt("limit"); limit > 0 {
		filter.Limit = limit
	}

	status := c.Query("status", "all")
	if phase, ok := models.ParseLifecyclePhase(status); ok {
		filter.Phase = phase
	} else if !strings.EqualFold(status, "all") && status != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Unknown status filter: " + status,
		})
	}

	if category := c.Query("category", "all"); !strings.EqualFold(category, "all") {
		filter.Category = category
	}

	views, err := h.Service.ListViews(c.UserContext(), filter)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    views,
		"count":   len(views),
	})
}

func (h *IPOHandler) GetIPOByID(c *fiber.Ctx) error {
	view, err := h.Service.GetView(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    view,
	})
}

// GetSubscription returns the share and application views side by side
func (h *IPOHandler) GetSubscription(c *fiber.Ctx) error {
	view, err := h.Service.GetView(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"ipoId":        view.Identifier(),
			"companyName":  view.CompanyName,
			"phase":        view.Phase,
			"shares":       view.Shares,
			"applications": view.Applications,
			"stored":       view.Subscription,
		},
	})
}
