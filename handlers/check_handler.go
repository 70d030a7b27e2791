package handlers

import (
	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/gofiber/fiber/v2"
)

type CheckHandler struct {
	IPOService *services.IPOService
	Tracker    *services.AllotmentTracker
}

func NewCheckHandler(ipo *services.IPOService, tracker *services.AllotmentTracker) *CheckHandler {
	return &CheckHandler{
		IPOService: ipo,
		Tracker:    tracker,
	}
}

type checkRequest struct {
	IPOID   string `json:"ipoId"`
	PANCard string `json:"panCard"`
}

// GetEligibleIPOs lists offerings whose allotment can be checked, newest close first
func (h *CheckHandler) GetEligibleIPOs(c *fiber.Ctx) error {
	records, err := h.IPOService.ListRecords(c.UserContext())
	if err != nil {
		return errorResponse(c, err)
	}

	now := h.IPOService.Now()
	eligible := h.Tracker.EligibleForAllotment(records, now)

	items := make([]fiber.Map, 0, len(eligible))
	for _, record := range eligible {
		mode := models.ModeInternal
		if record.HasAllotmentLink() {
			mode = models.ModeExternal
		}
		items = append(items, fiber.Map{
			"ipoId":         record.Identifier(),
			"companyName":   record.CompanyName,
			"category":      record.Category,
			"registrar":     record.Registrar,
			"closeDate":     record.CloseDate,
			"allotmentDate": record.AllotmentDate,
			"phase":         h.IPOService.Resolver().Resolve(record, now),
			"mode":          mode,
			"allotmentLink": record.AllotmentLink,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"count":   len(items),
	})
}

// CheckAllotment runs an in-app PAN lookup. Input is validated before any
// backend call is made.
func (h *CheckHandler) CheckAllotment(c *fiber.Ctx) error {
	var req checkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if _, err := h.Tracker.ValidateCheck(models.AllotmentAttempt{
		IPOID:   req.IPOID,
		Mode:    models.ModeInternal,
		PANCard: req.PANCard,
	}); err != nil {
		return errorResponse(c, err)
	}

	record, err := h.IPOService.GetRecord(c.UserContext(), req.IPOID)
	if err != nil {
		return errorResponse(c, err)
	}

	attempt := h.Tracker.NewAttempt(*record, req.PANCard)
	result, err := h.Tracker.Check(c.UserContext(), attempt, credentialFrom(c))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}

// InitiateExternal returns the registrar page to open and reports the visit
// for signed-in users.
func (h *CheckHandler) InitiateExternal(c *fiber.Ctx) error {
	var req checkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Invalid request"})
	}

	if req.IPOID == "" {
		_, err := h.Tracker.Initiate(c.UserContext(), models.AllotmentAttempt{Mode: models.ModeExternal}, "")
		return errorResponse(c, err)
	}

	record, err := h.IPOService.GetRecord(c.UserContext(), req.IPOID)
	if err != nil {
		return errorResponse(c, err)
	}

	result, err := h.Tracker.Initiate(c.UserContext(), h.Tracker.NewAttempt(*record, ""), credentialFrom(c))
	if err != nil {
		return errorResponse(c, err)
	}

	response := fiber.Map{
		"success":     true,
		"redirectUrl": result.RedirectURL,
		"reported":    result.Reported,
	}
	if result.Notice != "" {
		response["notice"] = result.Notice
	}
	return c.JSON(response)
}
