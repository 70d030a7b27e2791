package handlers

import (
	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/gofiber/fiber/v2"
)

type GMPHandler struct {
	Service *services.IPOService
}

func NewGMPHandler(service *services.IPOService) *GMPHandler {
	return &GMPHandler{Service: service}
}

// GetGMPByIPO returns the analysis and history of an offering's GMP series.
// An empty series is reported with hasData false rather than as zero.
func (h *GMPHandler) GetGMPByIPO(c *fiber.Ctx) error {
	record, err := h.Service.GetRecord(c.UserContext(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	analysis, ok := services.AnalyzeGMP(record.GMP, record.PriceRange.Max.Decimal)
	data := fiber.Map{
		"ipoId":       record.Identifier(),
		"companyName": record.CompanyName,
		"priceRange":  record.PriceRange,
		"lotSize":     record.LotSize,
		"hasData":     ok,
		"history":     services.GMPHistory(record.GMP),
	}
	if ok {
		data["analysis"] = analysis
		data["estimatedProfit"] = models.Amount{Decimal: services.EstimatedProfit(analysis.Latest.Value.Decimal, record.LotSize.Decimal)}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
