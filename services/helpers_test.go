package services

import (
	"time"

	"github.com/fenilmodi00/ipo-insights/models"
)

var ist = time.FixedZone("IST", 5*60*60+30*60)

func newTestUtility() *UtilityService {
	return NewUtilityService(ist)
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, ist)
}

func sampleRecord() models.IPORecord {
	return models.IPORecord{
		ID:          "ipo-1",
		CompanyName: "Acme Technologies",
		Symbol:      "ACME",
		Category:    models.CategoryMainboard,
		PriceRange:  models.PriceRange{Min: models.NewAmount(95), Max: models.NewAmount(100)},
		LotSize:     models.NewQuantity(150),
		OpenDate:    "2024-06-03",
		CloseDate:   "2024-06-05",
		ListingDate: "2024-06-10",
		Status:      "listed",
	}
}
