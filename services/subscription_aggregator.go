package services

import (
	"github.com/fenilmodi00/ipo-insights/models"
	"github.com/shopspring/decimal"
)

// MultiplierPlaces is the precision of every published multiplier
const MultiplierPlaces = 2

// pooledShareCategories always contribute to the share-view total
var pooledShareCategories = []models.InvestorCategory{
	models.CategoryQIB,
	models.CategoryNII,
	models.CategoryRetail,
}

// AggregateShares computes the share-count view: one multiplier per category
// and the pooled total. The shareholder pool joins the total only when
// prefs.IncludeShareholder is set; its own multiplier is always reported.
func AggregateShares(counts models.CategoryShareCounts, prefs models.SubscriptionPreferences) models.ShareAggregation {
	perCategory := make(models.CategoryMultipliers, 4)
	for _, category := range models.InvestorCategories() {
		c := counts.Get(category)
		perCategory[category] = models.Amount{Decimal: Multiplier(nonNegative(c.Subscribed), nonNegative(c.Offered))}
	}

	pooled := pooledShareCategories
	if prefs.IncludeShareholder {
		pooled = append(append([]models.InvestorCategory{}, pooledShareCategories...), models.CategoryShareholder)
	}

	totalOffered := decimal.Zero
	totalSubscribed := decimal.Zero
	for _, category := range pooled {
		c := counts.Get(category)
		totalOffered = totalOffered.Add(nonNegative(c.Offered))
		totalSubscribed = totalSubscribed.Add(nonNegative(c.Subscribed))
	}

	unit := prefs.SharesUnit
	if unit == "" {
		unit = models.SharesUnitLakhs
	}

	return models.ShareAggregation{
		PerCategory:        perCategory,
		Total:              models.Amount{Decimal: Multiplier(totalSubscribed, totalOffered)},
		TotalOffered:       models.Amount{Decimal: totalOffered},
		TotalSubscribed:    models.Amount{Decimal: totalSubscribed},
		IncludeShareholder: prefs.IncludeShareholder,
		SharesUnit:         unit,
	}
}

// AggregateApplications computes the application-count view. The total pools
// every category with applications on offer; there is no inclusion toggle.
func AggregateApplications(counts models.CategoryApplicationCounts) models.ApplicationAggregation {
	perCategory := make(models.CategoryMultipliers, 4)
	totalOffered := decimal.Zero
	totalReceived := decimal.Zero

	for _, category := range models.InvestorCategories() {
		c := counts.Get(category)
		offered := nonNegative(c.Offered)
		received := nonNegative(c.Received)
		perCategory[category] = models.Amount{Decimal: Multiplier(received, offered)}

		if offered.IsPositive() {
			totalOffered = totalOffered.Add(offered)
			totalReceived = totalReceived.Add(received)
		}
	}

	return models.ApplicationAggregation{
		PerCategory:   perCategory,
		Total:         models.Amount{Decimal: Multiplier(totalReceived, totalOffered)},
		TotalOffered:  models.Amount{Decimal: totalOffered},
		TotalReceived: models.Amount{Decimal: totalReceived},
	}
}

// Multiplier is demand over supply rounded half-up to two places, or zero
// when nothing was offered.
func Multiplier(demand, offered decimal.Decimal) decimal.Decimal {
	if !offered.IsPositive() {
		return decimal.Zero
	}
	if demand.IsNegative() {
		demand = decimal.Zero
	}
	return demand.DivRound(offered, MultiplierPlaces)
}

// BuildSubscriptionUpdate turns the figures entered in the admin console into
// the backend update: the stored multiplier block is derived from the share
// counts and the figures are sent along unchanged.
func BuildSubscriptionUpdate(details models.SubscriptionDetails) models.SubscriptionUpdate {
	prefs := details.Preferences()
	details.SharesUnit = prefs.SharesUnit

	shares := AggregateShares(details.ShareCounts(), prefs)
	summary := models.SubscriptionSummary{
		QIB:         shares.PerCategory[models.CategoryQIB],
		NII:         shares.PerCategory[models.CategoryNII],
		Retail:      shares.PerCategory[models.CategoryRetail],
		Shareholder: shares.PerCategory[models.CategoryShareholder],
		Total:       shares.Total,
	}

	return models.SubscriptionUpdate{
		Subscription:        &summary,
		SubscriptionDetails: &details,
	}
}

func nonNegative(q models.Quantity) decimal.Decimal {
	if q.Decimal.IsNegative() {
		return decimal.Zero
	}
	return q.Decimal
}
