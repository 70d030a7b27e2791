package models

import "strings"

// InvestorCategory is one of the four fixed allocation pools
type InvestorCategory string

const (
	CategoryQIB         InvestorCategory = "qib"
	CategoryNII         InvestorCategory = "nii"
	CategoryRetail      InvestorCategory = "retail"
	CategoryShareholder InvestorCategory = "shareholder"
)

// InvestorCategories returns the four categories in display order
func InvestorCategories() [4]InvestorCategory {
	return [4]InvestorCategory{CategoryQIB, CategoryNII, CategoryRetail, CategoryShareholder}
}

// SharesUnit is the unit the admin console enters share counts in. It is a
// display label only; multipliers are unit-free.
type SharesUnit string

const (
	SharesUnitUnits     SharesUnit = "Units"
	SharesUnitThousands SharesUnit = "Thousands"
	SharesUnitLakhs     SharesUnit = "Lakhs"
	SharesUnitCrores    SharesUnit = "Crores"
)

// NormalizeSharesUnit maps free text to a known unit, defaulting to Lakhs
func NormalizeSharesUnit(s string) SharesUnit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "units", "unit", "shares":
		return SharesUnitUnits
	case "thousands", "thousand", "k":
		return SharesUnitThousands
	case "crores", "crore", "cr":
		return SharesUnitCrores
	default:
		return SharesUnitLakhs
	}
}

type SubscriptionPreferences struct {
	SharesUnit         SharesUnit `json:"sharesUnit"`
	IncludeShareholder bool       `json:"includeShareholder"`
}

// ShareCount is the share-count view of one category
type ShareCount struct {
	Offered    Quantity `json:"offered"`
	Subscribed Quantity `json:"subscribed"`
}

// ApplicationCount is the application-count view of one category
type ApplicationCount struct {
	Offered  Quantity `json:"offered"`
	Received Quantity `json:"received"`
}

func (c *ApplicationCount) orZero() ApplicationCount {
	if c == nil {
		return ApplicationCount{}
	}
	return *c
}

type CategoryShareCounts struct {
	QIB         ShareCount `json:"qib"`
	NII         ShareCount `json:"nii"`
	Retail      ShareCount `json:"retail"`
	Shareholder ShareCount `json:"shareholder"`
}

// Get returns the counts for a category
func (c CategoryShareCounts) Get(category InvestorCategory) ShareCount {
	switch category {
	case CategoryQIB:
		return c.QIB
	case CategoryNII:
		return c.NII
	case CategoryRetail:
		return c.Retail
	case CategoryShareholder:
		return c.Shareholder
	}
	return ShareCount{}
}

type CategoryApplicationCounts struct {
	QIB         ApplicationCount `json:"qib"`
	NII         ApplicationCount `json:"nii"`
	Retail      ApplicationCount `json:"retail"`
	Shareholder ApplicationCount `json:"shareholder"`
}

// Get returns the counts for a category
func (c CategoryApplicationCounts) Get(category InvestorCategory) ApplicationCount {
	switch category {
	case CategoryQIB:
		return c.QIB
	case CategoryNII:
		return c.NII
	case CategoryRetail:
		return c.Retail
	case CategoryShareholder:
		return c.Shareholder
	}
	return ApplicationCount{}
}

// CategoryFigures is the per-category layout used by sharesOffered/sharesSubscribed
type CategoryFigures struct {
	QIB         Quantity `json:"qib"`
	NII         Quantity `json:"nii"`
	Retail      Quantity `json:"retail"`
	Shareholder Quantity `json:"shareholder"`
}

// SubscriptionDetails is the raw figures block stored on an IPO. Application
// counts are nil when they were not entered, so a share-only update leaves
// the stored counts alone.
type SubscriptionDetails struct {
	SharesOffered           CategoryFigures   `json:"sharesOffered"`
	SharesSubscribed        CategoryFigures   `json:"sharesSubscribed"`
	QIB                     *ApplicationCount `json:"qib,omitempty"`
	NII                     *ApplicationCount `json:"nii,omitempty"`
	Retail                  *ApplicationCount `json:"retail,omitempty"`
	Shareholder             *ApplicationCount `json:"shareholder,omitempty"`
	SharesUnit              SharesUnit        `json:"sharesUnit,omitempty"`
	ShowShareholderCategory bool              `json:"showShareholderCategory"`
}

// ShareCounts pairs offered and subscribed figures per category
func (d SubscriptionDetails) ShareCounts() CategoryShareCounts {
	return CategoryShareCounts{
		QIB:         ShareCount{Offered: d.SharesOffered.QIB, Subscribed: d.SharesSubscribed.QIB},
		NII:         ShareCount{Offered: d.SharesOffered.NII, Subscribed: d.SharesSubscribed.NII},
		Retail:      ShareCount{Offered: d.SharesOffered.Retail, Subscribed: d.SharesSubscribed.Retail},
		Shareholder: ShareCount{Offered: d.SharesOffered.Shareholder, Subscribed: d.SharesSubscribed.Shareholder},
	}
}

func (d SubscriptionDetails) ApplicationCounts() CategoryApplicationCounts {
	return CategoryApplicationCounts{
		QIB:         d.QIB.orZero(),
		NII:         d.NII.orZero(),
		Retail:      d.Retail.orZero(),
		Shareholder: d.Shareholder.orZero(),
	}
}

func (d SubscriptionDetails) Preferences() SubscriptionPreferences {
	return SubscriptionPreferences{
		SharesUnit:         NormalizeSharesUnit(string(d.SharesUnit)),
		IncludeShareholder: d.ShowShareholderCategory,
	}
}

// SubscriptionSummary is the stored multiplier block (subscription{...} on the wire)
type SubscriptionSummary struct {
	QIB         Amount `json:"qib"`
	NII         Amount `json:"nii"`
	Retail      Amount `json:"retail"`
	Shareholder Amount `json:"shareholder"`
	Total       Amount `json:"total"`
}

// CategoryMultipliers holds one rounded multiplier per category
type CategoryMultipliers map[InvestorCategory]Amount

// ShareAggregation is the share-count view: per-category multipliers and the
// pooled total under the shareholder inclusion preference.
type ShareAggregation struct {
	PerCategory        CategoryMultipliers `json:"perCategory"`
	Total              Amount              `json:"total"`
	TotalOffered       Amount              `json:"totalOffered"`
	TotalSubscribed    Amount              `json:"totalSubscribed"`
	IncludeShareholder bool                `json:"includeShareholder"`
	SharesUnit         SharesUnit          `json:"sharesUnit"`
}

// ApplicationAggregation is the application-count view
type ApplicationAggregation struct {
	PerCategory   CategoryMultipliers `json:"perCategory"`
	Total         Amount              `json:"total"`
	TotalOffered  Amount              `json:"totalOffered"`
	TotalReceived Amount              `json:"totalReceived"`
}

// SubscriptionUpdate is the body of PUT /admin/ipos/:id for subscription edits
type SubscriptionUpdate struct {
	Subscription        *SubscriptionSummary `json:"subscription,omitempty"`
	SubscriptionDetails *SubscriptionDetails `json:"subscriptionDetails,omitempty"`
}
