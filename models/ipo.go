package models

import "strings"

// LifecyclePhase is the calendar-derived stage of an offering
type LifecyclePhase string

const (
	PhaseUpcoming LifecyclePhase = "upcoming"
	PhaseOpen     LifecyclePhase = "open"
	PhaseClosed   LifecyclePhase = "closed"
	PhaseListed   LifecyclePhase = "listed"
)

// ParseLifecyclePhase maps a filter string to a phase. "all" and unknown values return false.
func ParseLifecyclePhase(s string) (LifecyclePhase, bool) {
	switch LifecyclePhase(strings.ToLower(strings.TrimSpace(s))) {
	case PhaseUpcoming:
		return PhaseUpcoming, true
	case PhaseOpen:
		return PhaseOpen, true
	case PhaseClosed:
		return PhaseClosed, true
	case PhaseListed:
		return PhaseListed, true
	}
	return "", false
}

const (
	CategoryMainboard = "Mainboard"
	CategorySME       = "SME"
)

type PriceRange struct {
	Min Amount `json:"min"`
	Max Amount `json:"max"`
}

type ListingGain struct {
	Amount     Amount `json:"amount"`
	Percentage Amount `json:"percentage"`
}

// IPORecord is one offering as served by the backend. The engine treats it as
// an immutable snapshot; Status is the stored field and is never trusted for
// phase decisions.
type IPORecord struct {
	ID            string     `json:"_id"`
	AltID         string     `json:"id,omitempty"`
	CompanyName   string     `json:"companyName"`
	CompanyLogo   string     `json:"companyLogo,omitempty"`
	Symbol        string     `json:"symbol,omitempty"`
	Category      string     `json:"category"`
	Sector        string     `json:"sector,omitempty"`
	Registrar     string     `json:"registrar,omitempty"`
	AllotmentLink string     `json:"allotmentLink,omitempty"`
	PriceRange    PriceRange `json:"priceRange"`
	LotSize       Quantity   `json:"lotSize"`
	IssueSize     Amount     `json:"issueSize"`
	MinInvestment Amount     `json:"minInvestment"`

	// Calendar dates as sent by the backend (ISO timestamps or YYYY-MM-DD)
	OpenDate      string `json:"openDate,omitempty"`
	CloseDate     string `json:"closeDate,omitempty"`
	AllotmentDate string `json:"allotmentDate,omitempty"`
	ListingDate   string `json:"listingDate,omitempty"`

	Status              string              `json:"status,omitempty"`
	GMP                 []GMPQuote          `json:"gmp"`
	Subscription        SubscriptionSummary `json:"subscription"`
	SubscriptionDetails SubscriptionDetails `json:"subscriptionDetails"`
	ListingGain         *ListingGain        `json:"listingGain,omitempty"`
}

// Identifier prefers the document id and falls back to the plain id field
func (r IPORecord) Identifier() string {
	if r.ID != "" {
		return r.ID
	}
	return r.AltID
}

// HasAllotmentLink reports whether allotment is delegated to the registrar
func (r IPORecord) HasAllotmentLink() bool {
	return strings.TrimSpace(r.AllotmentLink) != ""
}

// IPOListResponse is the body of GET /ipos
type IPOListResponse struct {
	Success bool        `json:"success"`
	IPOs    []IPORecord `json:"ipos"`
	Error   string      `json:"error,omitempty"`
}

// IPODetailResponse is the body of GET /ipos/:id
type IPODetailResponse struct {
	IPO   *IPORecord `json:"ipo"`
	Error string     `json:"error,omitempty"`
}
