package models

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// AllotmentMode says who performs the lookup for an attempt
type AllotmentMode string

const (
	// ModeExternal delegates the lookup to the registrar's own site
	ModeExternal AllotmentMode = "external"
	// ModeInternal looks the PAN up through the backend
	ModeInternal AllotmentMode = "internal"
)

// AllotmentAttempt is created per user action and never persisted
type AllotmentAttempt struct {
	AttemptID    uuid.UUID     `json:"attemptId"`
	IPOID        string        `json:"ipoId"`
	IPOName      string        `json:"ipoName,omitempty"`
	Mode         AllotmentMode `json:"mode"`
	Registrar    string        `json:"registrar,omitempty"`
	RegistrarURL string        `json:"registrarUrl,omitempty"`
	PANCard      string        `json:"panCard,omitempty"`
}

// MarshalJSON writes the attempt with its PAN masked
func (a AllotmentAttempt) MarshalJSON() ([]byte, error) {
	type attempt AllotmentAttempt
	return json.Marshal(struct {
		attempt
		PANCard string `json:"panCard,omitempty"`
	}{attempt: attempt(a), PANCard: MaskPAN(a.PANCard)})
}

// MaskPAN keeps the first five and the last character of a PAN
func MaskPAN(pan string) string {
	pan = strings.TrimSpace(pan)
	if len(pan) <= 6 {
		return strings.Repeat("*", len(pan))
	}
	return pan[:5] + strings.Repeat("*", len(pan)-6) + pan[len(pan)-1:]
}

// AllotmentOutcome is the mutually exclusive result of a lookup
type AllotmentOutcome string

const (
	OutcomeAllotted    AllotmentOutcome = "allotted"
	OutcomeNotAllotted AllotmentOutcome = "not_allotted"
	OutcomePending     AllotmentOutcome = "pending"
	OutcomeNotFound    AllotmentOutcome = "not_found"

	// OutcomeCheckedExternal marks a registrar visit whose result the user has
	// not entered yet
	OutcomeCheckedExternal AllotmentOutcome = "checked_external"
)

const (
	TrackingStatusTracked   = "tracked"
	TrackingStatusAuthError = "auth_error"
)

// AllotmentDetails mirrors the allotment block of POST /allotment/check
type AllotmentDetails struct {
	Status            string   `json:"status"`
	IPOName           string   `json:"ipoName"`
	ApplicationNumber string   `json:"applicationNumber"`
	AppliedDate       string   `json:"appliedDate"`
	LotSize           Quantity `json:"lotSize"`
}

// AllotmentCheckRequest is the body of POST /allotment/check
type AllotmentCheckRequest struct {
	IPOID   string `json:"ipoId"`
	PANCard string `json:"panCard"`
}

// AllotmentCheckResponse is the body returned by POST /allotment/check
type AllotmentCheckResponse struct {
	Success        bool              `json:"success"`
	Found          bool              `json:"found"`
	Message        string            `json:"message,omitempty"`
	Error          string            `json:"error,omitempty"`
	Allotment      *AllotmentDetails `json:"allotment,omitempty"`
	TrackingStatus string            `json:"trackingStatus,omitempty"`
}

// ExternalVisitLog is the body of POST /allotment/log-external
type ExternalVisitLog struct {
	IPOID string `json:"ipoId"`
}

// AllotmentCheckResult carries what to render and, independently, whether
// the lookup was saved to the user's dashboard.
type AllotmentCheckResult struct {
	Attempt        AllotmentAttempt  `json:"attempt"`
	Outcome        AllotmentOutcome  `json:"outcome"`
	Allotment      *AllotmentDetails `json:"allotment,omitempty"`
	Message        string            `json:"message,omitempty"`
	TrackingStatus string            `json:"trackingStatus,omitempty"`
	Warning        string            `json:"warning,omitempty"`
}

// InitiateResult is returned after the registrar page was opened
type InitiateResult struct {
	Attempt     AllotmentAttempt `json:"attempt"`
	RedirectURL string           `json:"redirectUrl"`
	Reported    bool             `json:"reported"`
	Notice      string           `json:"notice,omitempty"`
}

// Application is one entry of GET /allotment/my-applications
type Application struct {
	ID                string           `json:"id"`
	IPO               *ApplicationIPO  `json:"ipo,omitempty"`
	ApplicationNumber string           `json:"applicationNumber"`
	AppliedDate       string           `json:"appliedDate"`
	LotSize           Quantity         `json:"lotSize"`
	Status            AllotmentOutcome `json:"status"`
}

// AwaitsManualResult reports whether the outcome comes from the user rather
// than a lookup: registrar visits and their EXT-/CHK- references.
func (a Application) AwaitsManualResult() bool {
	return a.Status == OutcomeCheckedExternal ||
		strings.HasPrefix(a.ApplicationNumber, "EXT-") ||
		strings.HasPrefix(a.ApplicationNumber, "CHK-")
}

type ApplicationIPO struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type ApplicationsResponse struct {
	Success      bool          `json:"success"`
	Applications []Application `json:"applications"`
	Error        string        `json:"error,omitempty"`
}

// ApplicationStatusUpdate is the body of POST /allotment/my-status. LotSize is
// the number of shares allotted and is zero unless Status is allotted.
type ApplicationStatusUpdate struct {
	ApplicationID string           `json:"applicationId"`
	Status        AllotmentOutcome `json:"status"`
	LotSize       Quantity         `json:"lotSize"`
}

// StatusUpdateResponse is the body returned by POST /allotment/my-status
type StatusUpdateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ApplicationStats are the dashboard counters
type ApplicationStats struct {
	TotalApplications int    `json:"totalApplications"`
	TotalAllotted     int    `json:"totalAllotted"`
	SharesAllotted    Amount `json:"sharesAllotted"`
}
