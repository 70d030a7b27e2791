package services

import (
	"regexp"
	"strings"
	"time"
)

// DefaultMarketTimezone is the exchange time zone phase boundaries are evaluated in
const DefaultMarketTimezone = "Asia/Kolkata"

var (
	panPattern        = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// dateOnlyFormats carry no time of day; their calendar date is used as written
var dateOnlyFormats = []string{
	"2006-01-02",
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"02 Jan 2006",
	"2-Jan-06",
}

// timestampFormats are converted to the market zone before the date is taken
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05Z0700",
}

// zonelessTimestampFormats are read as market-local wall clock
var zonelessTimestampFormats = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UtilityService provides date and text normalization shared by the engine
type UtilityService struct {
	location *time.Location
}

// NewUtilityService creates a utility service evaluating calendar dates in location.
// A nil location falls back to the market zone.
func NewUtilityService(location *time.Location) *UtilityService {
	if location == nil {
		location = LoadMarketLocation(DefaultMarketTimezone)
	}
	return &UtilityService{location: location}
}

// LoadMarketLocation resolves a zone name. India has no DST so a fixed +05:30
// offset stands in when the zone database is unavailable.
func LoadMarketLocation(name string) *time.Location {
	if name == "" {
		name = DefaultMarketTimezone
	}
	if location, err := time.LoadLocation(name); err == nil {
		return location
	}
	return time.FixedZone("IST", 5*60*60+30*60)
}

// Location returns the market time zone
func (s *UtilityService) Location() *time.Location {
	return s.location
}

// ParseCalendarDate extracts the market calendar date of a backend date field.
// Date-only values keep their written date; timestamps are first converted to
// the market zone.
func (s *UtilityService) ParseCalendarDate(dateStr string) (int, time.Month, int, bool) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" || s.IsNotAvailable(dateStr) {
		return 0, 0, 0, false
	}

	for _, format := range timestampFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			y, m, d := t.In(s.location).Date()
			return y, m, d, true
		}
	}

	for _, format := range zonelessTimestampFormats {
		if t, err := time.ParseInLocation(format, dateStr, s.location); err == nil {
			y, m, d := t.Date()
			return y, m, d, true
		}
	}

	for _, format := range dateOnlyFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			y, m, d := t.Date()
			return y, m, d, true
		}
	}

	return 0, 0, 0, false
}

// AtMarketTime returns the instant hour:minute on the calendar date of dateStr
func (s *UtilityService) AtMarketTime(dateStr string, hour, minute int) (time.Time, bool) {
	y, m, d, ok := s.ParseCalendarDate(dateStr)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(y, m, d, hour, minute, 0, 0, s.location), true
}

// ParseInstant parses a backend date field as an absolute instant, used for
// ordering. Date-only values are taken at market midnight.
func (s *UtilityService) ParseInstant(dateStr string) (time.Time, bool) {
	dateStr = strings.TrimSpace(dateStr)
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, true
		}
	}
	return s.AtMarketTime(dateStr, 0, 0)
}

// NormalizeTextContent collapses whitespace and trims
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// IsNotAvailable detects placeholders like "TBA" or "N/A"
func (s *UtilityService) IsNotAvailable(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))

	notAvailableValues := []string{
		"tba",
		"to be announced",
		"tbd",
		"n/a",
		"na",
		"not available",
		"--",
		"-",
		"",
		"nil",
		"null",
		"invalid date",
	}

	for _, na := range notAvailableValues {
		if text == na {
			return true
		}
	}

	return false
}

// NormalizePAN trims and upper-cases a PAN before validation
func NormalizePAN(pan string) string {
	return strings.ToUpper(strings.TrimSpace(pan))
}

// IsValidPAN reports whether pan, already normalized, is a 10 character PAN
func IsValidPAN(pan string) bool {
	return len(pan) == 10 && panPattern.MatchString(pan)
}
