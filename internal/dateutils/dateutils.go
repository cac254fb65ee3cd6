// Package dateutils normalizes the many date and time spellings found in
// export files to ISO-8601.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// Common layouts.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutEuropean = "02.01.2006"
	DateLayoutSlash    = "02/01/2006"
	DateLayoutUS       = "01/02/2006"
	DateLayoutFull     = "2006-01-02 15:04:05"

	// ISOLayout is the rendering of every normalized timestamp.
	ISOLayout = "2006-01-02T15:04:05"
)

type layout struct {
	value   string
	hasZone bool
}

// cascade is tried in order; the first match wins. Day-first slash dates are
// tried before month-first ones.
var cascade = []layout{
	{value: DateLayoutFull},
	{value: DateLayoutISO},
	{value: DateLayoutSlash},
	{value: DateLayoutEuropean},
	{value: DateLayoutUS},
	{value: "2006-01-02 15:04"},
	{value: "02/01/2006 15:04"},
	{value: "02.01.2006 15:04"},
	{value: "02/01/2006 15:04:05"},
	{value: "02.01.2006 15:04:05"},
	{value: ISOLayout},
	{value: "2006-01-02T15:04:05Z"},
	{value: "2006-01-02T15:04:05.999999999Z"},
	{value: "2006-01-02T15:04:05.999999999"},
	{value: "2006-01-02T15:04:05.999999999-07:00", hasZone: true},
	{value: "2006-01-02 15:04:05.999999999"},
}

// CascadeLayouts returns the explicit layouts in the order they are tried.
func CascadeLayouts() []string {
	out := make([]string, len(cascade))
	for i, l := range cascade {
		out[i] = l.value
	}
	return out
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanDateString trims and collapses internal whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseDate tries the explicit layout cascade and returns the parsed time
// and the matching layout.
func ParseDate(dateStr string) (time.Time, string, error) {
	clean := CleanDateString(dateStr)
	for _, l := range cascade {
		if t, err := time.Parse(l.value, clean); err == nil {
			return t, l.value, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// Normalize converts a cell to an ISO-8601 timestamp. ok is false when the
// value is blank or no parser understood it.
func Normalize(value string) (string, bool) {
	clean := CleanDateString(value)
	if clean == "" {
		return "", false
	}

	for _, l := range cascade {
		if t, err := time.Parse(l.value, clean); err == nil {
			return FormatISO(t, l.hasZone), true
		}
	}

	if serial, err := strconv.ParseFloat(clean, 64); err == nil {
		if t, ok := fromExcelSerial(serial); ok {
			return FormatISO(t, false), true
		}
		// Other bare numbers are only dates as a year or a packed
		// yyyymmdd / unix stamp, which dateparse handles.
		if strings.ContainsAny(clean, ".,eE") || len(clean) < 4 {
			return "", false
		}
	}

	t, err := dateparse.ParseIn(clean, time.UTC)
	if err != nil {
		return "", false
	}
	return FormatISO(t, t.Location() != time.UTC), true
}

// FormatISO renders t as YYYY-MM-DDTHH:MM:SS with microseconds when they
// are non-zero and the zone offset when withZone is set.
func FormatISO(t time.Time, withZone bool) string {
	out := t.Format(ISOLayout)
	if micro := t.Nanosecond() / 1000; micro != 0 {
		out += fmt.Sprintf(".%06d", micro)
	}
	if withZone {
		out += t.Format("-07:00")
	}
	return out
}

// Serials below minExcelSerial (1954-10-03) are far more likely to be a
// year or an amount than a transaction date. The upper bound is 9999-12-31.
const (
	minExcelSerial = 20000
	maxExcelSerial = 2958465
)

func fromExcelSerial(serial float64) (time.Time, bool) {
	if serial < minExcelSerial || serial > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t.Round(time.Second), true
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	DateLayoutISO,
}

// IsISO8601 reports whether value is a timestamp in the form Normalize emits.
func IsISO8601(value string) bool {
	for _, l := range isoLayouts {
		if _, err := time.Parse(l, value); err == nil {
			return true
		}
	}
	return false
}

// ParseDay parses a YYYY-MM-DD configuration date.
func ParseDay(value string) (time.Time, error) {
	t, err := time.Parse(DateLayoutISO, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD).
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}
