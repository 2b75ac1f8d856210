package isptime

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

var (
	// ErrInvalidDuration is returned for strings that are not xs:duration values.
	ErrInvalidDuration = errors.New("invalid xs:duration")

	// ErrCalendarDuration is returned for durations with year or month components,
	// which have no fixed length without a reference date.
	ErrCalendarDuration = errors.New("xs:duration with years or months has no fixed length")
)

var xsdDuration = regexp.MustCompile(
	`^(-)?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseDuration converts an xs:duration such as PT15M or P1DT2H into a fixed duration.
// Days count as 24 hours.
func ParseDuration(s string) (time.Duration, error) {
	m := xsdDuration.FindStringSubmatch(s)
	// "P" and "PT" alone match the pattern but carry no component
	if m == nil || s == "P" || s == "-P" || s[len(s)-1] == 'T' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	if m[2] != "" || m[3] != "" {
		return 0, fmt.Errorf("%w: %q", ErrCalendarDuration, s)
	}

	var total float64
	units := []struct {
		value string
		unit  time.Duration
	}{
		{m[4], 24 * time.Hour},
		{m[5], time.Hour},
		{m[6], time.Minute},
		{m[7], time.Second},
	}
	for _, u := range units {
		if u.value == "" {
			continue
		}
		v, err := strconv.ParseFloat(u.value, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		total += v * float64(u.unit)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which no Duration can hold
	if total >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidDuration, s)
	}

	d := time.Duration(math.Round(total))
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

// FormatDuration renders d as an xs:duration in hours, minutes and seconds (e.g. PT15M).
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	out := sign + "PT"
	if h := d / time.Hour; h > 0 {
		out += strconv.FormatInt(int64(h), 10) + "H"
		d -= h * time.Hour
	}
	if m := d / time.Minute; m > 0 {
		out += strconv.FormatInt(int64(m), 10) + "M"
		d -= m * time.Minute
	}
	if d > 0 {
		out += strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "S"
	}
	return out
}
