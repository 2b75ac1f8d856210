// Package isptime provides DST-aware calculations for ISP (interval settlement period) boundaries.
//
// ISPs are numbered from 1 and are laid out back to back from local midnight of the period day.
// Arithmetic is done on absolute instants, so an ISP that spans a DST transition keeps its fixed
// length and the number of ISPs in a day follows the day's wall-clock length (92, 96 or 100
// quarter hours in zones with a one hour shift).
package isptime

import (
	"errors"
	"fmt"
	"math"
	"time"
	_ "time/tzdata"
)

var (
	// ErrUnknownTimeZone is returned when a zone name is not in the tz database.
	ErrUnknownTimeZone = errors.New("unknown time zone")

	// ErrInvalidISP is returned for non-positive ISP indexes or durations.
	ErrInvalidISP = errors.New("invalid ISP")

	// ErrInvalidPeriod is returned for period dates that are not xs:date values.
	ErrInvalidPeriod = errors.New("invalid period")
)

// periodLayout is the layout of an xs:date period without offset.
const periodLayout = "2006-01-02"

// LoadZone resolves an IANA time zone name.
func LoadZone(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownTimeZone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTimeZone, zone)
	}
	return loc, nil
}

// ToZonedDateTime attaches the named zone to t. The instant is unchanged.
func ToZonedDateTime(t time.Time, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

// StartOfDay returns local midnight of the day containing t, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LengthOfDay returns the wall-clock length of the day containing t in t's location:
// 24h on ordinary days, 23h or 25h on DST transition days.
func LengthOfDay(t time.Time) time.Duration {
	start := StartOfDay(t)
	y, m, d := start.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, start.Location())
	return next.Sub(start)
}

// IspEndInDay returns the end instant of ISP ispIndex (1-based) of the day containing day in zone.
// Indexes beyond the number of ISPs in the day continue into the following days.
func IspEndInDay(day time.Time, zone string, ispIndex int, ispDuration time.Duration) (time.Time, error) {
	if ispIndex < 1 || ispDuration <= 0 {
		return time.Time{}, fmt.Errorf("%w: index %d, duration %s", ErrInvalidISP, ispIndex, ispDuration)
	}
	if int64(ispIndex) > math.MaxInt64/int64(ispDuration) {
		return time.Time{}, fmt.Errorf("%w: index %d of %s overflows", ErrInvalidISP, ispIndex, ispDuration)
	}
	zoned, err := ToZonedDateTime(day, zone)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(zoned).Add(time.Duration(ispIndex) * ispDuration), nil
}

// IspStartInDay returns the start instant of ISP ispIndex (1-based).
func IspStartInDay(day time.Time, zone string, ispIndex int, ispDuration time.Duration) (time.Time, error) {
	end, err := IspEndInDay(day, zone, ispIndex, ispDuration)
	if err != nil {
		return time.Time{}, err
	}
	return end.Add(-ispDuration), nil
}

// IspsInDay returns the number of whole ISPs in the day containing day in zone.
func IspsInDay(day time.Time, zone string, ispDuration time.Duration) (int, error) {
	if ispDuration <= 0 {
		return 0, fmt.Errorf("%w: duration %s", ErrInvalidISP, ispDuration)
	}
	zoned, err := ToZonedDateTime(day, zone)
	if err != nil {
		return 0, err
	}
	return int(LengthOfDay(zoned) / ispDuration), nil
}

// ParsePeriod returns local midnight of an xs:date period (e.g. 2022-03-27) in zone.
func ParsePeriod(period, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(periodLayout, period, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return t, nil
}

// ISP is one interval of a day with its absolute boundaries.
type ISP struct {
	Index int
	Start time.Time
	End   time.Time
}

// IspsOfDay lists every ISP of the period day in zone.
func IspsOfDay(period, zone string, ispDuration time.Duration) ([]ISP, error) {
	day, err := ParsePeriod(period, zone)
	if err != nil {
		return nil, err
	}
	n, err := IspsInDay(day, zone, ispDuration)
	if err != nil {
		return nil, err
	}

	isps := make([]ISP, 0, n)
	start := day
	for i := 1; i <= n; i++ {
		end := start.Add(ispDuration)
		isps = append(isps, ISP{Index: i, Start: start, End: end})
		start = end
	}
	return isps, nil
}
