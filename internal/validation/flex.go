package validation

import (
	"context"
	"slices"
	"time"

	"github.com/uftp-network/uftp-engine/internal/isptime"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// flexTypes are the message types carrying a flex header.
var flexTypes = []uftp.MessageType{
	uftp.TypeFlexRequest,
	uftp.TypeFlexOffer,
	uftp.TypeFlexOrder,
	uftp.TypeFlexReservationUpdate,
	uftp.TypeDPrognosis,
}

// ispGroups returns the ISP intervals of a flex message. Offers yield one group per option
// since options are alternatives; the other types yield a single group.
func ispGroups(msg uftp.Message) [][]uftp.Interval {
	switch m := msg.(type) {
	case *uftp.FlexRequest:
		group := make([]uftp.Interval, 0, len(m.ISPs))
		for _, isp := range m.ISPs {
			group = append(group, isp.Interval())
		}
		return [][]uftp.Interval{group}
	case *uftp.FlexOffer:
		groups := make([][]uftp.Interval, 0, len(m.OfferOptions))
		for _, option := range m.OfferOptions {
			groups = append(groups, powerIntervals(option.ISPs))
		}
		return groups
	case *uftp.FlexOrder:
		return [][]uftp.Interval{powerIntervals(m.ISPs)}
	case *uftp.FlexReservationUpdate:
		return [][]uftp.Interval{powerIntervals(m.ISPs)}
	case *uftp.DPrognosis:
		return [][]uftp.Interval{powerIntervals(m.ISPs)}
	default:
		return nil
	}
}

func powerIntervals(isps []uftp.PowerISP) []uftp.Interval {
	out := make([]uftp.Interval, 0, len(isps))
	for _, isp := range isps {
		out = append(out, isp.Interval())
	}
	return out
}

func flexHeader(env uftp.Envelope) (uftp.FlexHeader, bool) {
	fm, ok := env.Payload.(uftp.FlexMessage)
	if !ok {
		return uftp.FlexHeader{}, false
	}
	return fm.Flex(), true
}

// NewTimeZoneValidator rejects flex messages whose TimeZone is not an IANA zone.
func NewTimeZoneValidator() Validator {
	return newRule("TimeZoneValidator", OrderSpecFlexMessage, ReasonInvalidTimeZone, flexTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			h, ok := flexHeader(env)
			if !ok {
				return false, nil
			}
			_, err := isptime.LoadZone(h.TimeZone)
			return err == nil, nil
		})
}

// NewIspDurationValidator rejects flex messages whose ISP-Duration is not a fixed duration
// or, when agreed is positive, differs from it.
func NewIspDurationValidator(agreed time.Duration) Validator {
	return newRule("IspDurationValidator", OrderSpecFlexMessage, ReasonIspDuration, flexTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			h, ok := flexHeader(env)
			if !ok {
				return false, nil
			}
			d, err := isptime.ParseDuration(h.ISPDuration)
			if err != nil || d <= 0 {
				return false, nil
			}
			return agreed <= 0 || d == agreed, nil
		})
}

// NewPeriodValidator rejects flex messages whose Period is not an xs:date.
func NewPeriodValidator() Validator {
	return newRule("PeriodValidator", OrderSpecFlexMessage, ReasonInvalidPeriod, flexTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			h, ok := flexHeader(env)
			if !ok {
				return false, nil
			}
			_, err := time.Parse("2006-01-02", h.Period)
			return err == nil, nil
		})
}

// NewIspBoundsValidator rejects ISPs outside 1..n, where n is the number of ISPs in the Period
// day in the message's zone (92, 96 or 100 for quarter hours in Europe/Amsterdam).
// It runs after the header validators of its phase.
func NewIspBoundsValidator() Validator {
	return newRule("IspBoundsValidator", OrderSpecFlexMessage+10, ReasonIspOutOfBounds, flexTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			h, ok := flexHeader(env)
			if !ok {
				return false, nil
			}
			d, err := isptime.ParseDuration(h.ISPDuration)
			if err != nil {
				return false, nil
			}
			day, err := isptime.ParsePeriod(h.Period, h.TimeZone)
			if err != nil {
				return false, nil
			}
			n, err := isptime.IspsInDay(day, h.TimeZone, d)
			if err != nil {
				return false, nil
			}

			for _, group := range ispGroups(env.Payload) {
				for _, interval := range group {
					if interval.Start < 1 || interval.End() > n {
						return false, nil
					}
				}
			}
			return true, nil
		})
}

// NewIspOverlapValidator rejects messages in which two ISPs of the same group overlap.
func NewIspOverlapValidator() Validator {
	return newRule("IspOverlapValidator", OrderSpecFlexMessage+10, ReasonOverlappingIsps, flexTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			for _, group := range ispGroups(env.Payload) {
				if overlaps(group) {
					return false, nil
				}
			}
			return true, nil
		})
}

func overlaps(intervals []uftp.Interval) bool {
	sorted := slices.Clone(intervals)
	slices.SortFunc(sorted, func(a, b uftp.Interval) int { return a.Start - b.Start })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start <= sorted[i-1].End() {
			return true
		}
	}
	return false
}
