package validation

import (
	"context"

	"github.com/uftp-network/uftp-engine/internal/uftp"
)

func findOrderedOffer(ctx context.Context, store uftp.MessageStore, env uftp.Envelope, order *uftp.FlexOrder) (*uftp.FlexOffer, bool, error) {
	return FindReferenced[*uftp.FlexOffer](ctx, store, env, order.FlexOfferMessageID, uftp.TypeFlexOffer)
}

// orderedOption returns the offer option an order buys: the one matching OptionReference, or
// the only option when no reference is given. ok is false when no single option qualifies.
func orderedOption(offer *uftp.FlexOffer, order *uftp.FlexOrder) (uftp.FlexOfferOption, bool) {
	if order.OptionReference == "" {
		if len(offer.OfferOptions) != 1 {
			return uftp.FlexOfferOption{}, false
		}
		return offer.OfferOptions[0], true
	}

	var match uftp.FlexOfferOption
	count := 0
	for _, option := range offer.OfferOptions {
		if option.OptionReference == order.OptionReference {
			match = option
			count++
		}
	}
	return match, count == 1
}

// NewFlexOrderIspMatchValidator requires the order's ISPs to be exactly the ISPs of an offer
// option: every order ISP matches one option ISP by start and duration, and the counts are equal.
// When the order names an option only that option is considered.
func NewFlexOrderIspMatchValidator(store uftp.MessageStore) Validator {
	return newRule("FlexOrderIspMatchValidator", OrderSpecMessageSpecific, ReasonOrderIspMismatch,
		[]uftp.MessageType{uftp.TypeFlexOrder},
		forType(func(ctx context.Context, env uftp.Envelope, order *uftp.FlexOrder) (bool, error) {
			offer, found, err := findOrderedOffer(ctx, store, env, order)
			if err != nil || !found {
				return false, err
			}

			ordered := powerIntervals(order.ISPs)
			for _, option := range offer.OfferOptions {
				if order.OptionReference != "" && option.OptionReference != order.OptionReference {
					continue
				}
				if sameIntervals(ordered, powerIntervals(option.ISPs)) {
					return true, nil
				}
			}
			return false, nil
		}))
}

func sameIntervals(a, b []uftp.Interval) bool {
	if len(a) != len(b) {
		return false
	}
	remaining := make(map[uftp.Interval]int, len(b))
	for _, i := range b {
		remaining[i]++
	}
	for _, i := range a {
		if remaining[i] == 0 {
			return false
		}
		remaining[i]--
	}
	return true
}

// NewFlexOrderFlexibilityMatchValidator requires every order ISP to carry the same power as
// the matching ISP of the ordered option.
func NewFlexOrderFlexibilityMatchValidator(store uftp.MessageStore) Validator {
	return newRule("FlexOrderFlexibilityMatchValidator", OrderSpecMessageSpecific, ReasonOrderFlexMismatch,
		[]uftp.MessageType{uftp.TypeFlexOrder},
		forType(func(ctx context.Context, env uftp.Envelope, order *uftp.FlexOrder) (bool, error) {
			offer, found, err := findOrderedOffer(ctx, store, env, order)
			if err != nil || !found {
				return false, err
			}
			option, ok := orderedOption(offer, order)
			if !ok {
				return false, nil
			}

			power := make(map[uftp.Interval]int64, len(option.ISPs))
			for _, isp := range option.ISPs {
				power[isp.Interval()] = isp.Power
			}
			for _, isp := range order.ISPs {
				p, ok := power[isp.Interval()]
				if !ok || p != isp.Power {
					return false, nil
				}
			}
			return true, nil
		}))
}

// NewFlexOrderPriceMatchValidator requires the order price to equal the ordered option's price.
// Prices are compared numerically, so 10.5 equals 10.50.
func NewFlexOrderPriceMatchValidator(store uftp.MessageStore) Validator {
	return newRule("FlexOrderPriceMatchValidator", OrderSpecMessageSpecific, ReasonOrderPrice,
		[]uftp.MessageType{uftp.TypeFlexOrder},
		forType(func(ctx context.Context, env uftp.Envelope, order *uftp.FlexOrder) (bool, error) {
			offer, found, err := findOrderedOffer(ctx, store, env, order)
			if err != nil || !found {
				return false, err
			}
			option, ok := orderedOption(offer, order)
			if !ok {
				return false, nil
			}

			orderPrice, err := order.Price.Decimal()
			if err != nil {
				return false, nil
			}
			optionPrice, err := option.Price.Decimal()
			if err != nil {
				return false, nil
			}
			return orderPrice.Equal(optionPrice), nil
		}))
}

// NewFlexOfferNotRevokedValidator rejects orders for offers that have been revoked.
func NewFlexOfferNotRevokedValidator(store uftp.MessageStore) Validator {
	return newRule("FlexOfferNotRevokedValidator", OrderSpecMessageSpecific, ReasonOfferRevoked,
		[]uftp.MessageType{uftp.TypeFlexOrder},
		forType(func(ctx context.Context, _ uftp.Envelope, order *uftp.FlexOrder) (bool, error) {
			// the revocation travels with the offer, from the order's recipient to its sender
			rev, err := store.FindFlexRevocation(ctx, order.ConversationID, order.FlexOfferMessageID,
				order.RecipientDomain, order.SenderDomain)
			if err != nil {
				if errorsIsNotFound(err) {
					return true, nil
				}
				return false, uftp.WrapInternalError(err, "failed to look up flex offer revocation")
			}
			return rev == nil, nil
		}))
}
