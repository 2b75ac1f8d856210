package validation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// NewCurrencyValidator requires an ISO 4217 currency on offers and orders.
func NewCurrencyValidator() Validator {
	return newRule("CurrencyValidator", OrderSpecMessageSpecific, ReasonUnknownCurrency,
		[]uftp.MessageType{uftp.TypeFlexOffer, uftp.TypeFlexOrder},
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			switch m := env.Payload.(type) {
			case *uftp.FlexOffer:
				return validCurrency(m.Currency), nil
			case *uftp.FlexOrder:
				return validCurrency(m.Currency), nil
			default:
				return false, uftp.NewInternalError("currency check applied to a message without currency")
			}
		})
}

func validCurrency(code string) bool {
	_, ok := isoCurrency(code)
	return ok
}

// isoCurrency parses an upper-case ISO 4217 code. ParseISO alone also accepts "eur".
func isoCurrency(code string) (currency.Unit, bool) {
	unit, err := currency.ParseISO(code)
	if err != nil || unit.String() != code {
		return currency.Unit{}, false
	}
	return unit, true
}

// NewPriceScaleValidator requires every offered price to have exactly the currency's number of
// fraction digits (two for EUR, none for JPY).
func NewPriceScaleValidator() Validator {
	return newRule("PriceScaleValidator", OrderSpecMessageSpecific, ReasonPriceScale,
		[]uftp.MessageType{uftp.TypeFlexOffer},
		forType(func(_ context.Context, _ uftp.Envelope, offer *uftp.FlexOffer) (bool, error) {
			unit, ok := isoCurrency(offer.Currency)
			if !ok {
				return false, nil
			}
			digits, _ := currency.Standard.Rounding(unit)

			for _, option := range offer.OfferOptions {
				price, err := option.Price.Decimal()
				if err != nil || scale(price) != digits {
					return false, nil
				}
			}
			return true, nil
		}))
}

func scale(d decimal.Decimal) int {
	if exp := d.Exponent(); exp < 0 {
		return int(-exp)
	}
	return 0
}

// NewMinActivationFactorValidator requires 0 < MinActivationFactor <= 1 where present.
func NewMinActivationFactorValidator() Validator {
	one := decimal.NewFromInt(1)
	return newRule("MinActivationFactorValidator", OrderSpecMessageSpecific, ReasonActivationFactor,
		[]uftp.MessageType{uftp.TypeFlexOffer},
		forType(func(_ context.Context, _ uftp.Envelope, offer *uftp.FlexOffer) (bool, error) {
			for _, option := range offer.OfferOptions {
				if !option.MinActivationFactor.IsSet() {
					continue
				}
				v, err := option.MinActivationFactor.Decimal()
				if err != nil || !v.IsPositive() || v.GreaterThan(one) {
					return false, nil
				}
			}
			return true, nil
		}))
}

// NewActiveFlexRequestValidator requires the FlexRequest a solicited offer answers to exist
// and not be expired. Unsolicited offers pass.
func NewActiveFlexRequestValidator(store uftp.MessageStore, now func() time.Time) Validator {
	return newRule("ActiveFlexRequestValidator", OrderSpecMessageSpecific, ReasonInactiveRequest,
		[]uftp.MessageType{uftp.TypeFlexOffer},
		forType(func(ctx context.Context, env uftp.Envelope, offer *uftp.FlexOffer) (bool, error) {
			if offer.FlexRequestMessageID == "" {
				return true, nil
			}
			req, found, err := FindReferenced[*uftp.FlexRequest](ctx, store, env, offer.FlexRequestMessageID, uftp.TypeFlexRequest)
			if err != nil || !found {
				return false, err
			}
			return req.ExpirationDateTime.After(now()), nil
		}))
}

// NewFlexOptionRequestMatchValidator requires a solicited offer to cover at least one
// Requested ISP of the FlexRequest with one of its option ISPs (same start and duration).
func NewFlexOptionRequestMatchValidator(store uftp.MessageStore) Validator {
	return newRule("FlexOptionRequestMatchValidator", OrderSpecMessageSpecific, ReasonOptionNoMatch,
		[]uftp.MessageType{uftp.TypeFlexOffer},
		forType(func(ctx context.Context, env uftp.Envelope, offer *uftp.FlexOffer) (bool, error) {
			if offer.FlexRequestMessageID == "" {
				return true, nil
			}
			req, found, err := FindReferenced[*uftp.FlexRequest](ctx, store, env, offer.FlexRequestMessageID, uftp.TypeFlexRequest)
			if err != nil || !found {
				return false, err
			}

			offered := make(map[uftp.Interval]struct{})
			for _, option := range offer.OfferOptions {
				for _, isp := range option.ISPs {
					offered[isp.Interval()] = struct{}{}
				}
			}
			for _, isp := range req.ISPs {
				if isp.Disposition != uftp.DispositionRequested {
					continue
				}
				if _, ok := offered[isp.Interval()]; ok {
					return true, nil
				}
			}
			return false, nil
		}))
}
