package validation

import (
	"context"

	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// NewIspRequestedDispositionValidator requires at least one Requested ISP in a FlexRequest.
func NewIspRequestedDispositionValidator() Validator {
	return newRule("IspRequestedDispositionValidator", OrderSpecMessageSpecific, ReasonNoRequestedIsp,
		[]uftp.MessageType{uftp.TypeFlexRequest},
		forType(func(_ context.Context, _ uftp.Envelope, req *uftp.FlexRequest) (bool, error) {
			for _, isp := range req.ISPs {
				if isp.Disposition == uftp.DispositionRequested {
					return true, nil
				}
			}
			return false, nil
		}))
}

// NewIspPowerDiscrepancyValidator rejects Requested ISPs asking for both directions at once.
func NewIspPowerDiscrepancyValidator() Validator {
	return newRule("IspPowerDiscrepancyValidator", OrderSpecMessageSpecific, ReasonPowerDiscrepancy,
		[]uftp.MessageType{uftp.TypeFlexRequest},
		forType(func(_ context.Context, _ uftp.Envelope, req *uftp.FlexRequest) (bool, error) {
			for _, isp := range req.ISPs {
				if isp.Disposition == uftp.DispositionRequested && isp.MinPower < 0 && isp.MaxPower > 0 {
					return false, nil
				}
			}
			return true, nil
		}))
}

// NewExpirationInFutureValidator requires ExpirationDateTime after TimeStamp on requests and offers.
func NewExpirationInFutureValidator() Validator {
	return newRule("ExpirationInFutureValidator", OrderSpecMessageSpecific, ReasonExpirationInPast,
		[]uftp.MessageType{uftp.TypeFlexRequest, uftp.TypeFlexOffer},
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			switch m := env.Payload.(type) {
			case *uftp.FlexRequest:
				return m.ExpirationDateTime.After(m.TimeStamp), nil
			case *uftp.FlexOffer:
				return m.ExpirationDateTime.After(m.TimeStamp), nil
			default:
				return false, uftp.NewInternalError("expiration check applied to a message without expiration")
			}
		})
}

// NewReferencedRequestValidator rejects incoming responses that do not answer a request this
// participant sent.
func NewReferencedRequestValidator(store uftp.MessageStore) Validator {
	responses := make([]uftp.MessageType, 0, len(allTypes))
	for _, t := range allTypes {
		if t.IsResponse() {
			responses = append(responses, t)
		}
	}

	return newRule("ReferencedRequestValidator", OrderSpecMessageSpecific, ReasonUnknownRequest, responses,
		func(ctx context.Context, env uftp.Envelope) (bool, error) {
			if env.Direction() != uftp.DirectionIncoming {
				return true, nil
			}
			resp, ok := env.Payload.(uftp.ResponseMessage)
			if !ok {
				return false, uftp.NewInternalError("response check applied to a request")
			}
			_, found, err := FindReferenced[uftp.Message](ctx, store, env, resp.ReferenceMessageID(), resp.RequestType())
			return found, err
		})
}
