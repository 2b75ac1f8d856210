package validation

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/net/idna"

	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// allTypes lists every message type, requests and responses.
var allTypes = []uftp.MessageType{
	uftp.TypeFlexRequest, uftp.TypeFlexOffer, uftp.TypeFlexOrder, uftp.TypeFlexOfferRevocation,
	uftp.TypeFlexReservationUpdate, uftp.TypeFlexSettlement, uftp.TypeDPrognosis, uftp.TypeMetering,
	uftp.TypeAGRPortfolioQuery, uftp.TypeAGRPortfolioUpdate, uftp.TypeDSOPortfolioQuery,
	uftp.TypeDSOPortfolioUpdate, uftp.TypeTestMessage,

	uftp.TypeFlexRequestResponse, uftp.TypeFlexOfferResponse, uftp.TypeFlexOrderResponse,
	uftp.TypeFlexOfferRevocationResponse, uftp.TypeFlexReservationUpdateResponse,
	uftp.TypeFlexSettlementResponse, uftp.TypeDPrognosisResponse, uftp.TypeMeteringResponse,
	uftp.TypeAGRPortfolioQueryResponse, uftp.TypeAGRPortfolioUpdateResponse,
	uftp.TypeDSOPortfolioQueryResponse, uftp.TypeDSOPortfolioUpdateResponse,
	uftp.TypeTestMessageResponse,
}

// senderRoles is the set of message types each role may send.
var senderRoles = map[uftp.Role][]uftp.MessageType{
	uftp.RoleAGR: {
		uftp.TypeFlexOffer, uftp.TypeFlexOfferRevocation, uftp.TypeDPrognosis, uftp.TypeMetering,
		uftp.TypeAGRPortfolioQuery, uftp.TypeAGRPortfolioUpdate,
		uftp.TypeFlexRequestResponse, uftp.TypeFlexOrderResponse,
		uftp.TypeFlexReservationUpdateResponse, uftp.TypeFlexSettlementResponse,
		uftp.TypeTestMessage, uftp.TypeTestMessageResponse,
	},
	uftp.RoleDSO: {
		uftp.TypeFlexRequest, uftp.TypeFlexOrder, uftp.TypeFlexReservationUpdate, uftp.TypeFlexSettlement,
		uftp.TypeDSOPortfolioQuery, uftp.TypeDSOPortfolioUpdate,
		uftp.TypeFlexOfferResponse, uftp.TypeFlexOfferRevocationResponse,
		uftp.TypeDPrognosisResponse, uftp.TypeMeteringResponse,
		uftp.TypeTestMessage, uftp.TypeTestMessageResponse,
	},
	uftp.RoleCRO: {
		uftp.TypeAGRPortfolioQueryResponse, uftp.TypeAGRPortfolioUpdateResponse,
		uftp.TypeDSOPortfolioQueryResponse, uftp.TypeDSOPortfolioUpdateResponse,
		uftp.TypeTestMessage, uftp.TypeTestMessageResponse,
	},
}

// domainProfile accepts host names made of letters, digits and hyphens, with IDNA mapping.
var domainProfile = idna.New(
	idna.MapForLookup(),
	idna.VerifyDNSLength(true),
	idna.StrictDomainName(true),
)

// NewMessageIDValidator rejects messages whose MessageID is not a UUID.
func NewMessageIDValidator() Validator {
	return newRule("MessageIDValidator", OrderSpecBase, ReasonInvalidMessageID, allTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			return uuid.Validate(env.Payload.Header().MessageID) == nil, nil
		})
}

// NewConversationIDValidator rejects messages whose ConversationID is not a UUID.
func NewConversationIDValidator() Validator {
	return newRule("ConversationIDValidator", OrderSpecBase, ReasonInvalidConversationID, allTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			return uuid.Validate(env.Payload.Header().ConversationID) == nil, nil
		})
}

// NewVersionValidator rejects messages with a Version not in supported.
func NewVersionValidator(supported []string) Validator {
	versions := slices.Clone(supported)
	return newRule("VersionValidator", OrderSpecBase, ReasonUnsupportedVersion, allTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			return slices.Contains(versions, env.Payload.Header().Version), nil
		})
}

// NewDomainValidator checks that sender and recipient are host names and that the payload
// sender matches the envelope sender.
func NewDomainValidator() Validator {
	return newRule("DomainValidator", OrderSpecBase, ReasonInvalidDomain, allTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			h := env.Payload.Header()
			if !validDomain(h.SenderDomain) || !validDomain(h.RecipientDomain) {
				return false, nil
			}
			return h.SenderDomain == env.Sender.Domain, nil
		})
}

func validDomain(domain string) bool {
	_, err := domainProfile.ToASCII(domain)
	return err == nil
}

// NewSenderRoleValidator rejects message types the sender's role may not send.
func NewSenderRoleValidator() Validator {
	return newRule("SenderRoleValidator", OrderSpecBase, ReasonSenderRole, allTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			return slices.Contains(senderRoles[env.Sender.Role], env.Payload.Type()), nil
		})
}

// NewRecipientValidator rejects incoming messages addressed to a domain not hosted here.
// Outgoing messages are not checked.
func NewRecipientValidator(hostedDomains []string) Validator {
	hosted := slices.Clone(hostedDomains)
	return newRule("RecipientValidator", OrderSpecBase, ReasonUnknownRecipient, allTypes,
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			if env.Direction() != uftp.DirectionIncoming {
				return true, nil
			}
			return slices.Contains(hosted, env.Payload.Header().RecipientDomain), nil
		})
}
