package validation

// Rejection reasons sent to peers in rejected responses.
const (
	ReasonInvalidMessageID      = "Invalid MessageID"
	ReasonInvalidConversationID = "Invalid ConversationID"
	ReasonUnsupportedVersion    = "Unsupported version"
	ReasonInvalidDomain         = "Invalid sender or recipient domain"
	ReasonSenderRole            = "Sender role is not allowed to send this message type"
	ReasonUnknownRecipient      = "Unknown recipient"

	ReasonInvalidTimeZone   = "Invalid TimeZone"
	ReasonIspDuration       = "ISP-Duration does not match the agreed ISP duration"
	ReasonInvalidPeriod     = "Invalid Period"
	ReasonIspOutOfBounds    = "ISP out of bounds for Period"
	ReasonOverlappingIsps   = "Overlapping ISPs"
	ReasonExpirationInPast  = "ExpirationDateTime must be after TimeStamp"
	ReasonUnknownRequest    = "Referenced request is unknown"
	ReasonUnknownCurrency   = "Currency is not a valid ISO 4217 code"
	ReasonPriceScale        = "Price scale does not match the currency's fraction digits"
	ReasonActivationFactor  = "MinActivationFactor must be greater than 0 and at most 1"
	ReasonNoRequestedIsp    = "FlexRequest must contain at least one ISP with Disposition Requested"
	ReasonPowerDiscrepancy  = "Requested ISP cannot have MinPower below 0 and MaxPower above 0"
	ReasonInactiveRequest   = "Referenced FlexRequest is unknown or has expired"
	ReasonOptionNoMatch     = "No FlexOffer option matches a requested ISP of the FlexRequest"
	ReasonOrderIspMismatch  = "FlexOrder ISPs do not match the FlexOffer ISPs"
	ReasonOrderFlexMismatch = "FlexOrder power does not match the ordered FlexOffer option"
	ReasonOrderPrice        = "FlexOrder price does not match the ordered FlexOffer option"
	ReasonOfferRevoked      = "Referenced FlexOffer has been revoked"
)
