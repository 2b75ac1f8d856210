package uftp

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MessageType is the runtime tag of a payload. Its value is the XML root element name.
type MessageType string

const (
	TypeFlexRequest           MessageType = "FlexRequest"
	TypeFlexOffer             MessageType = "FlexOffer"
	TypeFlexOrder             MessageType = "FlexOrder"
	TypeFlexOfferRevocation   MessageType = "FlexOfferRevocation"
	TypeFlexReservationUpdate MessageType = "FlexReservationUpdate"
	TypeFlexSettlement        MessageType = "FlexSettlement"
	TypeDPrognosis            MessageType = "D-Prognosis"
	TypeMetering              MessageType = "Metering"
	TypeAGRPortfolioQuery     MessageType = "AGRPortfolioQuery"
	TypeAGRPortfolioUpdate    MessageType = "AGRPortfolioUpdate"
	TypeDSOPortfolioQuery     MessageType = "DSOPortfolioQuery"
	TypeDSOPortfolioUpdate    MessageType = "DSOPortfolioUpdate"
	TypeTestMessage           MessageType = "TestMessage"

	TypeFlexRequestResponse           MessageType = "FlexRequestResponse"
	TypeFlexOfferResponse             MessageType = "FlexOfferResponse"
	TypeFlexOrderResponse             MessageType = "FlexOrderResponse"
	TypeFlexOfferRevocationResponse   MessageType = "FlexOfferRevocationResponse"
	TypeFlexReservationUpdateResponse MessageType = "FlexReservationUpdateResponse"
	TypeFlexSettlementResponse        MessageType = "FlexSettlementResponse"
	TypeDPrognosisResponse            MessageType = "D-PrognosisResponse"
	TypeMeteringResponse              MessageType = "MeteringResponse"
	TypeAGRPortfolioQueryResponse     MessageType = "AGRPortfolioQueryResponse"
	TypeAGRPortfolioUpdateResponse    MessageType = "AGRPortfolioUpdateResponse"
	TypeDSOPortfolioQueryResponse     MessageType = "DSOPortfolioQueryResponse"
	TypeDSOPortfolioUpdateResponse    MessageType = "DSOPortfolioUpdateResponse"
	TypeTestMessageResponse           MessageType = "TestMessageResponse"
)

// IsResponse reports whether the type is a *Response variant.
func (t MessageType) IsResponse() bool {
	_, ok := responseTypes[t]
	return ok
}

var responseTypes = map[MessageType]struct{}{
	TypeFlexRequestResponse:           {},
	TypeFlexOfferResponse:             {},
	TypeFlexOrderResponse:             {},
	TypeFlexOfferRevocationResponse:   {},
	TypeFlexReservationUpdateResponse: {},
	TypeFlexSettlementResponse:        {},
	TypeDPrognosisResponse:            {},
	TypeMeteringResponse:              {},
	TypeAGRPortfolioQueryResponse:     {},
	TypeAGRPortfolioUpdateResponse:    {},
	TypeDSOPortfolioQueryResponse:     {},
	TypeDSOPortfolioUpdateResponse:    {},
	TypeTestMessageResponse:           {},
}

// Message is implemented by every UFTP payload variant.
// The unexported marker keeps the set of variants closed to this package.
type Message interface {
	Type() MessageType
	Header() PayloadHeader
	isMessage()
}

// FlexMessage is implemented by the payloads that schedule flexibility over ISPs.
type FlexMessage interface {
	Message
	Flex() FlexHeader
}

// PayloadHeader holds the attributes common to every payload.
type PayloadHeader struct {
	Version         string    `xml:"Version,attr"`
	SenderDomain    string    `xml:"SenderDomain,attr"`
	RecipientDomain string    `xml:"RecipientDomain,attr"`
	TimeStamp       time.Time `xml:"TimeStamp,attr"`
	MessageID       string    `xml:"MessageID,attr"`
	ConversationID  string    `xml:"ConversationID,attr"`
}

func (h PayloadHeader) Header() PayloadHeader { return h }
func (PayloadHeader) isMessage()              {}

func (h *PayloadHeader) setHeader(n PayloadHeader) { *h = n }

// FillHeader sets the header fields a locally composed message may leave empty: the sender
// domain, a fresh message id, a fresh conversation id and the timestamp.
func FillHeader(msg Message, senderDomain string, now time.Time) error {
	setter, ok := msg.(interface{ setHeader(PayloadHeader) })
	if !ok {
		return NewInternalError(fmt.Sprintf("cannot set header of %T", msg))
	}

	h := msg.Header()
	if h.SenderDomain == "" {
		h.SenderDomain = senderDomain
	}
	if h.MessageID == "" {
		h.MessageID = uuid.NewString()
	}
	if h.ConversationID == "" {
		h.ConversationID = uuid.NewString()
	}
	if h.TimeStamp.IsZero() {
		h.TimeStamp = now
	}
	setter.setHeader(h)
	return nil
}

// FlexHeader adds the ISP scheduling attributes shared by flex messages.
type FlexHeader struct {
	PayloadHeader

	// ISPDuration is an XML schema duration, e.g. PT15M.
	ISPDuration string `xml:"ISP-Duration,attr"`

	// TimeZone is an IANA time zone name, e.g. Europe/Amsterdam.
	TimeZone string `xml:"TimeZone,attr"`

	// Period is the xs:date of the day the ISPs belong to.
	Period string `xml:"Period,attr"`

	CongestionPoint string `xml:"CongestionPoint,attr,omitempty"`
}

func (h FlexHeader) Flex() FlexHeader { return h }

// Interval identifies a run of ISPs by 1-based start index and length.
type Interval struct {
	Start    int
	Duration int
}

// End returns the index of the last ISP in the interval.
func (i Interval) End() int {
	return i.Start + i.Duration - 1
}

// span normalises the optional Duration attribute, which defaults to 1 on the wire.
func span(start, duration int) Interval {
	if duration < 1 {
		duration = 1
	}
	return Interval{Start: start, Duration: duration}
}

// Disposition marks whether a FlexRequest ISP asks for flexibility.
type Disposition string

const (
	DispositionRequested Disposition = "Requested"
	DispositionAvailable Disposition = "Available"
)

// FlexRequestISP is an ISP in a FlexRequest. Power values are in watts.
type FlexRequestISP struct {
	Disposition Disposition `xml:"Disposition,attr"`
	MinPower    int64       `xml:"MinPower,attr"`
	MaxPower    int64       `xml:"MaxPower,attr"`
	Start       int         `xml:"Start,attr"`
	Duration    int         `xml:"Duration,attr,omitempty"`
}

func (i FlexRequestISP) Interval() Interval { return span(i.Start, i.Duration) }

// PowerISP is an ISP carrying a single power value (offers, orders, prognoses, reservations).
type PowerISP struct {
	Power    int64 `xml:"Power,attr"`
	Start    int   `xml:"Start,attr"`
	Duration int   `xml:"Duration,attr,omitempty"`
}

func (i PowerISP) Interval() Interval { return span(i.Start, i.Duration) }

// Amount is a decimal value kept in its wire representation so the scale is preserved.
type Amount string

// Decimal parses the amount.
func (a Amount) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(string(a))
}

// IsSet reports whether the optional attribute was present.
func (a Amount) IsSet() bool { return a != "" }

// ResultType is the Result attribute of a response.
type ResultType string

const (
	ResultAccepted ResultType = "Accepted"
	ResultRejected ResultType = "Rejected"
)
