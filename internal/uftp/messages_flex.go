package uftp

import (
	"encoding/xml"
	"time"
)

// FlexRequest is sent by a DSO to ask aggregators for flexibility.
type FlexRequest struct {
	XMLName xml.Name `xml:"FlexRequest" json:"-"`
	FlexHeader
	Revision           int              `xml:"Revision,attr"`
	ExpirationDateTime time.Time        `xml:"ExpirationDateTime,attr"`
	ContractID         string           `xml:"ContractID,attr,omitempty"`
	ServiceType        string           `xml:"ServiceType,attr,omitempty"`
	ISPs               []FlexRequestISP `xml:"ISP"`
}

func (*FlexRequest) Type() MessageType { return TypeFlexRequest }

// FlexOfferOption is one alternative offered in a FlexOffer.
type FlexOfferOption struct {
	OptionReference     string     `xml:"OptionReference,attr"`
	Price               Amount     `xml:"Price,attr"`
	MinActivationFactor Amount     `xml:"MinActivationFactor,attr,omitempty"`
	ISPs                []PowerISP `xml:"ISP"`
}

// FlexOffer is sent by an aggregator, either solicited (FlexRequestMessageID set) or unsolicited.
type FlexOffer struct {
	XMLName xml.Name `xml:"FlexOffer" json:"-"`
	FlexHeader
	ExpirationDateTime   time.Time         `xml:"ExpirationDateTime,attr"`
	FlexRequestMessageID string            `xml:"FlexRequestMessageID,attr,omitempty"`
	ContractID           string            `xml:"ContractID,attr,omitempty"`
	DPrognosisMessageID  string            `xml:"D-PrognosisMessageID,attr,omitempty"`
	BaselineReference    string            `xml:"BaselineReference,attr,omitempty"`
	Currency             string            `xml:"Currency,attr"`
	OfferOptions         []FlexOfferOption `xml:"OfferOption"`
}

func (*FlexOffer) Type() MessageType { return TypeFlexOffer }

// FlexOrder is sent by a DSO to purchase an offered option.
type FlexOrder struct {
	XMLName xml.Name `xml:"FlexOrder" json:"-"`
	FlexHeader
	FlexOfferMessageID  string     `xml:"FlexOfferMessageID,attr"`
	ContractID          string     `xml:"ContractID,attr,omitempty"`
	DPrognosisMessageID string     `xml:"D-PrognosisMessageID,attr,omitempty"`
	BaselineReference   string     `xml:"BaselineReference,attr,omitempty"`
	Price               Amount     `xml:"Price,attr"`
	Currency            string     `xml:"Currency,attr"`
	OrderReference      string     `xml:"OrderReference,attr"`
	OptionReference     string     `xml:"OptionReference,attr,omitempty"`
	ActivationFactor    Amount     `xml:"ActivationFactor,attr,omitempty"`
	ISPs                []PowerISP `xml:"ISP"`
}

func (*FlexOrder) Type() MessageType { return TypeFlexOrder }

// FlexOfferRevocation withdraws a previously sent FlexOffer.
type FlexOfferRevocation struct {
	XMLName xml.Name `xml:"FlexOfferRevocation" json:"-"`
	PayloadHeader
	FlexOfferMessageID string `xml:"FlexOfferMessageID,attr"`
}

func (*FlexOfferRevocation) Type() MessageType { return TypeFlexOfferRevocation }

// FlexReservationUpdate informs an aggregator how much reserved flexibility is still required.
type FlexReservationUpdate struct {
	XMLName xml.Name `xml:"FlexReservationUpdate" json:"-"`
	FlexHeader
	ContractID string     `xml:"ContractID,attr"`
	Reference  string     `xml:"Reference,attr"`
	ISPs       []PowerISP `xml:"ISP"`
}

func (*FlexReservationUpdate) Type() MessageType { return TypeFlexReservationUpdate }

// SettlementISP is a per-ISP settlement line of a FlexOrderSettlement.
type SettlementISP struct {
	Start              int   `xml:"Start,attr"`
	Duration           int   `xml:"Duration,attr,omitempty"`
	BaselinePower      int64 `xml:"BaselinePower,attr"`
	OrderedFlexPower   int64 `xml:"OrderedFlexPower,attr"`
	ActualPower        int64 `xml:"ActualPower,attr"`
	DeliveredFlexPower int64 `xml:"DeliveredFlexPower,attr"`
	PowerDeficiency    int64 `xml:"PowerDeficiency,attr,omitempty"`
}

// FlexOrderSettlement settles one FlexOrder.
type FlexOrderSettlement struct {
	OrderReference  string          `xml:"OrderReference,attr"`
	Period          string          `xml:"Period,attr"`
	CongestionPoint string          `xml:"CongestionPoint,attr,omitempty"`
	Price           Amount          `xml:"Price,attr"`
	Penalty         Amount          `xml:"Penalty,attr,omitempty"`
	NetSettlement   Amount          `xml:"NetSettlement,attr"`
	ISPs            []SettlementISP `xml:"ISP"`
}

// FlexSettlement is the periodic settlement of delivered flexibility.
type FlexSettlement struct {
	XMLName xml.Name `xml:"FlexSettlement" json:"-"`
	PayloadHeader
	PeriodStart          string                `xml:"PeriodStart,attr"`
	PeriodEnd            string                `xml:"PeriodEnd,attr"`
	Currency             string                `xml:"Currency,attr"`
	FlexOrderSettlements []FlexOrderSettlement `xml:"FlexOrderSettlement"`
}

func (*FlexSettlement) Type() MessageType { return TypeFlexSettlement }

// DPrognosis is an aggregator's forecast for a congestion point.
type DPrognosis struct {
	XMLName xml.Name `xml:"D-Prognosis" json:"-"`
	FlexHeader
	Revision int        `xml:"Revision,attr"`
	ISPs     []PowerISP `xml:"ISP"`
}

func (*DPrognosis) Type() MessageType { return TypeDPrognosis }

// MeteringISP is a metered value for one ISP.
type MeteringISP struct {
	Start int    `xml:"Start,attr"`
	Value Amount `xml:"Value,attr"`
}

// MeteringProfile groups metered values of one kind (e.g. Power, Price).
type MeteringProfile struct {
	ProfileType string        `xml:"ProfileType,attr"`
	ISPs        []MeteringISP `xml:"ISP"`
}

// Metering carries metered data for a connection.
type Metering struct {
	XMLName xml.Name `xml:"Metering" json:"-"`
	PayloadHeader
	Revision    int               `xml:"Revision,attr"`
	ISPDuration string            `xml:"ISP-Duration,attr"`
	TimeZone    string            `xml:"TimeZone,attr"`
	Period      string            `xml:"Period,attr"`
	EAN         string            `xml:"EAN,attr"`
	Currency    string            `xml:"Currency,attr,omitempty"`
	Profiles    []MeteringProfile `xml:"Profile"`
}

func (*Metering) Type() MessageType { return TypeMetering }
