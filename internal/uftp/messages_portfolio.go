package uftp

import "encoding/xml"

// AGRPortfolioQuery asks the CRO which connections the aggregator represents.
type AGRPortfolioQuery struct {
	XMLName xml.Name `xml:"AGRPortfolioQuery" json:"-"`
	PayloadHeader
	Period string `xml:"Period,attr"`
}

func (*AGRPortfolioQuery) Type() MessageType { return TypeAGRPortfolioQuery }

// PortfolioConnection is a connection entry in a portfolio update.
type PortfolioConnection struct {
	EntityAddress string `xml:"EntityAddress,attr"`
	StartPeriod   string `xml:"StartPeriod,attr"`
	EndPeriod     string `xml:"EndPeriod,attr,omitempty"`
}

// AGRPortfolioUpdate registers the aggregator's connections with the CRO.
type AGRPortfolioUpdate struct {
	XMLName xml.Name `xml:"AGRPortfolioUpdate" json:"-"`
	PayloadHeader
	Connections []PortfolioConnection `xml:"Connection"`
}

func (*AGRPortfolioUpdate) Type() MessageType { return TypeAGRPortfolioUpdate }

// DSOPortfolioQuery asks the CRO which aggregators are active on a congestion point.
type DSOPortfolioQuery struct {
	XMLName xml.Name `xml:"DSOPortfolioQuery" json:"-"`
	PayloadHeader
	Period        string `xml:"Period,attr"`
	EntityAddress string `xml:"EntityAddress,attr"`
}

func (*DSOPortfolioQuery) Type() MessageType { return TypeDSOPortfolioQuery }

// CongestionPointRegistration is a congestion point entry in a DSO portfolio update.
type CongestionPointRegistration struct {
	EntityAddress        string                `xml:"EntityAddress,attr"`
	StartPeriod          string                `xml:"StartPeriod,attr"`
	EndPeriod            string                `xml:"EndPeriod,attr,omitempty"`
	MutexOffersSupported bool                  `xml:"MutexOffersSupported,attr"`
	DayAheadRedispatchBy string                `xml:"DayAheadRedispatchBy,attr,omitempty"`
	IntradayRedispatchBy string                `xml:"IntradayRedispatchBy,attr,omitempty"`
	Connections          []PortfolioConnection `xml:"Connection"`
}

// DSOPortfolioUpdate registers the DSO's congestion points with the CRO.
type DSOPortfolioUpdate struct {
	XMLName xml.Name `xml:"DSOPortfolioUpdate" json:"-"`
	PayloadHeader
	CongestionPoints []CongestionPointRegistration `xml:"CongestionPoint"`
}

func (*DSOPortfolioUpdate) Type() MessageType { return TypeDSOPortfolioUpdate }

// TestMessage checks connectivity between two participants.
type TestMessage struct {
	XMLName xml.Name `xml:"TestMessage" json:"-"`
	PayloadHeader
}

func (*TestMessage) Type() MessageType { return TypeTestMessage }
