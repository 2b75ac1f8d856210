package uftp

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResponseHeader holds the attributes common to every response.
type ResponseHeader struct {
	PayloadHeader
	Result          ResultType `xml:"Result,attr"`
	RejectionReason string     `xml:"RejectionReason,attr,omitempty"`
}

func (h ResponseHeader) Response() ResponseHeader { return h }

// ResponseMessage is implemented by the *Response variants.
// ReferenceMessageID returns the MessageID of the request being answered.
type ResponseMessage interface {
	Message
	Response() ResponseHeader
	ReferenceMessageID() string
	RequestType() MessageType
}

type FlexRequestResponse struct {
	XMLName xml.Name `xml:"FlexRequestResponse" json:"-"`
	ResponseHeader
	FlexRequestMessageID string `xml:"FlexRequestMessageID,attr"`
}

func (*FlexRequestResponse) Type() MessageType            { return TypeFlexRequestResponse }
func (*FlexRequestResponse) RequestType() MessageType     { return TypeFlexRequest }
func (r *FlexRequestResponse) ReferenceMessageID() string { return r.FlexRequestMessageID }

type FlexOfferResponse struct {
	XMLName xml.Name `xml:"FlexOfferResponse" json:"-"`
	ResponseHeader
	FlexOfferMessageID string `xml:"FlexOfferMessageID,attr"`
}

func (*FlexOfferResponse) Type() MessageType            { return TypeFlexOfferResponse }
func (*FlexOfferResponse) RequestType() MessageType     { return TypeFlexOffer }
func (r *FlexOfferResponse) ReferenceMessageID() string { return r.FlexOfferMessageID }

type FlexOrderResponse struct {
	XMLName xml.Name `xml:"FlexOrderResponse" json:"-"`
	ResponseHeader
	FlexOrderMessageID string `xml:"FlexOrderMessageID,attr"`
}

func (*FlexOrderResponse) Type() MessageType            { return TypeFlexOrderResponse }
func (*FlexOrderResponse) RequestType() MessageType     { return TypeFlexOrder }
func (r *FlexOrderResponse) ReferenceMessageID() string { return r.FlexOrderMessageID }

type FlexOfferRevocationResponse struct {
	XMLName xml.Name `xml:"FlexOfferRevocationResponse" json:"-"`
	ResponseHeader
	FlexOfferRevocationMessageID string `xml:"FlexOfferRevocationMessageID,attr"`
}

func (*FlexOfferRevocationResponse) Type() MessageType        { return TypeFlexOfferRevocationResponse }
func (*FlexOfferRevocationResponse) RequestType() MessageType { return TypeFlexOfferRevocation }
func (r *FlexOfferRevocationResponse) ReferenceMessageID() string {
	return r.FlexOfferRevocationMessageID
}

type FlexReservationUpdateResponse struct {
	XMLName xml.Name `xml:"FlexReservationUpdateResponse" json:"-"`
	ResponseHeader
	FlexReservationUpdateMessageID string `xml:"FlexReservationUpdateMessageID,attr"`
}

func (*FlexReservationUpdateResponse) Type() MessageType        { return TypeFlexReservationUpdateResponse }
func (*FlexReservationUpdateResponse) RequestType() MessageType { return TypeFlexReservationUpdate }
func (r *FlexReservationUpdateResponse) ReferenceMessageID() string {
	return r.FlexReservationUpdateMessageID
}

type FlexSettlementResponse struct {
	XMLName xml.Name `xml:"FlexSettlementResponse" json:"-"`
	ResponseHeader
	FlexSettlementMessageID string `xml:"FlexSettlementMessageID,attr"`
}

func (*FlexSettlementResponse) Type() MessageType            { return TypeFlexSettlementResponse }
func (*FlexSettlementResponse) RequestType() MessageType     { return TypeFlexSettlement }
func (r *FlexSettlementResponse) ReferenceMessageID() string { return r.FlexSettlementMessageID }

type DPrognosisResponse struct {
	XMLName xml.Name `xml:"D-PrognosisResponse" json:"-"`
	ResponseHeader
	DPrognosisMessageID string `xml:"D-PrognosisMessageID,attr"`
}

func (*DPrognosisResponse) Type() MessageType            { return TypeDPrognosisResponse }
func (*DPrognosisResponse) RequestType() MessageType     { return TypeDPrognosis }
func (r *DPrognosisResponse) ReferenceMessageID() string { return r.DPrognosisMessageID }

type MeteringResponse struct {
	XMLName xml.Name `xml:"MeteringResponse" json:"-"`
	ResponseHeader
	MeteringMessageID string `xml:"MeteringMessageID,attr"`
}

func (*MeteringResponse) Type() MessageType            { return TypeMeteringResponse }
func (*MeteringResponse) RequestType() MessageType     { return TypeMetering }
func (r *MeteringResponse) ReferenceMessageID() string { return r.MeteringMessageID }

type AGRPortfolioQueryResponse struct {
	XMLName xml.Name `xml:"AGRPortfolioQueryResponse" json:"-"`
	ResponseHeader
	AGRPortfolioQueryMessageID string `xml:"AGRPortfolioQueryMessageID,attr"`
}

func (*AGRPortfolioQueryResponse) Type() MessageType        { return TypeAGRPortfolioQueryResponse }
func (*AGRPortfolioQueryResponse) RequestType() MessageType { return TypeAGRPortfolioQuery }
func (r *AGRPortfolioQueryResponse) ReferenceMessageID() string {
	return r.AGRPortfolioQueryMessageID
}

type AGRPortfolioUpdateResponse struct {
	XMLName xml.Name `xml:"AGRPortfolioUpdateResponse" json:"-"`
	ResponseHeader
	AGRPortfolioUpdateMessageID string `xml:"AGRPortfolioUpdateMessageID,attr"`
}

func (*AGRPortfolioUpdateResponse) Type() MessageType        { return TypeAGRPortfolioUpdateResponse }
func (*AGRPortfolioUpdateResponse) RequestType() MessageType { return TypeAGRPortfolioUpdate }
func (r *AGRPortfolioUpdateResponse) ReferenceMessageID() string {
	return r.AGRPortfolioUpdateMessageID
}

type DSOPortfolioQueryResponse struct {
	XMLName xml.Name `xml:"DSOPortfolioQueryResponse" json:"-"`
	ResponseHeader
	DSOPortfolioQueryMessageID string `xml:"DSOPortfolioQueryMessageID,attr"`
}

func (*DSOPortfolioQueryResponse) Type() MessageType        { return TypeDSOPortfolioQueryResponse }
func (*DSOPortfolioQueryResponse) RequestType() MessageType { return TypeDSOPortfolioQuery }
func (r *DSOPortfolioQueryResponse) ReferenceMessageID() string {
	return r.DSOPortfolioQueryMessageID
}

type DSOPortfolioUpdateResponse struct {
	XMLName xml.Name `xml:"DSOPortfolioUpdateResponse" json:"-"`
	ResponseHeader
	DSOPortfolioUpdateMessageID string `xml:"DSOPortfolioUpdateMessageID,attr"`
}

func (*DSOPortfolioUpdateResponse) Type() MessageType        { return TypeDSOPortfolioUpdateResponse }
func (*DSOPortfolioUpdateResponse) RequestType() MessageType { return TypeDSOPortfolioUpdate }
func (r *DSOPortfolioUpdateResponse) ReferenceMessageID() string {
	return r.DSOPortfolioUpdateMessageID
}

type TestMessageResponse struct {
	XMLName xml.Name `xml:"TestMessageResponse" json:"-"`
	ResponseHeader
	TestMessageMessageID string `xml:"TestMessageMessageID,attr"`
}

func (*TestMessageResponse) Type() MessageType            { return TypeTestMessageResponse }
func (*TestMessageResponse) RequestType() MessageType     { return TypeTestMessage }
func (r *TestMessageResponse) ReferenceMessageID() string { return r.TestMessageMessageID }

// NewResponseFor builds the reply to a request-shaped message.
//
// The reply is addressed back to the request's sender, keeps the conversation id and
// version, gets a fresh message id and carries Accepted or Rejected plus the rejection
// reason from result. Response-shaped input is an error: responses terminate a conversation.
func NewResponseFor(request Message, result ValidationResult, now time.Time) (ResponseMessage, error) {
	req := request.Header()
	h := ResponseHeader{
		PayloadHeader: PayloadHeader{
			Version:         req.Version,
			SenderDomain:    req.RecipientDomain,
			RecipientDomain: req.SenderDomain,
			TimeStamp:       now,
			MessageID:       uuid.NewString(),
			ConversationID:  req.ConversationID,
		},
		Result: ResultAccepted,
	}
	if !result.Valid() {
		h.Result = ResultRejected
		h.RejectionReason = result.RejectionReason()
	}

	switch request.(type) {
	case *FlexRequest:
		return &FlexRequestResponse{ResponseHeader: h, FlexRequestMessageID: req.MessageID}, nil
	case *FlexOffer:
		return &FlexOfferResponse{ResponseHeader: h, FlexOfferMessageID: req.MessageID}, nil
	case *FlexOrder:
		return &FlexOrderResponse{ResponseHeader: h, FlexOrderMessageID: req.MessageID}, nil
	case *FlexOfferRevocation:
		return &FlexOfferRevocationResponse{ResponseHeader: h, FlexOfferRevocationMessageID: req.MessageID}, nil
	case *FlexReservationUpdate:
		return &FlexReservationUpdateResponse{ResponseHeader: h, FlexReservationUpdateMessageID: req.MessageID}, nil
	case *FlexSettlement:
		return &FlexSettlementResponse{ResponseHeader: h, FlexSettlementMessageID: req.MessageID}, nil
	case *DPrognosis:
		return &DPrognosisResponse{ResponseHeader: h, DPrognosisMessageID: req.MessageID}, nil
	case *Metering:
		return &MeteringResponse{ResponseHeader: h, MeteringMessageID: req.MessageID}, nil
	case *AGRPortfolioQuery:
		return &AGRPortfolioQueryResponse{ResponseHeader: h, AGRPortfolioQueryMessageID: req.MessageID}, nil
	case *AGRPortfolioUpdate:
		return &AGRPortfolioUpdateResponse{ResponseHeader: h, AGRPortfolioUpdateMessageID: req.MessageID}, nil
	case *DSOPortfolioQuery:
		return &DSOPortfolioQueryResponse{ResponseHeader: h, DSOPortfolioQueryMessageID: req.MessageID}, nil
	case *DSOPortfolioUpdate:
		return &DSOPortfolioUpdateResponse{ResponseHeader: h, DSOPortfolioUpdateMessageID: req.MessageID}, nil
	case *TestMessage:
		return &TestMessageResponse{ResponseHeader: h, TestMessageMessageID: req.MessageID}, nil
	default:
		return nil, NewInternalError(fmt.Sprintf("no response type for %s", request.Type()))
	}
}
