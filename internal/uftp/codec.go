package uftp

// codec.go converts payloads and signed messages to and from their XML wire form.

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gowebpki/jcs"
)

// messageFactories is the registration table of payload variants keyed by root element name.
var messageFactories = map[MessageType]func() Message{
	TypeFlexRequest:           func() Message { return &FlexRequest{} },
	TypeFlexOffer:             func() Message { return &FlexOffer{} },
	TypeFlexOrder:             func() Message { return &FlexOrder{} },
	TypeFlexOfferRevocation:   func() Message { return &FlexOfferRevocation{} },
	TypeFlexReservationUpdate: func() Message { return &FlexReservationUpdate{} },
	TypeFlexSettlement:        func() Message { return &FlexSettlement{} },
	TypeDPrognosis:            func() Message { return &DPrognosis{} },
	TypeMetering:              func() Message { return &Metering{} },
	TypeAGRPortfolioQuery:     func() Message { return &AGRPortfolioQuery{} },
	TypeAGRPortfolioUpdate:    func() Message { return &AGRPortfolioUpdate{} },
	TypeDSOPortfolioQuery:     func() Message { return &DSOPortfolioQuery{} },
	TypeDSOPortfolioUpdate:    func() Message { return &DSOPortfolioUpdate{} },
	TypeTestMessage:           func() Message { return &TestMessage{} },

	TypeFlexRequestResponse:           func() Message { return &FlexRequestResponse{} },
	TypeFlexOfferResponse:             func() Message { return &FlexOfferResponse{} },
	TypeFlexOrderResponse:             func() Message { return &FlexOrderResponse{} },
	TypeFlexOfferRevocationResponse:   func() Message { return &FlexOfferRevocationResponse{} },
	TypeFlexReservationUpdateResponse: func() Message { return &FlexReservationUpdateResponse{} },
	TypeFlexSettlementResponse:        func() Message { return &FlexSettlementResponse{} },
	TypeDPrognosisResponse:            func() Message { return &DPrognosisResponse{} },
	TypeMeteringResponse:              func() Message { return &MeteringResponse{} },
	TypeAGRPortfolioQueryResponse:     func() Message { return &AGRPortfolioQueryResponse{} },
	TypeAGRPortfolioUpdateResponse:    func() Message { return &AGRPortfolioUpdateResponse{} },
	TypeDSOPortfolioQueryResponse:     func() Message { return &DSOPortfolioQueryResponse{} },
	TypeDSOPortfolioUpdateResponse:    func() Message { return &DSOPortfolioUpdateResponse{} },
	TypeTestMessageResponse:           func() Message { return &TestMessageResponse{} },
}

// NewMessageOfType returns an empty message of type t.
func NewMessageOfType(t MessageType) (Message, error) {
	factory, ok := messageFactories[t]
	if !ok {
		return nil, NewMalformedMessageError(fmt.Sprintf("unsupported message type %q", t))
	}
	return factory(), nil
}

// MarshalXML returns the XML payload for msg, including the XML declaration.
func MarshalXML(msg Message) ([]byte, error) {
	body, err := xml.Marshal(msg)
	if err != nil {
		return nil, WrapInternalError(err, fmt.Sprintf("failed to marshal %s", msg.Type()))
	}
	return append([]byte(xml.Header), body...), nil
}

// UnmarshalXML decodes an XML payload. The root element name selects the variant.
func UnmarshalXML(data []byte) (Message, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, err
	}

	msg, err := NewMessageOfType(MessageType(root))
	if err != nil {
		return nil, err
	}

	if err := xml.Unmarshal(data, msg); err != nil {
		return nil, WrapMalformedMessageError(err, fmt.Sprintf("failed to decode %s", root))
	}
	return msg, nil
}

func rootElement(data []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", NewMalformedMessageError("payload has no root element")
			}
			return "", WrapMalformedMessageError(err, "payload is not well-formed XML")
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

// signedMessageXML is the wire form of SignedMessage. The body is written as element text;
// the Body attribute used by some peers is accepted on decode.
type signedMessageXML struct {
	XMLName      xml.Name `xml:"SignedMessage"`
	SenderDomain string   `xml:"SenderDomain,attr"`
	SenderRole   string   `xml:"SenderRole,attr"`
	BodyAttr     string   `xml:"Body,attr,omitempty"`
	Content      string   `xml:",chardata"`
}

// MarshalSignedMessage renders a SignedMessage as XML.
func MarshalSignedMessage(sm SignedMessage) ([]byte, error) {
	body, err := xml.Marshal(signedMessageXML{
		SenderDomain: sm.SenderDomain,
		SenderRole:   string(sm.SenderRole),
		Content:      base64.StdEncoding.EncodeToString(sm.Body),
	})
	if err != nil {
		return nil, WrapInternalError(err, "failed to marshal SignedMessage")
	}
	return append([]byte(xml.Header), body...), nil
}

// UnmarshalSignedMessage parses a SignedMessage XML document.
func UnmarshalSignedMessage(data []byte) (SignedMessage, error) {
	var wire signedMessageXML
	if err := xml.Unmarshal(data, &wire); err != nil {
		return SignedMessage{}, WrapMalformedMessageError(err, "failed to decode SignedMessage")
	}
	if wire.SenderDomain == "" {
		return SignedMessage{}, NewMalformedMessageError("SignedMessage SenderDomain is required")
	}

	role, err := ParseRole(wire.SenderRole)
	if err != nil {
		return SignedMessage{}, err
	}

	encoded := strings.TrimSpace(wire.Content)
	if encoded == "" {
		encoded = wire.BodyAttr
	}
	if encoded == "" {
		return SignedMessage{}, NewMalformedMessageError("SignedMessage body is empty")
	}

	body, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(encoded), ""))
	if err != nil {
		return SignedMessage{}, WrapMalformedMessageError(err, "SignedMessage body is not valid base64")
	}

	return SignedMessage{
		SenderDomain: wire.SenderDomain,
		SenderRole:   role,
		Body:         body,
	}, nil
}

// Canonicalize returns the canonical serialization of msg used to compare messages:
// the JSON form of the message canonicalized per RFC 8785.
func Canonicalize(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, WrapInternalError(err, fmt.Sprintf("failed to encode %s", msg.Type()))
	}
	canonical, err := jcs.Transform(data)
	if err != nil {
		return nil, WrapInternalError(err, "failed to canonicalize message")
	}
	return canonical, nil
}

// UnmarshalCanonical decodes a message previously produced by Canonicalize.
func UnmarshalCanonical(t MessageType, data []byte) (Message, error) {
	msg, err := NewMessageOfType(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, WrapMalformedMessageError(err, fmt.Sprintf("failed to decode stored %s", t))
	}
	return msg, nil
}
