package uftp

// Direction says whether a message was received by or sent from this participant.
type Direction int

const (
	DirectionIncoming Direction = iota
	DirectionOutgoing
)

// Inverse returns the opposite direction.
func (d Direction) Inverse() Direction {
	if d == DirectionIncoming {
		return DirectionOutgoing
	}
	return DirectionIncoming
}

func (d Direction) String() string {
	if d == DirectionIncoming {
		return "incoming"
	}
	return "outgoing"
}

// Origin is the two-variant union describing how an envelope entered the engine:
// Incoming (received from a peer) or Outgoing (produced locally).
type Origin interface {
	Direction() Direction
	isOrigin()
}

// Incoming keeps the raw wire forms of a received message for audit and duplicate comparison.
type Incoming struct {
	SignedXML  string
	PayloadXML string
}

func (Incoming) Direction() Direction { return DirectionIncoming }
func (Incoming) isOrigin()            {}

// Outgoing marks a locally produced message.
type Outgoing struct{}

func (Outgoing) Direction() Direction { return DirectionOutgoing }
func (Outgoing) isOrigin()            {}

// Envelope is a payload together with the participant that sent it.
type Envelope struct {
	Sender  Participant
	Payload Message
	Origin  Origin
}

// NewIncomingEnvelope wraps a received payload.
func NewIncomingEnvelope(sender Participant, payload Message, signedXML, payloadXML string) Envelope {
	return Envelope{
		Sender:  sender,
		Payload: payload,
		Origin:  Incoming{SignedXML: signedXML, PayloadXML: payloadXML},
	}
}

// NewOutgoingEnvelope wraps a payload this participant is about to send.
func NewOutgoingEnvelope(sender Participant, payload Message) Envelope {
	return Envelope{
		Sender:  sender,
		Payload: payload,
		Origin:  Outgoing{},
	}
}

// Direction returns the direction of the envelope's origin (outgoing when unset).
func (e Envelope) Direction() Direction {
	if e.Origin == nil {
		return DirectionOutgoing
	}
	return e.Origin.Direction()
}

// MessageReference is the lookup key for a previously exchanged message.
type MessageReference struct {
	MessageID       string
	ConversationID  string
	Direction       Direction
	SenderDomain    string
	RecipientDomain string
	Type            MessageType
}

// ReferenceTo derives the reference to a prior message of type t with the given id in the
// same conversation as env. The referenced message was sent by the current recipient to the
// current sender, so domains are swapped and direction is inverted.
func ReferenceTo(env Envelope, messageID string, t MessageType) MessageReference {
	h := env.Payload.Header()
	return MessageReference{
		MessageID:       messageID,
		ConversationID:  h.ConversationID,
		Direction:       env.Direction().Inverse(),
		SenderDomain:    h.RecipientDomain,
		RecipientDomain: h.SenderDomain,
		Type:            t,
	}
}

// SignedMessage is the wire-level signed container. Body is the sealed
// signature followed by the payload XML.
type SignedMessage struct {
	SenderDomain string
	SenderRole   Role
	Body         []byte
}
