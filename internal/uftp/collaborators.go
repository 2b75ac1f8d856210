package uftp

import "context"

// MessageStore gives the engine read access to previously exchanged messages.
// Implementations return ErrMessageNotFound when nothing matches.
type MessageStore interface {
	FindDuplicateMessage(ctx context.Context, messageID, senderDomain, recipientDomain string) (Message, error)
	FindReferencedMessage(ctx context.Context, ref MessageReference) (Message, error)
	FindFlexRevocation(ctx context.Context, conversationID, flexOfferMessageID, senderDomain, recipientDomain string) (*FlexOfferRevocation, error)
}

// ParticipantDirectory resolves participants to their endpoint and public key.
type ParticipantDirectory interface {
	GetEndpointURL(ctx context.Context, participant Participant) (string, error)

	// GetPublicKey returns the participant's Ed25519 public key, standard base64 encoded.
	GetPublicKey(ctx context.Context, role Role, domain string) (string, error)
}

// ErrorSink is told about failures for observability. It never influences control flow.
type ErrorSink interface {
	NotifyDuplicateReceived(ctx context.Context, env Envelope, result DuplicateResult)
	NotifyReadError(ctx context.Context, raw []byte, err error)
	NotifyValidationRejected(ctx context.Context, env Envelope, reason string)
}

// PayloadHandler is the boundary to business logic.
type PayloadHandler interface {
	// NotifyIncoming is called with every received message that passed validation.
	NotifyIncoming(ctx context.Context, env Envelope) error

	// NotifyOutgoing is called with messages the engine produced on behalf of sender
	// (responses to received requests) and that must now be sent.
	NotifyOutgoing(ctx context.Context, sender Participant, msg Message) error
}

// NopErrorSink discards all notifications.
type NopErrorSink struct{}

func (NopErrorSink) NotifyDuplicateReceived(context.Context, Envelope, DuplicateResult) {}
func (NopErrorSink) NotifyReadError(context.Context, []byte, error)                     {}
func (NopErrorSink) NotifyValidationRejected(context.Context, Envelope, string)         {}
