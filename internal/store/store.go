// Package store implements uftp.MessageStore over the uftp_messages table.
//
// Payloads are stored in their canonical JSON form and decoded back into typed messages on read.
// Incoming messages also keep the signed and payload XML they arrived in.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/uftp-network/uftp-engine/internal/database"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// ErrAlreadyStored is returned by Save when a message with the same id, sender and recipient exists.
var ErrAlreadyStored = errors.New("message already stored")

// uniqueViolation is the postgres SQLSTATE for unique constraint violations
const uniqueViolation = "23505"

// Store is a uftp.MessageStore backed by postgres.
type Store struct {
	queries *database.Queries
}

func New(queries *database.Queries) *Store {
	return &Store{queries: queries}
}

// Save records an exchanged message.
func (s *Store) Save(ctx context.Context, env uftp.Envelope) error {
	params, err := createParams(env)
	if err != nil {
		return err
	}

	if _, err := s.queries.CreateMessage(ctx, params); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyStored
		}
		return uftp.WrapInternalError(err, fmt.Sprintf("failed to store %s %s", params.MessageType, params.MessageID))
	}
	return nil
}

func createParams(env uftp.Envelope) (database.CreateMessageParams, error) {
	msg := env.Payload
	h := msg.Header()

	payload, err := uftp.Canonicalize(msg)
	if err != nil {
		return database.CreateMessageParams{}, err
	}

	params := database.CreateMessageParams{
		Direction:          env.Direction().String(),
		MessageType:        string(msg.Type()),
		MessageID:          h.MessageID,
		ConversationID:     h.ConversationID,
		SenderDomain:       h.SenderDomain,
		RecipientDomain:    h.RecipientDomain,
		ReferenceMessageID: text(referenceMessageID(msg)),
		Payload:            payload,
	}

	if in, ok := env.Origin.(uftp.Incoming); ok {
		params.SignedXml = text(in.SignedXML)
		params.PayloadXml = text(in.PayloadXML)
	}
	return params, nil
}

// referenceMessageID returns the id of the message msg refers to, or "" when it refers to none.
func referenceMessageID(msg uftp.Message) string {
	switch m := msg.(type) {
	case uftp.ResponseMessage:
		return m.ReferenceMessageID()
	case *uftp.FlexOffer:
		return m.FlexRequestMessageID
	case *uftp.FlexOrder:
		return m.FlexOfferMessageID
	case *uftp.FlexOfferRevocation:
		return m.FlexOfferMessageID
	default:
		return ""
	}
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func decode(row database.UftpMessage, err error) (uftp.Message, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, uftp.ErrMessageNotFound
		}
		return nil, uftp.WrapInternalError(err, "message lookup failed")
	}
	return uftp.UnmarshalCanonical(uftp.MessageType(row.MessageType), row.Payload)
}

func (s *Store) FindDuplicateMessage(ctx context.Context, messageID, senderDomain, recipientDomain string) (uftp.Message, error) {
	return decode(s.queries.GetMessageByMessageID(ctx, database.GetMessageByMessageIDParams{
		MessageID:       messageID,
		SenderDomain:    senderDomain,
		RecipientDomain: recipientDomain,
	}))
}

func (s *Store) FindReferencedMessage(ctx context.Context, ref uftp.MessageReference) (uftp.Message, error) {
	return decode(s.queries.GetReferencedMessage(ctx, database.GetReferencedMessageParams{
		Direction:       ref.Direction.String(),
		MessageType:     string(ref.Type),
		MessageID:       ref.MessageID,
		ConversationID:  ref.ConversationID,
		SenderDomain:    ref.SenderDomain,
		RecipientDomain: ref.RecipientDomain,
	}))
}

func (s *Store) FindFlexRevocation(ctx context.Context, conversationID, flexOfferMessageID, senderDomain, recipientDomain string) (*uftp.FlexOfferRevocation, error) {
	msg, err := decode(s.queries.GetFlexRevocation(ctx, database.GetFlexRevocationParams{
		ConversationID:     conversationID,
		ReferenceMessageID: text(flexOfferMessageID),
		SenderDomain:       senderDomain,
		RecipientDomain:    recipientDomain,
	}))
	if err != nil {
		return nil, err
	}
	rev, ok := msg.(*uftp.FlexOfferRevocation)
	if !ok {
		return nil, uftp.NewInternalError(fmt.Sprintf("stored revocation decoded as %s", msg.Type()))
	}
	return rev, nil
}

// Counts returns the number of stored messages per direction.
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.queries.CountMessagesByDirection(ctx)
	if err != nil {
		return nil, uftp.WrapInternalError(err, "failed to count messages")
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Direction] = r.Messages
	}
	return counts, nil
}
