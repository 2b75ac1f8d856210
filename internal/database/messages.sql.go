package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const uftpMessageColumns = `id, created_at, direction, message_type, message_id, conversation_id, sender_domain, recipient_domain, reference_message_id, payload, signed_xml, payload_xml`

func scanUftpMessage(row interface{ Scan(...any) error }) (UftpMessage, error) {
	var i UftpMessage
	err := row.Scan(
		&i.ID,
		&i.CreatedAt,
		&i.Direction,
		&i.MessageType,
		&i.MessageID,
		&i.ConversationID,
		&i.SenderDomain,
		&i.RecipientDomain,
		&i.ReferenceMessageID,
		&i.Payload,
		&i.SignedXml,
		&i.PayloadXml,
	)
	return i, err
}

const isDatabaseRunning = `-- name: IsDatabaseRunning :one
SELECT true AS running
`

func (q *Queries) IsDatabaseRunning(ctx context.Context) (bool, error) {
	row := q.db.QueryRow(ctx, isDatabaseRunning)
	var running bool
	err := row.Scan(&running)
	return running, err
}

const createMessage = `-- name: CreateMessage :one
INSERT INTO uftp_messages (
    direction,
    message_type,
    message_id,
    conversation_id,
    sender_domain,
    recipient_domain,
    reference_message_id,
    payload,
    signed_xml,
    payload_xml
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING ` + uftpMessageColumns + `
`

type CreateMessageParams struct {
	Direction          string      `json:"direction"`
	MessageType        string      `json:"message_type"`
	MessageID          string      `json:"message_id"`
	ConversationID     string      `json:"conversation_id"`
	SenderDomain       string      `json:"sender_domain"`
	RecipientDomain    string      `json:"recipient_domain"`
	ReferenceMessageID pgtype.Text `json:"reference_message_id"`
	Payload            []byte      `json:"payload"`
	SignedXml          pgtype.Text `json:"signed_xml"`
	PayloadXml         pgtype.Text `json:"payload_xml"`
}

func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (UftpMessage, error) {
	row := q.db.QueryRow(ctx, createMessage,
		arg.Direction,
		arg.MessageType,
		arg.MessageID,
		arg.ConversationID,
		arg.SenderDomain,
		arg.RecipientDomain,
		arg.ReferenceMessageID,
		arg.Payload,
		arg.SignedXml,
		arg.PayloadXml,
	)
	return scanUftpMessage(row)
}

const getMessageByMessageID = `-- name: GetMessageByMessageID :one
SELECT ` + uftpMessageColumns + ` FROM uftp_messages
WHERE message_id = $1
  AND sender_domain = $2
  AND recipient_domain = $3
`

type GetMessageByMessageIDParams struct {
	MessageID       string `json:"message_id"`
	SenderDomain    string `json:"sender_domain"`
	RecipientDomain string `json:"recipient_domain"`
}

func (q *Queries) GetMessageByMessageID(ctx context.Context, arg GetMessageByMessageIDParams) (UftpMessage, error) {
	row := q.db.QueryRow(ctx, getMessageByMessageID, arg.MessageID, arg.SenderDomain, arg.RecipientDomain)
	return scanUftpMessage(row)
}

const getReferencedMessage = `-- name: GetReferencedMessage :one
SELECT ` + uftpMessageColumns + ` FROM uftp_messages
WHERE direction = $1
  AND message_type = $2
  AND message_id = $3
  AND conversation_id = $4
  AND sender_domain = $5
  AND recipient_domain = $6
`

type GetReferencedMessageParams struct {
	Direction       string `json:"direction"`
	MessageType     string `json:"message_type"`
	MessageID       string `json:"message_id"`
	ConversationID  string `json:"conversation_id"`
	SenderDomain    string `json:"sender_domain"`
	RecipientDomain string `json:"recipient_domain"`
}

func (q *Queries) GetReferencedMessage(ctx context.Context, arg GetReferencedMessageParams) (UftpMessage, error) {
	row := q.db.QueryRow(ctx, getReferencedMessage,
		arg.Direction,
		arg.MessageType,
		arg.MessageID,
		arg.ConversationID,
		arg.SenderDomain,
		arg.RecipientDomain,
	)
	return scanUftpMessage(row)
}

const getFlexRevocation = `-- name: GetFlexRevocation :one
SELECT ` + uftpMessageColumns + ` FROM uftp_messages
WHERE message_type = 'FlexOfferRevocation'
  AND conversation_id = $1
  AND reference_message_id = $2
  AND sender_domain = $3
  AND recipient_domain = $4
ORDER BY created_at DESC
LIMIT 1
`

type GetFlexRevocationParams struct {
	ConversationID     string      `json:"conversation_id"`
	ReferenceMessageID pgtype.Text `json:"reference_message_id"`
	SenderDomain       string      `json:"sender_domain"`
	RecipientDomain    string      `json:"recipient_domain"`
}

func (q *Queries) GetFlexRevocation(ctx context.Context, arg GetFlexRevocationParams) (UftpMessage, error) {
	row := q.db.QueryRow(ctx, getFlexRevocation,
		arg.ConversationID,
		arg.ReferenceMessageID,
		arg.SenderDomain,
		arg.RecipientDomain,
	)
	return scanUftpMessage(row)
}

const countMessagesByDirection = `-- name: CountMessagesByDirection :many
SELECT direction, count(*) AS messages
FROM uftp_messages
GROUP BY direction
`

type CountMessagesByDirectionRow struct {
	Direction string `json:"direction"`
	Messages  int64  `json:"messages"`
}

func (q *Queries) CountMessagesByDirection(ctx context.Context) ([]CountMessagesByDirectionRow, error) {
	rows, err := q.db.Query(ctx, countMessagesByDirection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountMessagesByDirectionRow
	for rows.Next() {
		var i CountMessagesByDirectionRow
		if err := rows.Scan(&i.Direction, &i.Messages); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
