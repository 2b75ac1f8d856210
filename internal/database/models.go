package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type UftpMessage struct {
	ID                 uuid.UUID   `json:"id"`
	CreatedAt          time.Time   `json:"created_at"`
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
