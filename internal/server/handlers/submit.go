package handlers

// submit.go implements POST /api/v1/messages, used by local business applications to send UFTP messages
// as this participant.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/sending"
	"github.com/uftp-network/uftp-engine/internal/server/response"
	"github.com/uftp-network/uftp-engine/internal/store"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// RoleResolver finds the role a domain is registered under.
type RoleResolver interface {
	ResolveRole(ctx context.Context, domain string) (uftp.Role, error)
}

// SubmitMessageHandler validates, signs and sends messages composed by local applications.
type SubmitMessageHandler struct {
	sender   *sending.Sender
	resolver RoleResolver
	recorder MessageRecorder

	// self is the participant messages are sent as
	self uftp.Participant

	// signingKey is the base64 Ed25519 private key of self
	signingKey string

	now func() time.Time
}

func NewSubmitMessageHandler(
	sender *sending.Sender,
	resolver RoleResolver,
	recorder MessageRecorder,
	self uftp.Participant,
	signingKey string,
) *SubmitMessageHandler {
	return &SubmitMessageHandler{
		sender:     sender,
		resolver:   resolver,
		recorder:   recorder,
		self:       self,
		signingKey: signingKey,
		now:        time.Now,
	}
}

// SubmitMessageResponse identifies the message that was sent.
type SubmitMessageResponse struct {
	MessageType    string `json:"messageType" example:"FlexRequest"`
	MessageID      string `json:"messageId" example:"0b7c4b1e-8a3e-4d7e-9a43-3f2f1f0d9c11"`
	ConversationID string `json:"conversationId" example:"5d8b2b3a-6c38-4ad1-8b7e-0d6f1f7f2a10"`
	Recipient      string `json:"recipient" example:"agr.example.com(AGR)"`
}

// HandleSubmitMessage godoc
//
//	@Summary		Send a UFTP message
//	@Description	Submit an unsigned UFTP payload (e.g. a FlexRequest) to be sent to its RecipientDomain.
//	@Description
//	@Description	Missing SenderDomain, MessageID, ConversationID and TimeStamp attributes are filled in.
//	@Description	Requests are validated before they are sent; responses are sent as is.
//	@Description	The message is signed with this participant's key and stored once the recipient accepted it.
//	@Description
//	@Description	The recipient role is taken from the registry unless the `recipient_role` query parameter is set.
//
//	@Tags			UFTP
//	@Accept			xml
//	@Produce		json
//
//	@Param			request			body	string	true	"UFTP payload XML"
//	@Param			recipient_role	query	string	false	"Role of the recipient (AGR, DSO or CRO)"
//
//	@Success		200	{object}	SubmitMessageResponse	"Message sent"
//	@Failure		400	{object}	response.ErrorResponse	"Malformed payload"
//	@Failure		422	{object}	response.ErrorResponse	"Message rejected by validation, not sent"
//	@Failure		502	{object}	response.ErrorResponse	"Recipient did not accept the message"
//
//	@Router			/api/v1/messages [post]
func (h *SubmitMessageHandler) HandleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLogger := logger.ContextRequestLogger(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.RespondWithError(w, r, err)
		return
	}

	msg, err := uftp.UnmarshalXML(body)
	if err != nil {
		response.RespondWithError(w, r, err)
		return
	}
	if err := uftp.FillHeader(msg, h.self.Domain, h.now().UTC()); err != nil {
		response.RespondWithError(w, r, err)
		return
	}

	header := msg.Header()
	if header.SenderDomain != h.self.Domain {
		response.RespondWithError(w, r, uftp.NewMalformedMessageError(
			fmt.Sprintf("SenderDomain %s is not this participant (%s)", header.SenderDomain, h.self.Domain)))
		return
	}
	if header.RecipientDomain == "" {
		response.RespondWithError(w, r, uftp.NewMalformedMessageError("RecipientDomain is required"))
		return
	}

	recipient, err := h.recipient(ctx, r.URL.Query().Get("recipient_role"), header.RecipientDomain)
	if err != nil {
		response.RespondWithError(w, r, err)
		return
	}

	logger.ContextWithLogAttrs(ctx,
		slog.String("message_type", string(msg.Type())),
		slog.String("message_id", header.MessageID),
		slog.String("recipient", recipient.String()),
	)

	details := uftp.SigningDetails{
		Sender:                 h.self,
		SenderPrivateKeyBase64: h.signingKey,
		Recipient:              recipient,
	}
	if err := h.sender.ValidateAndSend(ctx, msg, details); err != nil {
		response.RespondWithError(w, r, err)
		return
	}

	if err := h.recorder.Save(ctx, uftp.NewOutgoingEnvelope(h.self, msg)); err != nil && !errors.Is(err, store.ErrAlreadyStored) {
		// the message was delivered: report success but make the gap visible
		reqLogger.Error("failed to store sent message",
			slog.String("message_id", header.MessageID),
			slog.String("error", err.Error()))
	}

	response.RespondWithJSONPayload(w, http.StatusOK, SubmitMessageResponse{
		MessageType:    string(msg.Type()),
		MessageID:      header.MessageID,
		ConversationID: header.ConversationID,
		Recipient:      recipient.String(),
	})
}

func (h *SubmitMessageHandler) recipient(ctx context.Context, roleParam, domain string) (uftp.Participant, error) {
	if roleParam != "" {
		role, err := uftp.ParseRole(roleParam)
		if err != nil {
			return uftp.Participant{}, response.NewMalformedRequestError(fmt.Sprintf("invalid recipient_role %q", roleParam))
		}
		return uftp.Participant{Domain: domain, Role: role}, nil
	}

	role, err := h.resolver.ResolveRole(ctx, domain)
	if err != nil {
		return uftp.Participant{}, err
	}
	return uftp.Participant{Domain: domain, Role: role}, nil
}
