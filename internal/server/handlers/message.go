package handlers

// message.go implements the POST /shapeshifter/api/v3/message endpoint that receives signed UFTP messages.

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/receiving"
	"github.com/uftp-network/uftp-engine/internal/server/response"
	"github.com/uftp-network/uftp-engine/internal/store"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// MessageRecorder persists exchanged messages.
type MessageRecorder interface {
	Save(ctx context.Context, env uftp.Envelope) error
}

// ReceiveMessageHandler handles signed messages posted by other participants.
type ReceiveMessageHandler struct {
	// directory resolves the sender's public key
	directory uftp.ParticipantDirectory

	sealer    *crypto.Sealer
	processor *receiving.Processor
	recorder  MessageRecorder

	// sink is told about messages that could not be read
	sink uftp.ErrorSink
}

func NewReceiveMessageHandler(
	directory uftp.ParticipantDirectory,
	sealer *crypto.Sealer,
	processor *receiving.Processor,
	recorder MessageRecorder,
	sink uftp.ErrorSink,
) *ReceiveMessageHandler {
	return &ReceiveMessageHandler{
		directory: directory,
		sealer:    sealer,
		processor: processor,
		recorder:  recorder,
		sink:      sink,
	}
}

// HandleReceiveMessage godoc
//
//	@Summary		Receive a UFTP message
//	@Description	Other participants post their signed messages to this endpoint.
//	@Description
//	@Description	The body is a SignedMessage XML element. The sender's public key is looked up in the participant registry
//	@Description	using the SenderDomain and SenderRole attributes and used to open the sealed Body.
//	@Description
//	@Description	A 200 response only means the message was accepted for processing. The business outcome
//	@Description	(Accepted or Rejected) is sent back later as a separate response message.
//
//	@Tags			UFTP
//	@Accept			xml
//	@Produce		json
//
//	@Param			request	body	string	true	"SignedMessage XML"
//
//	@Success		200		"Message accepted for processing"
//	@Failure		400		{object}	response.ErrorResponse	"Malformed message, duplicate or reused message id"
//	@Failure		401		{object}	response.ErrorResponse	"Unknown sender or signature verification failed"
//	@Failure		413		{object}	response.ErrorResponse	"Message too large"
//
//	@Router			/shapeshifter/api/v3/message [post]
func (h *ReceiveMessageHandler) HandleReceiveMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqLogger := logger.ContextRequestLogger(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.RespondWithError(w, r, err)
			return
		}
		response.RespondWithError(w, r, response.NewMalformedRequestError("failed to read request body"))
		return
	}

	signed, err := uftp.UnmarshalSignedMessage(body)
	if err != nil {
		h.sink.NotifyReadError(ctx, body, err)
		response.RespondWithError(w, r, err)
		return
	}

	sender := uftp.Participant{Domain: signed.SenderDomain, Role: signed.SenderRole}
	logger.ContextWithLogAttrs(ctx, slog.String("sender", sender.String()))

	publicKey, err := h.directory.GetPublicKey(ctx, signed.SenderRole, signed.SenderDomain)
	if err != nil {
		response.RespondWithError(w, r, err)
		return
	}

	payload, err := h.sealer.Verify(ctx, signed, publicKey)
	if err != nil {
		response.RespondWithError(w, r, err)
		return
	}

	msg, err := uftp.UnmarshalXML(payload)
	if err != nil {
		h.sink.NotifyReadError(ctx, payload, err)
		response.RespondWithError(w, r, err)
		return
	}

	logger.ContextWithLogAttrs(ctx,
		slog.String("message_type", string(msg.Type())),
		slog.String("message_id", msg.Header().MessageID),
	)

	env := uftp.NewIncomingEnvelope(sender, msg, string(body), string(payload))

	outcome, err := h.processor.Process(ctx, env)
	if err != nil {
		response.RespondWithError(w, r, err)
		return
	}
	logger.ContextWithLogAttrs(ctx, slog.String("outcome", outcome.State.String()))

	if err := h.recorder.Save(ctx, env); err != nil {
		if errors.Is(err, store.ErrAlreadyStored) {
			// a concurrent delivery of the same message won the race
			reqLogger.Warn("message already stored", slog.String("message_id", msg.Header().MessageID))
		} else {
			response.RespondWithError(w, r, err)
			return
		}
	}

	response.RespondWithStatusCodeOnly(w, http.StatusOK)
}
