package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/uftp-network/uftp-engine/internal/metrics"
	"github.com/uftp-network/uftp-engine/internal/store"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// messageSender is satisfied by *sending.Sender.
type messageSender interface {
	Send(ctx context.Context, msg uftp.Message, details uftp.SigningDetails) error
}

type roleResolver interface {
	ResolveRole(ctx context.Context, domain string) (uftp.Role, error)
}

type messageRecorder interface {
	Save(ctx context.Context, env uftp.Envelope) error
}

type outboxItem struct {
	sender uftp.Participant
	msg    uftp.Message
}

// Outbox queues the responses produced while receiving and sends them from a background worker,
// so the receiving request is answered without waiting for the reply to be delivered.
type Outbox struct {
	queue      chan outboxItem
	sender     messageSender
	resolver   roleResolver
	recorder   messageRecorder
	signingKey string
	metrics    *metrics.Metrics
	logger     *slog.Logger
	closed     atomic.Bool
}

func NewOutbox(size int, sender messageSender, resolver roleResolver, recorder messageRecorder, signingKey string, m *metrics.Metrics, logger *slog.Logger) *Outbox {
	return &Outbox{
		queue:      make(chan outboxItem, size),
		sender:     sender,
		resolver:   resolver,
		recorder:   recorder,
		signingKey: signingKey,
		metrics:    m,
		logger:     logger,
	}
}

// Enqueue implements dispatch.Outbox. It does not block: a full or drained queue is an error.
func (o *Outbox) Enqueue(ctx context.Context, sender uftp.Participant, msg uftp.Message) error {
	if o.closed.Load() {
		return uftp.NewInternalError(fmt.Sprintf("outbox closed, dropping %s %s", msg.Type(), msg.Header().MessageID))
	}
	select {
	case o.queue <- outboxItem{sender: sender, msg: msg}:
		o.metrics.SetOutboxDepth(len(o.queue))
		return nil
	default:
		return uftp.NewInternalError(fmt.Sprintf("outbox full, dropping %s %s", msg.Type(), msg.Header().MessageID))
	}
}

// Run sends queued messages until ctx is cancelled. A delivery in progress is completed,
// bounded by the sender's own timeouts. Messages still queued are left for Drain.
func (o *Outbox) Run(ctx context.Context) {
	deliverCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-o.queue:
			o.metrics.SetOutboxDepth(len(o.queue))
			o.deliver(deliverCtx, item)
		}
	}
}

// Drain closes the outbox and sends the messages still queued until the queue is empty or ctx ends.
// Call it after Run returned and no more requests are being served.
func (o *Outbox) Drain(ctx context.Context) {
	o.closed.Store(true)
	for len(o.queue) > 0 {
		if ctx.Err() != nil {
			o.logger.Warn("outbox drain stopped with unsent messages", slog.Int("count", len(o.queue)))
			return
		}
		item := <-o.queue
		o.metrics.SetOutboxDepth(len(o.queue))
		o.deliver(ctx, item)
	}
}

func (o *Outbox) deliver(ctx context.Context, item outboxItem) {
	h := item.msg.Header()
	log := o.logger.With(
		slog.String("message_type", string(item.msg.Type())),
		slog.String("message_id", h.MessageID),
		slog.String("conversation_id", h.ConversationID),
	)

	role, err := o.resolver.ResolveRole(ctx, h.RecipientDomain)
	if err != nil {
		log.Error("cannot resolve recipient", slog.String("recipient_domain", h.RecipientDomain), slog.String("error", err.Error()))
		return
	}

	details := uftp.SigningDetails{
		Sender:                 item.sender,
		SenderPrivateKeyBase64: o.signingKey,
		Recipient:              uftp.Participant{Domain: h.RecipientDomain, Role: role},
	}
	if err := o.sender.Send(ctx, item.msg, details); err != nil {
		// Send logs the failure
		return
	}

	if err := o.recorder.Save(ctx, uftp.NewOutgoingEnvelope(item.sender, item.msg)); err != nil && !errors.Is(err, store.ErrAlreadyStored) {
		log.Error("failed to store sent message", slog.String("error", err.Error()))
	}
}
