// Package dispatch routes validated incoming messages to business handlers and hands engine-produced
// messages to an outbox.
//
// Handlers are registered per message type in an explicit table. Types without a handler go to the
// fallback, which logs the message and accepts it.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// HandlerFunc processes one validated incoming message.
type HandlerFunc func(ctx context.Context, env uftp.Envelope) error

// Outbox accepts messages that must be sent on behalf of sender.
type Outbox interface {
	Enqueue(ctx context.Context, sender uftp.Participant, msg uftp.Message) error
}

// Dispatcher implements uftp.PayloadHandler.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[uftp.MessageType]HandlerFunc
	fallback HandlerFunc
	outbox   Outbox
}

// New creates a Dispatcher that forwards outgoing messages to outbox.
func New(outbox Outbox) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[uftp.MessageType]HandlerFunc),
		fallback: logReceived,
		outbox:   outbox,
	}
}

// Register sets the handler for t, replacing any earlier registration.
func (d *Dispatcher) Register(t uftp.MessageType, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[t] = h
}

// SetFallback replaces the handler used for types without a registration.
func (d *Dispatcher) SetFallback(h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallback = h
}

func (d *Dispatcher) handler(t uftp.MessageType) HandlerFunc {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if h, ok := d.handlers[t]; ok {
		return h
	}
	return d.fallback
}

func (d *Dispatcher) NotifyIncoming(ctx context.Context, env uftp.Envelope) error {
	h := d.handler(env.Payload.Type())
	if err := h(ctx, env); err != nil {
		return fmt.Errorf("%s handler failed: %w", env.Payload.Type(), err)
	}
	return nil
}

func (d *Dispatcher) NotifyOutgoing(ctx context.Context, sender uftp.Participant, msg uftp.Message) error {
	if d.outbox == nil {
		return uftp.NewInternalError(fmt.Sprintf("no outbox configured, cannot send %s", msg.Type()))
	}
	return d.outbox.Enqueue(ctx, sender, msg)
}

func logReceived(ctx context.Context, env uftp.Envelope) error {
	h := env.Payload.Header()
	logger.ContextRequestLogger(ctx).Info("message received",
		slog.String("message_type", string(env.Payload.Type())),
		slog.String("message_id", h.MessageID),
		slog.String("conversation_id", h.ConversationID),
		slog.String("sender", env.Sender.String()),
	)
	return nil
}
