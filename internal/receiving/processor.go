// Package receiving implements the receive pipeline for verified incoming messages.
//
// A message moves through these states:
//
//	Received -> DuplicateChecked -> RejectedDuplicate
//	                             -> Validated -> RejectedResponse | AcceptedResponse -> Dispatched
//
// Duplicates and reused message ids stop the pipeline with a duplicate-receive error. Every
// other request gets a response, accepted or rejected, handed to PayloadHandler.NotifyOutgoing;
// only accepted requests reach NotifyIncoming. Responses are never answered: a valid response
// is dispatched and an invalid one is reported and dropped.
package receiving

import (
	"context"
	"log/slog"
	"time"

	"github.com/uftp-network/uftp-engine/internal/duplicate"
	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/metrics"
	"github.com/uftp-network/uftp-engine/internal/uftp"
	"github.com/uftp-network/uftp-engine/internal/validation"
)

// State is a step of the receive pipeline.
type State int

const (
	StateReceived State = iota
	StateDuplicateChecked
	StateRejectedDuplicate
	StateValidated
	StateRejectedResponse
	StateAcceptedResponse
	StateDispatched
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateDuplicateChecked:
		return "duplicate_checked"
	case StateRejectedDuplicate:
		return "rejected_duplicate"
	case StateValidated:
		return "validated"
	case StateRejectedResponse:
		return "rejected_response"
	case StateAcceptedResponse:
		return "accepted_response"
	case StateDispatched:
		return "dispatched"
	default:
		return "unknown"
	}
}

// Outcome describes how far a message got and what was produced.
type Outcome struct {
	State     State
	Duplicate uftp.DuplicateResult
	Result    uftp.ValidationResult

	// Response is the reply produced for a request; nil for responses and duplicates.
	Response uftp.ResponseMessage
}

// Processor runs the receive pipeline. It is safe for concurrent use.
type Processor struct {
	detector *duplicate.Detector
	chain    *validation.Chain
	handler  uftp.PayloadHandler
	sink     uftp.ErrorSink
	role     uftp.Role
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithMetrics records receive outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithClock replaces time.Now for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a Processor. role is the role this participant answers requests in.
// A nil sink discards notifications.
func NewProcessor(detector *duplicate.Detector, chain *validation.Chain, handler uftp.PayloadHandler, sink uftp.ErrorSink, role uftp.Role, opts ...Option) *Processor {
	if sink == nil {
		sink = uftp.NopErrorSink{}
	}
	p := &Processor{
		detector: detector,
		chain:    chain,
		handler:  handler,
		sink:     sink,
		role:     role,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs env through the pipeline. Errors are returned for duplicates (see
// uftp.IsDuplicateReceive) and for failures that prevented processing; a validation rejection
// is not an error.
func (p *Processor) Process(ctx context.Context, env uftp.Envelope) (Outcome, error) {
	msg := env.Payload
	h := msg.Header()
	msgType := string(msg.Type())
	log := logger.ContextRequestLogger(ctx).With(
		slog.String("message_type", msgType),
		slog.String("message_id", h.MessageID),
		slog.String("conversation_id", h.ConversationID),
		slog.String("sender", env.Sender.String()),
	)
	outcome := Outcome{State: StateReceived}

	dup, err := p.detector.Classify(ctx, msg)
	if err != nil {
		p.metrics.RecordReceived(msgType, metrics.OutcomeError)
		return outcome, err
	}
	outcome.State = StateDuplicateChecked
	outcome.Duplicate = dup

	if dup != uftp.NewMessage {
		outcome.State = StateRejectedDuplicate
		log.Warn("duplicate message received", slog.String("duplicate", dup.String()))
		p.sink.NotifyDuplicateReceived(ctx, env, dup)
		if dup == uftp.DuplicateMessage {
			p.metrics.RecordReceived(msgType, metrics.OutcomeDuplicate)
		} else {
			p.metrics.RecordReceived(msgType, metrics.OutcomeReusedID)
		}
		return outcome, uftp.NewDuplicateReceiveError(dup, h.MessageID)
	}

	result, err := p.chain.Validate(ctx, env)
	if err != nil {
		p.metrics.RecordReceived(msgType, metrics.OutcomeError)
		return outcome, err
	}
	outcome.State = StateValidated
	outcome.Result = result

	if !result.Valid() {
		log.Info("message rejected", slog.String("reason", result.RejectionReason()))
		p.sink.NotifyValidationRejected(ctx, env, result.RejectionReason())
		p.metrics.RecordRejection(result.RejectionReason())
		p.metrics.RecordReceived(msgType, metrics.OutcomeRejected)
	} else {
		p.metrics.RecordReceived(msgType, metrics.OutcomeAccepted)
	}

	if msg.Type().IsResponse() {
		if !result.Valid() {
			log.Warn("invalid response dropped", slog.String("reason", result.RejectionReason()))
			return outcome, nil
		}
		if err := p.handler.NotifyIncoming(ctx, env); err != nil {
			return outcome, err
		}
		outcome.State = StateDispatched
		return outcome, nil
	}

	response, err := uftp.NewResponseFor(msg, result, p.now())
	if err != nil {
		return outcome, err
	}
	outcome.Response = response
	outcome.State = StateRejectedResponse
	if result.Valid() {
		outcome.State = StateAcceptedResponse
	}

	// the reply is queued before the application sees the request: a failure here leaves the
	// message unstored, so a redelivery is processed as new without dispatching it twice
	self := uftp.Participant{Domain: h.RecipientDomain, Role: p.role}
	if err := p.handler.NotifyOutgoing(ctx, self, response); err != nil {
		return outcome, err
	}
	if result.Valid() {
		if err := p.handler.NotifyIncoming(ctx, env); err != nil {
			return outcome, err
		}
	}
	outcome.State = StateDispatched
	log.Debug("response dispatched", slog.String("result", string(response.Response().Result)))
	return outcome, nil
}
