package validation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// Order positions a validator in the chain.
type Order int

const (
	OrderBeforeSpec          Order = 100
	OrderSpecBase            Order = 200
	OrderAfterSpecBase       Order = 300
	OrderSpecFlexMessage     Order = 400
	OrderSpecMessageSpecific Order = 500
	OrderAfterSpec           Order = 600
)

// Validator checks one rule against an envelope.
//
// Valid is only called when AppliesTo(env.Payload.Type()) is true. It returns an error only
// when the rule could not be evaluated (for example a store failure), never for a rejection.
type Validator interface {
	Name() string
	Order() Order
	AppliesTo(t uftp.MessageType) bool
	Valid(ctx context.Context, env uftp.Envelope) (bool, error)
	Reason() string
}

// Chain runs validators in (order, name) order and stops at the first rejection.
// A Chain is immutable and safe for concurrent use.
type Chain struct {
	validators []Validator
}

// NewChain sorts validators by order and then name.
func NewChain(validators ...Validator) *Chain {
	sorted := slices.Clone(validators)
	slices.SortStableFunc(sorted, func(a, b Validator) int {
		if a.Order() != b.Order() {
			return int(a.Order()) - int(b.Order())
		}
		return strings.Compare(a.Name(), b.Name())
	})
	return &Chain{validators: sorted}
}

// Validators returns the validators in evaluation order.
func (c *Chain) Validators() []Validator {
	return slices.Clone(c.validators)
}

// Validate returns the first rejection in chain order, or an accepted result when no
// applicable validator rejects.
func (c *Chain) Validate(ctx context.Context, env uftp.Envelope) (uftp.ValidationResult, error) {
	if env.Payload == nil {
		return uftp.ValidationResult{}, uftp.NewMalformedMessageError("envelope has no payload")
	}

	msgType := env.Payload.Type()
	for _, v := range c.validators {
		if !v.AppliesTo(msgType) {
			continue
		}

		ok, err := v.Valid(ctx, env)
		if err != nil {
			return uftp.ValidationResult{}, fmt.Errorf("validator %s: %w", v.Name(), err)
		}
		if !ok {
			logger.ContextRequestLogger(ctx).Debug("message rejected",
				slog.String("validator", v.Name()),
				slog.String("message_type", string(msgType)),
				slog.String("message_id", env.Payload.Header().MessageID),
				slog.String("reason", v.Reason()),
			)
			return uftp.ValidationRejected(v.Reason()), nil
		}
	}
	return uftp.ValidationOK(), nil
}

// rule is the common implementation of the built-in validators.
type rule struct {
	name   string
	order  Order
	reason string
	types  map[uftp.MessageType]struct{}
	check  func(ctx context.Context, env uftp.Envelope) (bool, error)
}

func newRule(name string, order Order, reason string, types []uftp.MessageType, check func(context.Context, uftp.Envelope) (bool, error)) *rule {
	set := make(map[uftp.MessageType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return &rule{name: name, order: order, reason: reason, types: set, check: check}
}

func (r *rule) Name() string   { return r.name }
func (r *rule) Order() Order   { return r.order }
func (r *rule) Reason() string { return r.reason }

func (r *rule) AppliesTo(t uftp.MessageType) bool {
	_, ok := r.types[t]
	return ok
}

func (r *rule) Valid(ctx context.Context, env uftp.Envelope) (bool, error) {
	return r.check(ctx, env)
}

// forType adapts a check on the concrete variant M. The payload is narrowed with a checked
// type assertion; a mismatch means AppliesTo and the payload disagree and is reported as an error.
func forType[M uftp.Message](check func(ctx context.Context, env uftp.Envelope, msg M) (bool, error)) func(context.Context, uftp.Envelope) (bool, error) {
	return func(ctx context.Context, env uftp.Envelope) (bool, error) {
		msg, ok := env.Payload.(M)
		if !ok {
			return false, uftp.NewInternalError(fmt.Sprintf("validator applied to unexpected payload %T", env.Payload))
		}
		return check(ctx, env, msg)
	}
}

// FindReferenced looks up the message of type t with messageID in env's conversation, sent in
// the opposite direction between the same parties, and narrows it to T.
// found is false when messageID is empty, the store has no such message, or it is not a T.
func FindReferenced[T uftp.Message](ctx context.Context, store uftp.MessageStore, env uftp.Envelope, messageID string, t uftp.MessageType) (msg T, found bool, err error) {
	if messageID == "" {
		return msg, false, nil
	}

	stored, err := store.FindReferencedMessage(ctx, uftp.ReferenceTo(env, messageID, t))
	if err != nil {
		if errors.Is(err, uftp.ErrMessageNotFound) {
			return msg, false, nil
		}
		return msg, false, uftp.WrapInternalError(err, fmt.Sprintf("failed to look up %s %s", t, messageID))
	}
	if stored == nil {
		return msg, false, nil
	}

	msg, found = stored.(T)
	return msg, found, nil
}

// New returns a validator for application rules. types lists the message types it applies to;
// use OrderAfterSpec unless the rule must run earlier.
func New(name string, order Order, reason string, types []uftp.MessageType, check func(ctx context.Context, env uftp.Envelope) (bool, error)) Validator {
	return newRule(name, order, reason, types, check)
}
