// Package duplicate classifies received messages against previously stored ones.
package duplicate

import (
	"bytes"
	"context"
	"errors"

	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// Detector looks up earlier messages with the same (MessageID, SenderDomain, RecipientDomain).
type Detector struct {
	store uftp.MessageStore
}

func NewDetector(store uftp.MessageStore) *Detector {
	return &Detector{store: store}
}

// Classify returns NewMessage when no earlier message has the same key, DuplicateMessage
// when the earlier message has the same type and canonical content, and
// ReusedIDDifferentContent otherwise.
func (d *Detector) Classify(ctx context.Context, msg uftp.Message) (uftp.DuplicateResult, error) {
	h := msg.Header()
	prior, err := d.store.FindDuplicateMessage(ctx, h.MessageID, h.SenderDomain, h.RecipientDomain)
	if err != nil {
		if errors.Is(err, uftp.ErrMessageNotFound) {
			return uftp.NewMessage, nil
		}
		return uftp.NewMessage, uftp.WrapInternalError(err, "failed to look up earlier message")
	}
	if prior == nil {
		return uftp.NewMessage, nil
	}

	if prior.Type() != msg.Type() {
		return uftp.ReusedIDDifferentContent, nil
	}

	same, err := sameContent(prior, msg)
	if err != nil {
		return uftp.NewMessage, err
	}
	if same {
		return uftp.DuplicateMessage, nil
	}
	return uftp.ReusedIDDifferentContent, nil
}

func sameContent(a, b uftp.Message) (bool, error) {
	ca, err := uftp.Canonicalize(a)
	if err != nil {
		return false, err
	}
	cb, err := uftp.Canonicalize(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ca, cb), nil
}
