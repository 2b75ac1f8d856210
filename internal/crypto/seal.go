package crypto

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/jackc/puddle/v2"

	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// DefaultPoolSize is the number of sealing primitives used when NewSealer is given a size < 1.
const DefaultPoolSize = 8

// primitive is one slot of sealing work. Ed25519 keeps no per-instance state, so the pool of
// primitives only bounds how many seal and open operations run at once.
type primitive struct{}

func (primitive) seal(privateKey ed25519.PrivateKey, payload []byte) []byte {
	sealed := make([]byte, 0, ed25519.SignatureSize+len(payload))
	sealed = append(sealed, ed25519.Sign(privateKey, payload)...)
	return append(sealed, payload...)
}

// open returns the payload of a sealed body, or false when the signature does not verify.
func (primitive) open(publicKey ed25519.PublicKey, sealed []byte) ([]byte, bool) {
	if len(sealed) < ed25519.SignatureSize {
		return nil, false
	}
	signature, payload := sealed[:ed25519.SignatureSize], sealed[ed25519.SignatureSize:]
	if !ed25519.Verify(publicKey, payload, signature) {
		return nil, false
	}
	return bytes.Clone(payload), true
}

// Sealer seals and verifies message bodies.
// It is safe for concurrent use; each call claims a primitive from a bounded pool and
// blocks until one is free or ctx is done.
type Sealer struct {
	pool *puddle.Pool[*primitive]
}

// NewSealer creates a Sealer backed by at most size primitives.
func NewSealer(size int32) (*Sealer, error) {
	if size < 1 {
		size = DefaultPoolSize
	}
	pool, err := puddle.NewPool(&puddle.Config[*primitive]{
		Constructor: func(context.Context) (*primitive, error) {
			return &primitive{}, nil
		},
		Destructor: func(*primitive) {},
		MaxSize:    size,
	})
	if err != nil {
		return nil, WrapInternalError(err, "failed to create sealing pool")
	}
	return &Sealer{pool: pool}, nil
}

// Close releases the pool. Calls after Close fail with an internal error.
func (s *Sealer) Close() {
	s.pool.Close()
}

// PoolStats reports the total and in-use primitive counts.
func (s *Sealer) PoolStats() (total, acquired int32) {
	stat := s.pool.Stat()
	return stat.TotalResources(), stat.AcquiredResources()
}

// withPrimitive runs fn with exclusive use of a primitive. The primitive goes back to the
// pool on every exit path, including a panic in fn.
func (s *Sealer) withPrimitive(ctx context.Context, fn func(*primitive) error) error {
	res, err := s.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return WrapInternalError(err, "interrupted while waiting for a sealing primitive")
		}
		return WrapInternalError(err, "failed to acquire sealing primitive")
	}
	defer res.Release()

	return fn(res.Value())
}

// Seal signs payload with the sender's private key and returns the signed message.
func (s *Sealer) Seal(ctx context.Context, payload []byte, sender uftp.Participant, privateKeyBase64 string) (uftp.SignedMessage, error) {
	if len(payload) == 0 {
		return uftp.SignedMessage{}, NewValidationError("payload is empty")
	}
	privateKey, err := DecodePrivateKeyBase64(privateKeyBase64)
	if err != nil {
		return uftp.SignedMessage{}, WrapSigningError(err, fmt.Sprintf("cannot seal message for %s", sender))
	}

	var body []byte
	err = s.withPrimitive(ctx, func(p *primitive) error {
		body = p.seal(privateKey, payload)
		return nil
	})
	if err != nil {
		return uftp.SignedMessage{}, err
	}

	return uftp.SignedMessage{
		SenderDomain: sender.Domain,
		SenderRole:   sender.Role,
		Body:         body,
	}, nil
}

// Verify checks the signed message against the sender's public key and returns the payload.
// A signature that does not verify and an empty payload are both authentication errors.
func (s *Sealer) Verify(ctx context.Context, sm uftp.SignedMessage, publicKeyBase64 string) ([]byte, error) {
	publicKey, err := DecodePublicKeyBase64(publicKeyBase64)
	if err != nil {
		return nil, WrapAuthenticationError(err, fmt.Sprintf("no usable public key for %s", sm.SenderDomain))
	}

	var payload []byte
	err = s.withPrimitive(ctx, func(p *primitive) error {
		opened, ok := p.open(publicKey, sm.Body)
		if !ok {
			return NewAuthenticationError(fmt.Sprintf("message from %s is not validly signed", sm.SenderDomain))
		}
		payload = opened
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(payload) == 0 {
		return nil, NewAuthenticationError(fmt.Sprintf("message from %s is not validly signed: empty payload", sm.SenderDomain))
	}
	return payload, nil
}
