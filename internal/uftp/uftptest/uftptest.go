// Package uftptest provides in-memory implementations of the uftp collaborator
// interfaces for use in tests.
package uftptest

import (
	"context"
	"fmt"
	"sync"

	"github.com/uftp-network/uftp-engine/internal/uftp"
)

type storedMessage struct {
	direction uftp.Direction
	msg       uftp.Message
}

// Store is an in-memory uftp.MessageStore.
type Store struct {
	mu       sync.RWMutex
	messages []storedMessage

	// Lookups counts calls to FindReferencedMessage.
	Lookups int
}

// NewStore returns a store holding msgs as incoming messages.
func NewStore(msgs ...uftp.Message) *Store {
	s := &Store{}
	for _, m := range msgs {
		s.Add(uftp.DirectionIncoming, m)
	}
	return s
}

// Add records msg as exchanged in the given direction.
func (s *Store) Add(direction uftp.Direction, msg uftp.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, storedMessage{direction: direction, msg: msg})
}

func (s *Store) FindDuplicateMessage(_ context.Context, messageID, senderDomain, recipientDomain string) (uftp.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		h := m.msg.Header()
		if h.MessageID == messageID && h.SenderDomain == senderDomain && h.RecipientDomain == recipientDomain {
			return m.msg, nil
		}
	}
	return nil, uftp.ErrMessageNotFound
}

func (s *Store) FindReferencedMessage(_ context.Context, ref uftp.MessageReference) (uftp.Message, error) {
	s.mu.Lock()
	s.Lookups++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		h := m.msg.Header()
		if m.direction == ref.Direction &&
			m.msg.Type() == ref.Type &&
			h.MessageID == ref.MessageID &&
			h.ConversationID == ref.ConversationID &&
			h.SenderDomain == ref.SenderDomain &&
			h.RecipientDomain == ref.RecipientDomain {
			return m.msg, nil
		}
	}
	return nil, uftp.ErrMessageNotFound
}

func (s *Store) FindFlexRevocation(_ context.Context, conversationID, flexOfferMessageID, senderDomain, recipientDomain string) (*uftp.FlexOfferRevocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		rev, ok := m.msg.(*uftp.FlexOfferRevocation)
		if !ok {
			continue
		}
		if rev.ConversationID == conversationID &&
			rev.FlexOfferMessageID == flexOfferMessageID &&
			rev.SenderDomain == senderDomain &&
			rev.RecipientDomain == recipientDomain {
			return rev, nil
		}
	}
	return nil, uftp.ErrMessageNotFound
}

// Directory is a static uftp.ParticipantDirectory.
type Directory struct {
	Endpoints  map[string]string
	PublicKeys map[string]string
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{Endpoints: map[string]string{}, PublicKeys: map[string]string{}}
}

// Register adds a participant with its endpoint and base64 public key.
func (d *Directory) Register(p uftp.Participant, endpoint, publicKeyBase64 string) {
	d.Endpoints[p.Domain] = endpoint
	d.PublicKeys[key(p.Role, p.Domain)] = publicKeyBase64
}

func (d *Directory) GetEndpointURL(_ context.Context, p uftp.Participant) (string, error) {
	url, ok := d.Endpoints[p.Domain]
	if !ok {
		return "", uftp.NewUnknownParticipantError(fmt.Sprintf("no endpoint for %s", p))
	}
	return url, nil
}

func (d *Directory) GetPublicKey(_ context.Context, role uftp.Role, domain string) (string, error) {
	k, ok := d.PublicKeys[key(role, domain)]
	if !ok {
		return "", uftp.NewUnknownParticipantError(fmt.Sprintf("no public key for %s(%s)", domain, role))
	}
	return k, nil
}

func key(role uftp.Role, domain string) string {
	return string(role) + "/" + domain
}

// ErrorSink records notifications.
type ErrorSink struct {
	mu         sync.Mutex
	Duplicates []uftp.DuplicateResult
	ReadErrors []error
	Rejections []string
}

func (s *ErrorSink) NotifyDuplicateReceived(_ context.Context, _ uftp.Envelope, result uftp.DuplicateResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Duplicates = append(s.Duplicates, result)
}

func (s *ErrorSink) NotifyReadError(_ context.Context, _ []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReadErrors = append(s.ReadErrors, err)
}

func (s *ErrorSink) NotifyValidationRejected(_ context.Context, _ uftp.Envelope, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rejections = append(s.Rejections, reason)
}

// Outgoing is a message handed to PayloadHandler.NotifyOutgoing.
type Outgoing struct {
	Sender  uftp.Participant
	Message uftp.Message
}

// Handler records the messages passed to it.
type Handler struct {
	mu       sync.Mutex
	Incoming []uftp.Envelope
	Outgoing []Outgoing

	// Err is returned from both notify methods when set.
	Err error
	// OutgoingErr is returned from NotifyOutgoing when set.
	OutgoingErr error
}

func (h *Handler) NotifyIncoming(_ context.Context, env uftp.Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Incoming = append(h.Incoming, env)
	return h.Err
}

func (h *Handler) NotifyOutgoing(_ context.Context, sender uftp.Participant, msg uftp.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.OutgoingErr != nil {
		return h.OutgoingErr
	}
	h.Outgoing = append(h.Outgoing, Outgoing{Sender: sender, Message: msg})
	return h.Err
}
