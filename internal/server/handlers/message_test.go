package handlers

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/duplicate"
	"github.com/uftp-network/uftp-engine/internal/receiving"
	"github.com/uftp-network/uftp-engine/internal/server/response"
	"github.com/uftp-network/uftp-engine/internal/uftp"
	"github.com/uftp-network/uftp-engine/internal/uftp/uftptest"
	"github.com/uftp-network/uftp-engine/internal/validation"
)

var (
	dso = uftp.Participant{Domain: "dso.example.com", Role: uftp.RoleDSO}
	agr = uftp.Participant{Domain: "agr.example.com", Role: uftp.RoleAGR}
)

// memoryRecorder stores envelopes and feeds them to a uftptest.Store so duplicate detection sees them.
type memoryRecorder struct {
	mu    sync.Mutex
	store *uftptest.Store
	saved []uftp.Envelope
}

func (m *memoryRecorder) Save(_ context.Context, env uftp.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, env)
	m.store.Add(env.Direction(), env.Payload)
	return nil
}

type receiveFixture struct {
	handler    *ReceiveMessageHandler
	recorder   *memoryRecorder
	payloads   *uftptest.Handler
	sink       *uftptest.ErrorSink
	sealer     *crypto.Sealer
	privateKey string
}

func newReceiveFixture(t *testing.T) *receiveFixture {
	t.Helper()

	sealer, err := crypto.NewSealer(2)
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	t.Cleanup(sealer.Close)

	priv, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair: %v", err)
	}

	directory := uftptest.NewDirectory()
	directory.Register(dso, "https://dso.example.com/shapeshifter/api/v3/message",
		crypto.EncodePublicKeyBase64(priv.Public().(ed25519.PublicKey)))

	store := &uftptest.Store{}
	payloads := &uftptest.Handler{}
	sink := &uftptest.ErrorSink{}
	chain := validation.NewChain(validation.New("Rejecter", validation.OrderAfterSpec, "rejected by test",
		[]uftp.MessageType{uftp.TypeTestMessage},
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			return env.Payload.Header().MessageID != "reject-me", nil
		}))
	processor := receiving.NewProcessor(duplicate.NewDetector(store), chain, payloads, sink, uftp.RoleAGR)
	recorder := &memoryRecorder{store: store}

	return &receiveFixture{
		handler:    NewReceiveMessageHandler(directory, sealer, processor, recorder, sink),
		recorder:   recorder,
		payloads:   payloads,
		sink:       sink,
		sealer:     sealer,
		privateKey: crypto.EncodePrivateKeyBase64(priv),
	}
}

func testMessage(id string) *uftp.TestMessage {
	return &uftp.TestMessage{PayloadHeader: uftp.PayloadHeader{
		Version:         "3.0.0",
		SenderDomain:    dso.Domain,
		RecipientDomain: agr.Domain,
		TimeStamp:       time.Date(2022, 3, 26, 12, 0, 0, 0, time.UTC),
		MessageID:       id,
		ConversationID:  "conv-1",
	}}
}

// signed returns the SignedMessage XML for msg sealed with key.
func (f *receiveFixture) signed(t *testing.T, msg uftp.Message, key string) []byte {
	t.Helper()
	payload, err := uftp.MarshalXML(msg)
	if err != nil {
		t.Fatalf("MarshalXML: %v", err)
	}
	sm, err := f.sealer.Seal(context.Background(), payload, dso, key)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	body, err := uftp.MarshalSignedMessage(sm)
	if err != nil {
		t.Fatalf("MarshalSignedMessage: %v", err)
	}
	return body
}

func (f *receiveFixture) post(body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/shapeshifter/api/v3/message", bytes.NewReader(body))
	req.Header.Set("Content-Type", "text/xml")
	rec := httptest.NewRecorder()
	f.handler.HandleReceiveMessage(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.ErrorCode
}

func TestReceiveMessageAccepted(t *testing.T) {
	f := newReceiveFixture(t)

	rec := f.post(f.signed(t, testMessage("m-1"), f.privateKey))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.payloads.Incoming) != 1 {
		t.Errorf("expected 1 dispatched message, got %d", len(f.payloads.Incoming))
	}
	if len(f.payloads.Outgoing) != 1 {
		t.Fatalf("expected 1 response to be sent, got %d", len(f.payloads.Outgoing))
	}
	resp, ok := f.payloads.Outgoing[0].Message.(*uftp.TestMessageResponse)
	if !ok {
		t.Fatalf("expected TestMessageResponse, got %T", f.payloads.Outgoing[0].Message)
	}
	if resp.Result != uftp.ResultAccepted {
		t.Errorf("expected Accepted, got %s", resp.Result)
	}
	if len(f.recorder.saved) != 1 {
		t.Fatalf("expected message to be stored, got %d saves", len(f.recorder.saved))
	}
	if f.recorder.saved[0].Direction() != uftp.DirectionIncoming {
		t.Errorf("expected incoming envelope to be stored")
	}
}

func TestReceiveMessageRejectedIsAnsweredNotDispatched(t *testing.T) {
	f := newReceiveFixture(t)

	rec := f.post(f.signed(t, testMessage("reject-me"), f.privateKey))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.payloads.Incoming) != 0 {
		t.Errorf("rejected message was dispatched")
	}
	if len(f.payloads.Outgoing) != 1 {
		t.Fatalf("expected a rejection response, got %d outgoing", len(f.payloads.Outgoing))
	}
	resp := f.payloads.Outgoing[0].Message.(*uftp.TestMessageResponse)
	if resp.Result != uftp.ResultRejected || resp.RejectionReason != "rejected by test" {
		t.Errorf("unexpected response %s %q", resp.Result, resp.RejectionReason)
	}
}

func TestReceiveMessageDuplicate(t *testing.T) {
	f := newReceiveFixture(t)
	body := f.signed(t, testMessage("m-1"), f.privateKey)

	if rec := f.post(body); rec.Code != http.StatusOK {
		t.Fatalf("first delivery: expected 200, got %d", rec.Code)
	}

	rec := f.post(body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(uftp.ErrCodeDuplicateMessage) {
		t.Errorf("expected error code %s, got %s", uftp.ErrCodeDuplicateMessage, code)
	}
	if len(f.sink.Duplicates) != 1 {
		t.Errorf("expected sink to be told about the duplicate")
	}
}

func TestReceiveMessageFailures(t *testing.T) {
	f := newReceiveFixture(t)

	otherKey, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair: %v", err)
	}

	unknown := testMessage("m-2")
	unknownBody := f.signed(t, unknown, f.privateKey)
	unknownBody = bytes.Replace(unknownBody, []byte(dso.Domain), []byte("unknown.example.com"), 1)

	tests := []struct {
		name       string
		body       []byte
		wantStatus int
	}{
		{
			name:       "not xml",
			body:       []byte("hello"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "signed with another key",
			body:       f.signed(t, testMessage("m-3"), crypto.EncodePrivateKeyBase64(otherKey)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown sender",
			body:       unknownBody,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.post(tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	if len(f.payloads.Incoming) != 0 {
		t.Errorf("no message should have been dispatched")
	}
	if len(f.recorder.saved) != 0 {
		t.Errorf("no message should have been stored")
	}
}

func TestReceiveMessageTooLarge(t *testing.T) {
	f := newReceiveFixture(t)
	body := f.signed(t, testMessage("m-1"), f.privateKey)

	req := httptest.NewRequest(http.MethodPost, "/shapeshifter/api/v3/message", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 16)
	f.handler.HandleReceiveMessage(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		t.Errorf("expected json error body")
	}
}
