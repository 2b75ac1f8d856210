package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/uftp-network/uftp-engine/internal/uftp"
)

type recordingOutbox struct {
	sent []uftp.Message
}

func (o *recordingOutbox) Enqueue(_ context.Context, _ uftp.Participant, msg uftp.Message) error {
	o.sent = append(o.sent, msg)
	return nil
}

func envelope(msg uftp.Message) uftp.Envelope {
	return uftp.NewIncomingEnvelope(uftp.Participant{Domain: "dso.example.com", Role: uftp.RoleDSO}, msg, "", "")
}

func TestNotifyIncomingRoutesByType(t *testing.T) {
	d := New(nil)

	var got []uftp.MessageType
	record := func(_ context.Context, env uftp.Envelope) error {
		got = append(got, env.Payload.Type())
		return nil
	}
	d.Register(uftp.TypeFlexRequest, record)

	var fallback int
	d.SetFallback(func(context.Context, uftp.Envelope) error {
		fallback++
		return nil
	})

	tests := []struct {
		name string
		msg  uftp.Message
	}{
		{"registered type", &uftp.FlexRequest{}},
		{"unregistered type", &uftp.TestMessage{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.NotifyIncoming(context.Background(), envelope(tt.msg)); err != nil {
				t.Fatalf("NotifyIncoming: %v", err)
			}
		})
	}

	if len(got) != 1 || got[0] != uftp.TypeFlexRequest {
		t.Errorf("registered handler calls = %v, want [FlexRequest]", got)
	}
	if fallback != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback)
	}
}

func TestNotifyIncomingWrapsHandlerError(t *testing.T) {
	d := New(nil)
	boom := errors.New("boom")
	d.Register(uftp.TypeTestMessage, func(context.Context, uftp.Envelope) error { return boom })

	err := d.NotifyIncoming(context.Background(), envelope(&uftp.TestMessage{}))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestNotifyOutgoing(t *testing.T) {
	outbox := &recordingOutbox{}
	d := New(outbox)

	msg := &uftp.TestMessageResponse{}
	if err := d.NotifyOutgoing(context.Background(), uftp.Participant{Domain: "agr.example.com", Role: uftp.RoleAGR}, msg); err != nil {
		t.Fatalf("NotifyOutgoing: %v", err)
	}
	if len(outbox.sent) != 1 || outbox.sent[0] != msg {
		t.Errorf("outbox = %v, want the response", outbox.sent)
	}

	if err := New(nil).NotifyOutgoing(context.Background(), uftp.Participant{}, msg); err == nil {
		t.Error("expected error without outbox")
	}
}
