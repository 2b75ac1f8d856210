package receiving

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/uftp-network/uftp-engine/internal/duplicate"
	"github.com/uftp-network/uftp-engine/internal/uftp"
	"github.com/uftp-network/uftp-engine/internal/uftp/uftptest"
	"github.com/uftp-network/uftp-engine/internal/validation"
)

var (
	dso = uftp.Participant{Domain: "dso.example.com", Role: uftp.RoleDSO}
	now = time.Date(2022, 3, 26, 12, 0, 0, 0, time.UTC)
)

func testMessage(id string) *uftp.TestMessage {
	return &uftp.TestMessage{PayloadHeader: uftp.PayloadHeader{
		Version:         "3.0.0",
		SenderDomain:    dso.Domain,
		RecipientDomain: "agr.example.com",
		TimeStamp:       now,
		MessageID:       id,
		ConversationID:  "conv-1",
	}}
}

type fixture struct {
	store     *uftptest.Store
	handler   *uftptest.Handler
	sink      *uftptest.ErrorSink
	validated int
	processor *Processor
}

// newFixture builds a processor whose chain rejects messages with MessageID "reject-me".
func newFixture() *fixture {
	f := &fixture{
		store:   &uftptest.Store{},
		handler: &uftptest.Handler{},
		sink:    &uftptest.ErrorSink{},
	}
	v := validation.New("Rejecter", validation.OrderAfterSpec, "rejected by test", []uftp.MessageType{uftp.TypeTestMessage, uftp.TypeTestMessageResponse},
		func(_ context.Context, env uftp.Envelope) (bool, error) {
			f.validated++
			return env.Payload.Header().MessageID != "reject-me", nil
		})
	f.processor = NewProcessor(duplicate.NewDetector(f.store), validation.NewChain(v), f.handler, f.sink, uftp.RoleAGR,
		WithClock(func() time.Time { return now }))
	return f
}

func received(msg uftp.Message) uftp.Envelope {
	return uftp.NewIncomingEnvelope(dso, msg, "<SignedMessage/>", "<TestMessage/>")
}

func TestProcessAcceptedRequest(t *testing.T) {
	f := newFixture()

	outcome, err := f.processor.Process(context.Background(), received(testMessage("msg-1")))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.State != StateDispatched {
		t.Errorf("state = %s, want dispatched", outcome.State)
	}
	if len(f.handler.Incoming) != 1 {
		t.Errorf("incoming dispatched %d times, want 1", len(f.handler.Incoming))
	}
	if len(f.handler.Outgoing) != 1 {
		t.Fatalf("outgoing dispatched %d times, want 1", len(f.handler.Outgoing))
	}

	out := f.handler.Outgoing[0]
	resp, ok := out.Message.(*uftp.TestMessageResponse)
	if !ok {
		t.Fatalf("response is %T", out.Message)
	}
	if resp.Result != uftp.ResultAccepted || resp.TestMessageMessageID != "msg-1" {
		t.Errorf("unexpected response %+v", resp.ResponseHeader)
	}
	if out.Sender != (uftp.Participant{Domain: "agr.example.com", Role: uftp.RoleAGR}) {
		t.Errorf("response sender = %s", out.Sender)
	}
	if resp.RecipientDomain != dso.Domain || !resp.TimeStamp.Equal(now) {
		t.Errorf("response not addressed back: %+v", resp.PayloadHeader)
	}
}

func TestProcessRejectedRequestStillAnswers(t *testing.T) {
	f := newFixture()

	outcome, err := f.processor.Process(context.Background(), received(testMessage("reject-me")))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if outcome.Result.Valid() || outcome.State != StateDispatched {
		t.Errorf("outcome = %+v", outcome)
	}
	if len(f.handler.Incoming) != 0 {
		t.Error("rejected request reached business logic")
	}
	if len(f.handler.Outgoing) != 1 {
		t.Fatalf("rejected request must be answered, got %d responses", len(f.handler.Outgoing))
	}
	resp := f.handler.Outgoing[0].Message.(uftp.ResponseMessage).Response()
	if resp.Result != uftp.ResultRejected || resp.RejectionReason != "rejected by test" {
		t.Errorf("response = %+v", resp)
	}
	if len(f.sink.Rejections) != 1 {
		t.Errorf("error sink not notified of rejection")
	}
}

func TestProcessDuplicates(t *testing.T) {
	tests := []struct {
		name   string
		stored *uftp.TestMessage
		want   uftp.DuplicateResult
	}{
		{"identical", testMessage("msg-1"), uftp.DuplicateMessage},
		{"reused id", func() *uftp.TestMessage { m := testMessage("msg-1"); m.Version = "2.0"; return m }(), uftp.ReusedIDDifferentContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.store.Add(uftp.DirectionIncoming, tt.stored)

			outcome, err := f.processor.Process(context.Background(), received(testMessage("msg-1")))
			if !uftp.IsDuplicateReceive(err) {
				t.Fatalf("err = %v, want duplicate receive error", err)
			}
			if outcome.State != StateRejectedDuplicate || outcome.Duplicate != tt.want {
				t.Errorf("outcome = %+v", outcome)
			}
			if f.validated != 0 {
				t.Error("validation ran for a duplicate")
			}
			if len(f.handler.Incoming)+len(f.handler.Outgoing) != 0 {
				t.Error("duplicate was dispatched")
			}
			if len(f.sink.Duplicates) != 1 || f.sink.Duplicates[0] != tt.want {
				t.Errorf("sink duplicates = %v", f.sink.Duplicates)
			}
		})
	}
}

func TestProcessResponses(t *testing.T) {
	response := func(id string) *uftp.TestMessageResponse {
		return &uftp.TestMessageResponse{
			ResponseHeader:       uftp.ResponseHeader{PayloadHeader: testMessage(id).PayloadHeader, Result: uftp.ResultAccepted},
			TestMessageMessageID: "sent-1",
		}
	}

	t.Run("valid response is dispatched without reply", func(t *testing.T) {
		f := newFixture()
		outcome, err := f.processor.Process(context.Background(), received(response("resp-1")))
		if err != nil {
			t.Fatal(err)
		}
		if outcome.State != StateDispatched || outcome.Response != nil {
			t.Errorf("outcome = %+v", outcome)
		}
		if len(f.handler.Incoming) != 1 || len(f.handler.Outgoing) != 0 {
			t.Errorf("incoming %d, outgoing %d", len(f.handler.Incoming), len(f.handler.Outgoing))
		}
	})

	t.Run("invalid response is dropped", func(t *testing.T) {
		f := newFixture()
		outcome, err := f.processor.Process(context.Background(), received(response("reject-me")))
		if err != nil {
			t.Fatal(err)
		}
		if outcome.State != StateValidated {
			t.Errorf("state = %s, want validated", outcome.State)
		}
		if len(f.handler.Incoming)+len(f.handler.Outgoing) != 0 {
			t.Error("invalid response was dispatched")
		}
		if len(f.sink.Rejections) != 1 {
			t.Error("invalid response not reported")
		}
	})
}

func TestProcessHandlerFailure(t *testing.T) {
	f := newFixture()
	f.handler.Err = errors.New("business logic down")

	if _, err := f.processor.Process(context.Background(), received(testMessage("msg-1"))); !errors.Is(err, f.handler.Err) {
		t.Errorf("err = %v, want handler error", err)
	}
}

func TestProcessReplyFailureDoesNotDispatch(t *testing.T) {
	f := newFixture()
	f.handler.OutgoingErr = errors.New("outbox full")
	env := received(testMessage("msg-1"))

	if _, err := f.processor.Process(context.Background(), env); !errors.Is(err, f.handler.OutgoingErr) {
		t.Fatalf("err = %v, want reply error", err)
	}
	if len(f.handler.Incoming) != 0 {
		t.Fatalf("request dispatched although its reply could not be queued")
	}

	// the peer redelivers: the message was never stored, so it is new and dispatched once
	f.handler.OutgoingErr = nil
	outcome, err := f.processor.Process(context.Background(), env)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if outcome.State != StateDispatched {
		t.Errorf("state = %s, want %s", outcome.State, StateDispatched)
	}
	if len(f.handler.Incoming) != 1 || len(f.handler.Outgoing) != 1 {
		t.Errorf("incoming %d, outgoing %d, want 1 and 1", len(f.handler.Incoming), len(f.handler.Outgoing))
	}
}
