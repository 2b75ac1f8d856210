package uftp

import (
	"testing"
	"time"
)

func TestReferenceToFlipsDirectionAndDomains(t *testing.T) {
	offer := &FlexOffer{
		FlexHeader: FlexHeader{PayloadHeader: PayloadHeader{
			SenderDomain:    "agr.example.com",
			RecipientDomain: "dso.example.com",
			ConversationID:  "conv-1",
			MessageID:       "offer-1",
		}},
		FlexRequestMessageID: "request-1",
	}
	env := NewIncomingEnvelope(Participant{Domain: "agr.example.com", Role: RoleAGR}, offer, "", "")

	ref := ReferenceTo(env, offer.FlexRequestMessageID, TypeFlexRequest)

	want := MessageReference{
		MessageID:       "request-1",
		ConversationID:  "conv-1",
		Direction:       DirectionOutgoing,
		SenderDomain:    "dso.example.com",
		RecipientDomain: "agr.example.com",
		Type:            TypeFlexRequest,
	}
	if ref != want {
		t.Errorf("ReferenceTo() = %+v, want %+v", ref, want)
	}

	out := NewOutgoingEnvelope(Participant{Domain: "agr.example.com", Role: RoleAGR}, offer)
	if ReferenceTo(out, "request-1", TypeFlexRequest).Direction != DirectionIncoming {
		t.Error("outgoing envelope should reference an incoming message")
	}
}

func TestNewResponseFor(t *testing.T) {
	now := time.Date(2022, 3, 26, 12, 0, 0, 0, time.UTC)
	req := &FlexRequest{FlexHeader: FlexHeader{PayloadHeader: PayloadHeader{
		Version:         "3.0.0",
		SenderDomain:    "dso.example.com",
		RecipientDomain: "agr.example.com",
		MessageID:       "request-1",
		ConversationID:  "conv-1",
	}}}

	tests := []struct {
		name       string
		result     ValidationResult
		wantResult ResultType
		wantReason string
	}{
		{"accepted", ValidationOK(), ResultAccepted, ""},
		{"rejected", ValidationRejected("ISP out of bounds"), ResultRejected, "ISP out of bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := NewResponseFor(req, tt.result, now)
			if err != nil {
				t.Fatalf("NewResponseFor: %v", err)
			}
			r, ok := resp.(*FlexRequestResponse)
			if !ok {
				t.Fatalf("got %T, want *FlexRequestResponse", resp)
			}
			h := r.Header()
			if h.SenderDomain != "agr.example.com" || h.RecipientDomain != "dso.example.com" {
				t.Errorf("response not addressed back to sender: %+v", h)
			}
			if h.ConversationID != "conv-1" || h.Version != "3.0.0" {
				t.Errorf("conversation/version not kept: %+v", h)
			}
			if h.MessageID == "" || h.MessageID == "request-1" {
				t.Errorf("response needs a fresh message id, got %q", h.MessageID)
			}
			if r.ReferenceMessageID() != "request-1" {
				t.Errorf("ReferenceMessageID() = %q", r.ReferenceMessageID())
			}
			if r.Response().Result != tt.wantResult || r.Response().RejectionReason != tt.wantReason {
				t.Errorf("result = %q/%q, want %q/%q", r.Response().Result, r.Response().RejectionReason, tt.wantResult, tt.wantReason)
			}
		})
	}

	if _, err := NewResponseFor(&FlexRequestResponse{}, ValidationOK(), now); err == nil {
		t.Error("expected error when answering a response")
	}
}

func TestEveryRequestTypeHasAResponse(t *testing.T) {
	for msgType, factory := range messageFactories {
		if msgType.IsResponse() {
			continue
		}
		resp, err := NewResponseFor(factory(), ValidationOK(), time.Now())
		if err != nil {
			t.Errorf("%s: %v", msgType, err)
			continue
		}
		if resp.RequestType() != msgType {
			t.Errorf("%s: response %s answers %s", msgType, resp.Type(), resp.RequestType())
		}
		if !resp.Type().IsResponse() {
			t.Errorf("%s: %s is not tagged as a response", msgType, resp.Type())
		}
	}
}

func TestValidationResultInvariant(t *testing.T) {
	ok := ValidationOK()
	if !ok.Valid() || ok.RejectionReason() != "" {
		t.Errorf("ok result carries a reason: %+v", ok)
	}
	rejected := ValidationRejected("")
	if rejected.Valid() || rejected.RejectionReason() == "" {
		t.Errorf("rejected result must carry a reason: %+v", rejected)
	}
}

func TestFillHeader(t *testing.T) {
	now := time.Date(2022, 3, 26, 12, 0, 0, 0, time.UTC)

	t.Run("fills empty fields", func(t *testing.T) {
		msg := &FlexRequest{}
		if err := FillHeader(msg, "dso.example.com", now); err != nil {
			t.Fatalf("FillHeader: %v", err)
		}
		h := msg.Header()
		if h.SenderDomain != "dso.example.com" || !h.TimeStamp.Equal(now) {
			t.Errorf("unexpected header %+v", h)
		}
		if h.MessageID == "" || h.ConversationID == "" || h.MessageID == h.ConversationID {
			t.Errorf("expected distinct generated ids, got %q and %q", h.MessageID, h.ConversationID)
		}
	})

	t.Run("keeps set fields", func(t *testing.T) {
		msg := &TestMessageResponse{ResponseHeader: ResponseHeader{PayloadHeader: PayloadHeader{
			SenderDomain:   "agr.example.com",
			MessageID:      "m-1",
			ConversationID: "c-1",
		}}}
		if err := FillHeader(msg, "dso.example.com", now); err != nil {
			t.Fatalf("FillHeader: %v", err)
		}
		h := msg.Header()
		if h.SenderDomain != "agr.example.com" || h.MessageID != "m-1" || h.ConversationID != "c-1" {
			t.Errorf("set fields changed: %+v", h)
		}
	})
}
