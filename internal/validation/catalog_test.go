package validation

import (
	"context"
	"testing"
	"time"

	"github.com/uftp-network/uftp-engine/internal/uftp"
	"github.com/uftp-network/uftp-engine/internal/uftp/uftptest"
)

const (
	agrDomain = "agr.example.com"
	dsoDomain = "dso.example.com"
	convID    = "0d5d8b2e-7c1a-4b8e-9f3e-2a6c1d4e5f60"
)

var (
	agr = uftp.Participant{Domain: agrDomain, Role: uftp.RoleAGR}
	dso = uftp.Participant{Domain: dsoDomain, Role: uftp.RoleDSO}

	// fixed clock: the day before the period used below
	testNow = time.Date(2022, 3, 26, 12, 0, 0, 0, time.UTC)
)

func testHeader(from, to, id string) uftp.PayloadHeader {
	return uftp.PayloadHeader{
		Version:         "3.0.0",
		SenderDomain:    from,
		RecipientDomain: to,
		TimeStamp:       testNow,
		MessageID:       id,
		ConversationID:  convID,
	}
}

func testFlexHeader(from, to, id string) uftp.FlexHeader {
	return uftp.FlexHeader{
		PayloadHeader: testHeader(from, to, id),
		ISPDuration:   "PT15M",
		TimeZone:      "Europe/Amsterdam",
		Period:        "2022-03-27",
	}
}

func flexRequest(isps ...uftp.FlexRequestISP) *uftp.FlexRequest {
	return &uftp.FlexRequest{
		FlexHeader:         testFlexHeader(dsoDomain, agrDomain, "request-1"),
		ExpirationDateTime: testNow.Add(6 * time.Hour),
		ISPs:               isps,
	}
}

func requested(start, duration int, minPower, maxPower int64) uftp.FlexRequestISP {
	return uftp.FlexRequestISP{Disposition: uftp.DispositionRequested, Start: start, Duration: duration, MinPower: minPower, MaxPower: maxPower}
}

func option(ref string, price uftp.Amount, isps ...uftp.PowerISP) uftp.FlexOfferOption {
	return uftp.FlexOfferOption{OptionReference: ref, Price: price, ISPs: isps}
}

func isp(start, duration int, power int64) uftp.PowerISP {
	return uftp.PowerISP{Start: start, Duration: duration, Power: power}
}

func flexOffer(requestID string, options ...uftp.FlexOfferOption) *uftp.FlexOffer {
	return &uftp.FlexOffer{
		FlexHeader:           testFlexHeader(agrDomain, dsoDomain, "offer-1"),
		ExpirationDateTime:   testNow.Add(2 * time.Hour),
		FlexRequestMessageID: requestID,
		Currency:             "EUR",
		OfferOptions:         options,
	}
}

func flexOrder(optionRef string, price uftp.Amount, isps ...uftp.PowerISP) *uftp.FlexOrder {
	return &uftp.FlexOrder{
		FlexHeader:         testFlexHeader(dsoDomain, agrDomain, "order-1"),
		FlexOfferMessageID: "offer-1",
		Price:              price,
		Currency:           "EUR",
		OrderReference:     "order-ref-1",
		OptionReference:    optionRef,
		ISPs:               isps,
	}
}

// received wraps msg as received by this participant from its header sender.
func received(msg uftp.Message) uftp.Envelope {
	sender := agr
	if msg.Header().SenderDomain == dsoDomain {
		sender = dso
	}
	return uftp.NewIncomingEnvelope(sender, msg, "", "")
}

func runValidator(t *testing.T, v Validator, env uftp.Envelope) bool {
	t.Helper()
	if !v.AppliesTo(env.Payload.Type()) {
		t.Fatalf("%s does not apply to %s", v.Name(), env.Payload.Type())
	}
	ok, err := v.Valid(context.Background(), env)
	if err != nil {
		t.Fatalf("%s: %v", v.Name(), err)
	}
	// same inputs, same answer
	again, err := v.Valid(context.Background(), env)
	if err != nil || again != ok {
		t.Fatalf("%s is not idempotent", v.Name())
	}
	return ok
}

func TestFlexRequestValidators(t *testing.T) {
	tests := []struct {
		name string
		v    Validator
		msg  uftp.Message
		want bool
	}{
		{"requested isp present", NewIspRequestedDispositionValidator(), flexRequest(requested(1, 1, 0, 100)), true},
		{"only available isps", NewIspRequestedDispositionValidator(),
			flexRequest(uftp.FlexRequestISP{Disposition: uftp.DispositionAvailable, Start: 1}), false},
		{"no isps", NewIspRequestedDispositionValidator(), flexRequest(), false},
		{"consistent direction", NewIspPowerDiscrepancyValidator(), flexRequest(requested(1, 1, -500, 0)), true},
		{"contradictory direction", NewIspPowerDiscrepancyValidator(), flexRequest(requested(1, 1, -500, 500)), false},
		{"contradiction on available isp ignored", NewIspPowerDiscrepancyValidator(),
			flexRequest(uftp.FlexRequestISP{Disposition: uftp.DispositionAvailable, Start: 1, MinPower: -1, MaxPower: 1}), true},
		{"expiration after timestamp", NewExpirationInFutureValidator(), flexRequest(requested(1, 1, 0, 1)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runValidator(t, tt.v, received(tt.msg)); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.v.Name(), got, tt.want)
			}
		})
	}
}

func TestFlexOfferValidators(t *testing.T) {
	eur := func(prices ...uftp.Amount) *uftp.FlexOffer {
		var options []uftp.FlexOfferOption
		for i, p := range prices {
			options = append(options, option(string(rune('a'+i)), p, isp(5, 1, -100)))
		}
		return flexOffer("", options...)
	}
	withCurrency := func(code string, offer *uftp.FlexOffer) *uftp.FlexOffer {
		offer.Currency = code
		return offer
	}
	withFactor := func(f uftp.Amount) *uftp.FlexOffer {
		offer := eur("1.00")
		offer.OfferOptions[0].MinActivationFactor = f
		return offer
	}

	tests := []struct {
		name string
		v    Validator
		msg  uftp.Message
		want bool
	}{
		{"known currency", NewCurrencyValidator(), eur("1.00"), true},
		{"unknown currency", NewCurrencyValidator(), withCurrency("ABC", eur("1.00")), false},
		{"empty currency", NewCurrencyValidator(), withCurrency("", eur("1.00")), false},
		{"lower-case currency", NewCurrencyValidator(), withCurrency("eur", eur("1.00")), false},
		{"eur two digits", NewPriceScaleValidator(), eur("12.50", "0.00"), true},
		{"eur one digit", NewPriceScaleValidator(), eur("12.5"), false},
		{"eur three digits", NewPriceScaleValidator(), eur("12.500"), false},
		{"eur integer", NewPriceScaleValidator(), eur("12"), false},
		{"jpy integer", NewPriceScaleValidator(), withCurrency("JPY", eur("1250")), true},
		{"jpy with fraction", NewPriceScaleValidator(), withCurrency("JPY", eur("1250.00")), false},
		{"price not a number", NewPriceScaleValidator(), eur("cheap"), false},
		{"price in lower-case currency", NewPriceScaleValidator(), withCurrency("eur", eur("1.00")), false},
		{"no activation factor", NewMinActivationFactorValidator(), eur("1.00"), true},
		{"activation factor one", NewMinActivationFactorValidator(), withFactor("1"), true},
		{"activation factor half", NewMinActivationFactorValidator(), withFactor("0.5"), true},
		{"activation factor zero", NewMinActivationFactorValidator(), withFactor("0"), false},
		{"activation factor above one", NewMinActivationFactorValidator(), withFactor("1.01"), false},
		{"activation factor negative", NewMinActivationFactorValidator(), withFactor("-0.5"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runValidator(t, tt.v, received(tt.msg)); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.v.Name(), got, tt.want)
			}
		})
	}
}

func TestSolicitedOfferValidators(t *testing.T) {
	now := func() time.Time { return testNow }

	// the DSO's view: it sent the request and receives the offer
	req := flexRequest(requested(5, 1, -1000, 0), uftp.FlexRequestISP{Disposition: uftp.DispositionAvailable, Start: 7})
	store := &uftptest.Store{}
	store.Add(uftp.DirectionOutgoing, req)

	expired := flexRequest(requested(5, 1, -1000, 0))
	expired.MessageID = "request-expired"
	expired.ExpirationDateTime = testNow.Add(-time.Minute)
	store.Add(uftp.DirectionOutgoing, expired)

	tests := []struct {
		name  string
		v     Validator
		offer *uftp.FlexOffer
		want  bool
	}{
		{"unsolicited offer", NewActiveFlexRequestValidator(store, now), flexOffer("", option("a", "1.00", isp(9, 1, 1))), true},
		{"active request", NewActiveFlexRequestValidator(store, now), flexOffer("request-1", option("a", "1.00", isp(5, 1, -100))), true},
		{"unknown request", NewActiveFlexRequestValidator(store, now), flexOffer("request-404", option("a", "1.00", isp(5, 1, -100))), false},
		{"expired request", NewActiveFlexRequestValidator(store, now), flexOffer("request-expired", option("a", "1.00", isp(5, 1, -100))), false},
		{"option covers requested isp", NewFlexOptionRequestMatchValidator(store),
			flexOffer("request-1", option("a", "1.00", isp(4, 1, 0)), option("b", "1.00", isp(5, 1, -100))), true},
		{"option covers only available isp", NewFlexOptionRequestMatchValidator(store),
			flexOffer("request-1", option("a", "1.00", isp(7, 1, -100))), false},
		{"option with different duration", NewFlexOptionRequestMatchValidator(store),
			flexOffer("request-1", option("a", "1.00", isp(5, 2, -100))), false},
		{"unsolicited offer not matched", NewFlexOptionRequestMatchValidator(store), flexOffer("", option("a", "1.00", isp(9, 1, 1))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runValidator(t, tt.v, received(tt.offer)); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.v.Name(), got, tt.want)
			}
		})
	}
}

func TestFlexOrderValidators(t *testing.T) {
	// the AGR's view: it sent the offers and receives the order
	single := flexOffer("", option("a", "10.50", isp(5, 1, -100)))
	withExtra := flexOffer("", option("a", "10.50", isp(5, 1, -100), isp(6, 1, -100)))
	withExtra.MessageID = "offer-extra"
	multi := flexOffer("", option("a", "10.50", isp(5, 1, -100)), option("b", "20.00", isp(5, 1, -200)))
	multi.MessageID = "offer-multi"

	store := &uftptest.Store{}
	for _, o := range []*uftp.FlexOffer{single, withExtra, multi} {
		store.Add(uftp.DirectionOutgoing, o)
	}

	orderFor := func(offerID, optionRef string, price uftp.Amount, isps ...uftp.PowerISP) *uftp.FlexOrder {
		o := flexOrder(optionRef, price, isps...)
		o.FlexOfferMessageID = offerID
		return o
	}

	tests := []struct {
		name  string
		v     Validator
		order *uftp.FlexOrder
		want  bool
	}{
		{"isps match", NewFlexOrderIspMatchValidator(store), orderFor("offer-1", "", "10.50", isp(5, 1, -100)), true},
		{"extra offer isp", NewFlexOrderIspMatchValidator(store), orderFor("offer-extra", "", "10.50", isp(5, 1, -100)), false},
		{"extra order isp", NewFlexOrderIspMatchValidator(store), orderFor("offer-1", "", "10.50", isp(5, 1, -100), isp(6, 1, -100)), false},
		{"different start", NewFlexOrderIspMatchValidator(store), orderFor("offer-1", "", "10.50", isp(6, 1, -100)), false},
		{"unknown offer", NewFlexOrderIspMatchValidator(store), orderFor("offer-404", "", "10.50", isp(5, 1, -100)), false},
		{"named option isps match", NewFlexOrderIspMatchValidator(store), orderFor("offer-multi", "b", "20.00", isp(5, 1, -200)), true},

		{"power matches only option", NewFlexOrderFlexibilityMatchValidator(store), orderFor("offer-1", "", "10.50", isp(5, 1, -100)), true},
		{"power differs", NewFlexOrderFlexibilityMatchValidator(store), orderFor("offer-1", "", "10.50", isp(5, 1, -150)), false},
		{"power matches named option", NewFlexOrderFlexibilityMatchValidator(store), orderFor("offer-multi", "b", "20.00", isp(5, 1, -200)), true},
		{"power of other option", NewFlexOrderFlexibilityMatchValidator(store), orderFor("offer-multi", "b", "20.00", isp(5, 1, -100)), false},
		{"no reference with several options", NewFlexOrderFlexibilityMatchValidator(store), orderFor("offer-multi", "", "10.50", isp(5, 1, -100)), false},
		{"unknown option reference", NewFlexOrderFlexibilityMatchValidator(store), orderFor("offer-multi", "z", "10.50", isp(5, 1, -100)), false},

		{"price equal", NewFlexOrderPriceMatchValidator(store), orderFor("offer-1", "", "10.50", isp(5, 1, -100)), true},
		{"price equal ignoring scale", NewFlexOrderPriceMatchValidator(store), orderFor("offer-1", "", "10.5", isp(5, 1, -100)), true},
		{"price differs", NewFlexOrderPriceMatchValidator(store), orderFor("offer-1", "", "10.49", isp(5, 1, -100)), false},
		{"price of named option", NewFlexOrderPriceMatchValidator(store), orderFor("offer-multi", "b", "20", isp(5, 1, -200)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runValidator(t, tt.v, received(tt.order)); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.v.Name(), got, tt.want)
			}
		})
	}
}

func TestFlexOfferNotRevokedValidator(t *testing.T) {
	store := &uftptest.Store{}
	v := NewFlexOfferNotRevokedValidator(store)
	order := flexOrder("", "10.50", isp(5, 1, -100))

	if !runValidator(t, v, received(order)) {
		t.Fatal("order for an offer without revocation rejected")
	}

	store.Add(uftp.DirectionOutgoing, &uftp.FlexOfferRevocation{
		PayloadHeader:      testHeader(agrDomain, dsoDomain, "revocation-1"),
		FlexOfferMessageID: "offer-1",
	})
	if runValidator(t, v, received(order)) {
		t.Error("order for a revoked offer accepted")
	}
}

func TestFlexMessageValidators(t *testing.T) {
	prognosis := func(mutate func(*uftp.DPrognosis)) *uftp.DPrognosis {
		p := &uftp.DPrognosis{
			FlexHeader: testFlexHeader(agrDomain, dsoDomain, "prognosis-1"),
			ISPs:       []uftp.PowerISP{isp(1, 4, 100), isp(5, 1, 200)},
		}
		if mutate != nil {
			mutate(p)
		}
		return p
	}

	tests := []struct {
		name string
		v    Validator
		msg  uftp.Message
		want bool
	}{
		{"valid zone", NewTimeZoneValidator(), prognosis(nil), true},
		{"unknown zone", NewTimeZoneValidator(), prognosis(func(p *uftp.DPrognosis) { p.TimeZone = "Europe/Atlantis" }), false},
		{"agreed isp duration", NewIspDurationValidator(15 * time.Minute), prognosis(nil), true},
		{"other isp duration", NewIspDurationValidator(15 * time.Minute), prognosis(func(p *uftp.DPrognosis) { p.ISPDuration = "PT5M" }), false},
		{"calendar isp duration", NewIspDurationValidator(0), prognosis(func(p *uftp.DPrognosis) { p.ISPDuration = "P1M" }), false},
		{"valid period", NewPeriodValidator(), prognosis(nil), true},
		{"bad period", NewPeriodValidator(), prognosis(func(p *uftp.DPrognosis) { p.Period = "27/03/2022" }), false},
		{"last isp of short day", NewIspBoundsValidator(), prognosis(func(p *uftp.DPrognosis) { p.ISPs = []uftp.PowerISP{isp(92, 1, 1)} }), true},
		{"isp beyond short day", NewIspBoundsValidator(), prognosis(func(p *uftp.DPrognosis) { p.ISPs = []uftp.PowerISP{isp(93, 1, 1)} }), false},
		{"isp spanning end of day", NewIspBoundsValidator(), prognosis(func(p *uftp.DPrognosis) { p.ISPs = []uftp.PowerISP{isp(91, 3, 1)} }), false},
		{"isp 100 on long day", NewIspBoundsValidator(), prognosis(func(p *uftp.DPrognosis) {
			p.Period = "2022-10-30"
			p.ISPs = []uftp.PowerISP{isp(100, 1, 1)}
		}), true},
		{"isp zero", NewIspBoundsValidator(), prognosis(func(p *uftp.DPrognosis) { p.ISPs = []uftp.PowerISP{isp(0, 1, 1)} }), false},
		{"adjacent isps", NewIspOverlapValidator(), prognosis(nil), true},
		{"overlapping isps", NewIspOverlapValidator(), prognosis(func(p *uftp.DPrognosis) { p.ISPs = []uftp.PowerISP{isp(1, 4, 1), isp(4, 1, 1)} }), false},
		{"options may repeat isps", NewIspOverlapValidator(),
			flexOffer("", option("a", "1.00", isp(5, 1, 1)), option("b", "1.00", isp(5, 1, 2))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runValidator(t, tt.v, received(tt.msg)); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.v.Name(), got, tt.want)
			}
		})
	}
}

func TestBaseValidators(t *testing.T) {
	validMsg := func() *uftp.TestMessage {
		return &uftp.TestMessage{PayloadHeader: testHeader(dsoDomain, agrDomain, "1f0c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f")}
	}
	mutated := func(f func(*uftp.TestMessage)) *uftp.TestMessage {
		m := validMsg()
		f(m)
		return m
	}

	tests := []struct {
		name string
		v    Validator
		env  uftp.Envelope
		want bool
	}{
		{"uuid message id", NewMessageIDValidator(), received(validMsg()), true},
		{"non uuid message id", NewMessageIDValidator(), received(mutated(func(m *uftp.TestMessage) { m.MessageID = "msg-1" })), false},
		{"uuid conversation id", NewConversationIDValidator(), received(validMsg()), true},
		{"empty conversation id", NewConversationIDValidator(), received(mutated(func(m *uftp.TestMessage) { m.ConversationID = "" })), false},
		{"supported version", NewVersionValidator([]string{"3.0.0"}), received(validMsg()), true},
		{"unsupported version", NewVersionValidator([]string{"3.0.0"}), received(mutated(func(m *uftp.TestMessage) { m.Version = "2.0" })), false},
		{"valid domains", NewDomainValidator(), received(validMsg()), true},
		{"invalid recipient domain", NewDomainValidator(), received(mutated(func(m *uftp.TestMessage) { m.RecipientDomain = "agr_example com" })), false},
		{"sender differs from envelope", NewDomainValidator(), uftp.NewIncomingEnvelope(agr, validMsg(), "", ""), false},
		{"dso may send test message", NewSenderRoleValidator(), received(validMsg()), true},
		{"aggregator may not order", NewSenderRoleValidator(),
			uftp.NewIncomingEnvelope(agr, flexOrder("", "1.00"), "", ""), false},
		{"hosted recipient", NewRecipientValidator([]string{agrDomain}), received(validMsg()), true},
		{"foreign recipient", NewRecipientValidator([]string{"other.example.com"}), received(validMsg()), false},
		{"outgoing not checked", NewRecipientValidator([]string{"other.example.com"}), uftp.NewOutgoingEnvelope(dso, validMsg()), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runValidator(t, tt.v, tt.env); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.v.Name(), got, tt.want)
			}
		})
	}
}

func TestReferencedRequestValidator(t *testing.T) {
	store := &uftptest.Store{}
	sent := &uftp.TestMessage{PayloadHeader: testHeader(agrDomain, dsoDomain, "test-1")}
	store.Add(uftp.DirectionOutgoing, sent)
	v := NewReferencedRequestValidator(store)

	answer := func(refID string) uftp.Envelope {
		return received(&uftp.TestMessageResponse{
			ResponseHeader:       uftp.ResponseHeader{PayloadHeader: testHeader(dsoDomain, agrDomain, "resp-1"), Result: uftp.ResultAccepted},
			TestMessageMessageID: refID,
		})
	}

	if !runValidator(t, v, answer("test-1")) {
		t.Error("response to a sent request rejected")
	}
	if runValidator(t, v, answer("test-404")) {
		t.Error("response to an unknown request accepted")
	}
}

func TestDefaultChainAcceptsConsistentConversation(t *testing.T) {
	// AGR side: it received the request, sent the offer and now receives the order
	req := flexRequest(requested(5, 1, -1000, 0))
	req.ExpirationDateTime = testNow.Add(24 * time.Hour)
	req.MessageID = "6f1c9a8e-0a4e-4f9b-8a1e-0e2d3c4b5a69"
	offer := flexOffer(req.MessageID, option("a", "10.50", isp(5, 1, -500)))
	offer.MessageID = "2b1f7a0e-5b0c-4a5e-9d5b-0f3c7f4e2a11"
	order := flexOrder("a", "10.5", isp(5, 1, -500))
	order.MessageID = "9c8b7a6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	order.FlexOfferMessageID = offer.MessageID

	store := &uftptest.Store{}
	store.Add(uftp.DirectionIncoming, req)
	store.Add(uftp.DirectionOutgoing, offer)

	chain := NewDefaultChain(Options{
		Store:             store,
		SupportedVersions: []string{"3.0.0"},
		ISPDuration:       15 * time.Minute,
		HostedDomains:     []string{agrDomain},
		Now:               func() time.Time { return testNow },
	})

	result, err := chain.Validate(context.Background(), received(order))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid() {
		t.Fatalf("order rejected: %s", result.RejectionReason())
	}

	order.Price = "11.00"
	result, err = chain.Validate(context.Background(), received(order))
	if err != nil {
		t.Fatal(err)
	}
	if result.RejectionReason() != ReasonOrderPrice {
		t.Errorf("rejection = %q, want %q", result.RejectionReason(), ReasonOrderPrice)
	}

	// chain order is deterministic: base checks come first
	vs := chain.Validators()
	for i := 1; i < len(vs); i++ {
		if vs[i-1].Order() > vs[i].Order() {
			t.Fatalf("validators out of order at %d: %s before %s", i, vs[i-1].Name(), vs[i].Name())
		}
	}
}
