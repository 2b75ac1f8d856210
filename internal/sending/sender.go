// Package sending implements the send pipeline: optional validation, sealing, endpoint lookup,
// HTTP POST and classification of the peer's answer.
//
// There is no retry. Failures are returned as *SendError with a kind the caller can base a
// retry policy on (see SendError.Retryable). Sealing and directory failures are returned as the
// crypto or uftp errors that caused them.
package sending

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/uftp-network/uftp-engine/internal/crypto"
	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/metrics"
	"github.com/uftp-network/uftp-engine/internal/uftp"
	"github.com/uftp-network/uftp-engine/internal/validation"
)

const (
	contentType = "text/xml"

	// maxErrorBody limits how much of a failed response body is kept in the error
	maxErrorBody = 512
)

// Config holds the HTTP timeouts.
type Config struct {
	ConnectTimeout  time.Duration
	ResponseTimeout time.Duration
}

// DefaultConfig returns the default timeouts.
func DefaultConfig() Config {
	return Config{ConnectTimeout: 5 * time.Second, ResponseTimeout: 30 * time.Second}
}

// Sender sends messages to peers. It is safe for concurrent use.
type Sender struct {
	sealer    *crypto.Sealer
	directory uftp.ParticipantDirectory
	chain     *validation.Chain
	client    *http.Client
	metrics   *metrics.Metrics
}

// Option configures a Sender.
type Option func(*Sender)

// WithMetrics records send outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sender) { s.metrics = m }
}

// WithHTTPClient replaces the client built from Config. Redirects should not be followed.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) { s.client = c }
}

// NewSender creates a Sender. chain is used by ValidateAndSend.
func NewSender(sealer *crypto.Sealer, directory uftp.ParticipantDirectory, chain *validation.Chain, cfg Config, opts ...Option) *Sender {
	s := &Sender{
		sealer:    sealer,
		directory: directory,
		chain:     chain,
		client:    newHTTPClient(cfg),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newHTTPClient(cfg Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.ResponseTimeout,
		// a redirect is a protocol violation by the peer and is reported, not followed
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// ValidateAndSend validates requests with the chain before sending them. Responses are sent
// without validation. A rejection returns a validation SendError and nothing is sent.
func (s *Sender) ValidateAndSend(ctx context.Context, msg uftp.Message, details uftp.SigningDetails) error {
	if !msg.Type().IsResponse() {
		result, err := s.chain.Validate(ctx, uftp.NewOutgoingEnvelope(details.Sender, msg))
		if err != nil {
			return err
		}
		if !result.Valid() {
			s.metrics.RecordSent(string(msg.Type()), string(ErrCodeValidation), 0)
			return NewValidationError(result.RejectionReason())
		}
	}
	return s.Send(ctx, msg, details)
}

// Send seals msg with the sender's key and posts it to the recipient's endpoint.
// Any 2xx answer is success.
func (s *Sender) Send(ctx context.Context, msg uftp.Message, details uftp.SigningDetails) error {
	start := time.Now()
	err := s.send(ctx, msg, details)

	outcome := metrics.OutcomeSent
	if err != nil {
		outcome = string(ErrorCodeOf(err))
		if outcome == "" {
			outcome = metrics.OutcomeError
		}
	}
	s.metrics.RecordSent(string(msg.Type()), outcome, time.Since(start))

	log := logger.ContextRequestLogger(ctx).With(
		slog.String("message_type", string(msg.Type())),
		slog.String("message_id", msg.Header().MessageID),
		slog.String("recipient", details.Recipient.String()),
	)
	if err != nil {
		log.Warn("send failed", slog.String("outcome", outcome), slog.String("error", err.Error()))
		return err
	}
	log.Debug("message sent", slog.Duration("duration", time.Since(start)))
	return nil
}

func (s *Sender) send(ctx context.Context, msg uftp.Message, details uftp.SigningDetails) error {
	payload, err := uftp.MarshalXML(msg)
	if err != nil {
		return err
	}

	signed, err := s.sealer.Seal(ctx, payload, details.Sender, details.SenderPrivateKeyBase64)
	if err != nil {
		return err
	}
	body, err := uftp.MarshalSignedMessage(signed)
	if err != nil {
		return err
	}

	endpoint, err := s.directory.GetEndpointURL(ctx, details.Recipient)
	if err != nil {
		return err
	}
	if err := checkEndpoint(endpoint); err != nil {
		return err
	}

	return s.post(ctx, endpoint, body)
}

func checkEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return WrapMalformedEndpointError(err, endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return WrapMalformedEndpointError(fmt.Errorf("unsupported scheme %q", u.Scheme), endpoint)
	}
	if u.Host == "" {
		return WrapMalformedEndpointError(errors.New("missing host"), endpoint)
	}
	return nil
}

func (s *Sender) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return WrapMalformedEndpointError(err, endpoint)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return WrapInterruptedError(ctx.Err(), fmt.Sprintf("send to %s interrupted", endpoint))
		}
		return WrapTransportError(err, fmt.Sprintf("send to %s failed", endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return NewStatusError(resp.StatusCode, strings.TrimSpace(string(snippet)))
}
