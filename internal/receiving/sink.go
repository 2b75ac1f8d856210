package receiving

import (
	"context"
	"log/slog"

	"github.com/uftp-network/uftp-engine/internal/logger"
	"github.com/uftp-network/uftp-engine/internal/uftp"
)

// LogSink is a uftp.ErrorSink that writes each notification to the request logger.
type LogSink struct{}

func (LogSink) NotifyDuplicateReceived(ctx context.Context, env uftp.Envelope, result uftp.DuplicateResult) {
	logger.ContextRequestLogger(ctx).Warn("duplicate message received",
		slog.String("message_type", string(env.Payload.Type())),
		slog.String("message_id", env.Payload.Header().MessageID),
		slog.String("sender", env.Sender.String()),
		slog.String("result", result.String()),
	)
}

func (LogSink) NotifyReadError(ctx context.Context, raw []byte, err error) {
	logger.ContextRequestLogger(ctx).Warn("unreadable message received",
		slog.Int("bytes", len(raw)),
		slog.String("error", err.Error()),
	)
}

func (LogSink) NotifyValidationRejected(ctx context.Context, env uftp.Envelope, reason string) {
	logger.ContextRequestLogger(ctx).Info("message rejected",
		slog.String("message_type", string(env.Payload.Type())),
		slog.String("message_id", env.Payload.Header().MessageID),
		slog.String("sender", env.Sender.String()),
		slog.String("reason", reason),
	)
}
