// Package notify delivers password-reset tokens out of band.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"studentms/internal/model"
)

// PasswordResetEvent is the message handed to a delivery backend.
type PasswordResetEvent struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPasswordResetEvent stamps a fresh event id.
func NewPasswordResetEvent(user *model.User, token string, issuedAt time.Time, ttl time.Duration) PasswordResetEvent {
	return PasswordResetEvent{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Token:     token,
		ExpiresAt: issuedAt.Add(ttl).UTC(),
		CreatedAt: issuedAt.UTC(),
	}
}

// Notifier hands a reset event to whatever delivers it to the user.
type Notifier interface {
	PasswordReset(ctx context.Context, event PasswordResetEvent) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend      string
	AMQPURL      string
	Queue        string
	KafkaBrokers []string
	Topic        string
}

// New builds the backend named by opts.Backend: "log", "amqp" or "kafka".
func New(opts Options, logger *slog.Logger) (Notifier, error) {
	switch opts.Backend {
	case "", "log":
		return NewLogNotifier(logger), nil
	case "amqp":
		return NewAMQPNotifier(opts.AMQPURL, opts.Queue), nil
	case "kafka":
		if len(opts.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka notifier: no brokers configured")
		}
		return NewKafkaNotifier(opts.KafkaBrokers, opts.Topic), nil
	default:
		return nil, fmt.Errorf("unknown notifier backend %q", opts.Backend)
	}
}

// LogNotifier writes reset events to the application log. The token itself
// only appears at debug level.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) PasswordReset(ctx context.Context, event PasswordResetEvent) error {
	n.logger.InfoContext(ctx, "password reset requested",
		slog.String("event_id", event.ID),
		slog.Uint64("user_id", uint64(event.UserID)),
		slog.String("email", event.Email),
	)
	n.logger.DebugContext(ctx, "password reset token",
		slog.String("event_id", event.ID),
		slog.String("token", event.Token),
		slog.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

func (n *LogNotifier) Close() error { return nil }
