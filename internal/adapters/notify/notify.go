// Package notify holds the Notifier adapters that surface verification notices.
package notify

import (
	"AssocVerify/internal/core/domain"
	"AssocVerify/internal/core/ports"
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes notices to the log. It is the terminal UI of the tracker binary.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a notifier that logs every notice.
func NewLogNotifier(baseLogger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: baseLogger.With().Str("component", "log_notifier").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, kind domain.NoticeKind, message string) {
	var ev *zerolog.Event
	switch kind {
	case domain.NoticeError:
		ev = n.log.Error()
	case domain.NoticeSuccess:
		ev = n.log.Info().Bool("success", true)
	default:
		ev = n.log.Info()
	}
	ev.Str("kind", string(kind)).Msg(message)
}

// BusNotifier publishes notices on the event bus for asynchronous delivery.
type BusNotifier struct {
	bus     ports.EventBus
	subject domain.AssociationID
	log     zerolog.Logger
}

// NewBusNotifier creates a notifier that publishes on TopicVerificationNotice.
func NewBusNotifier(bus ports.EventBus, subject domain.AssociationID, baseLogger *zerolog.Logger) *BusNotifier {
	return &BusNotifier{
		bus:     bus,
		subject: subject,
		log:     baseLogger.With().Str("component", "bus_notifier").Logger(),
	}
}

func (n *BusNotifier) Notify(ctx context.Context, kind domain.NoticeKind, message string) {
	notice := domain.Notice{AssociationID: n.subject, Kind: kind, Message: message}
	if err := n.bus.Publish(ctx, ports.TopicVerificationNotice, notice); err != nil {
		// Fire-and-forget: a lost notice must not disturb the session.
		n.log.Error().Err(err).Str("association_id", n.subject.String()).Msg("Failed to publish notice")
	}
}

// Fanout delivers each notice to several notifiers in order.
type Fanout []ports.Notifier

func (f Fanout) Notify(ctx context.Context, kind domain.NoticeKind, message string) {
	for _, n := range f {
		n.Notify(ctx, kind, message)
	}
}
