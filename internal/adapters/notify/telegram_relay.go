package notify

import (
	"AssocVerify/internal/core/domain"
	"AssocVerify/internal/core/ports"
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// TelegramRelay listens for notices on the event bus and forwards them to a chat.
// It is a system component, not a session collaborator: sessions only see the bus.
type TelegramRelay struct {
	log    zerolog.Logger
	client ports.BotClientPort
	chatID int64
}

// NewTelegramRelay creates a relay for one chat.
func NewTelegramRelay(client ports.BotClientPort, chatID int64, baseLogger *zerolog.Logger) *TelegramRelay {
	return &TelegramRelay{
		log:    baseLogger.With().Str("component", "telegram_relay").Int64("chat_id", chatID).Logger(),
		client: client,
		chatID: chatID,
	}
}

// Register subscribes the relay to the notice topic.
func (r *TelegramRelay) Register(bus ports.EventBus) {
	bus.Subscribe(ports.TopicVerificationNotice, r.HandleNotice)
}

// HandleNotice is an EventHandler for the "verification:notice" topic.
func (r *TelegramRelay) HandleNotice(ctx context.Context, event ports.Event) error {
	notice, ok := event.Data.(domain.Notice)
	if !ok {
		r.log.Error().Msg("Received invalid data for 'verification:notice' event")
		return nil // Don't retry
	}

	log := r.log.With().Str("association_id", notice.AssociationID.String()).Str("kind", string(notice.Kind)).Logger()

	params := ports.SendMessageParams{
		ChatID: r.chatID,
		Text:   formatNotice(notice),
	}
	if err := r.client.SendMessage(ctx, params); err != nil {
		log.Error().Err(err).Msg("Failed to relay notice")
		return err
	}
	log.Debug().Msg("Notice relayed")
	return nil
}

func formatNotice(n domain.Notice) string {
	var icon string
	switch n.Kind {
	case domain.NoticeSuccess:
		icon = "✅"
	case domain.NoticeError:
		icon = "⚠️"
	default:
		icon = "ℹ️"
	}
	return fmt.Sprintf("%s Association %s\n%s", icon, n.AssociationID, n.Message)
}
