package ports

import (
	"context"
)

// SendMessageParams holds all possible options for sending a message.
type SendMessageParams struct {
	ChatID    int64
	Text      string
	ParseMode string // e.g., "MarkdownV2" or "HTML"; empty means plain text
}

// BotClientPort defines the interface for *sending* chat messages.
type BotClientPort interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
}
