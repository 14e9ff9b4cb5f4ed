package ports

import (
	"AssocVerify/internal/core/domain"
	"context"
)

// Notifier surfaces verification notices to the user (toast, banner, chat message...).
// It is fire-and-forget: implementations must not block the caller for long
// and must not call back into the session that notified them.
type Notifier interface {
	Notify(ctx context.Context, kind domain.NoticeKind, message string)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(ctx context.Context, kind domain.NoticeKind, message string)

func (f NotifierFunc) Notify(ctx context.Context, kind domain.NoticeKind, message string) {
	f(ctx, kind, message)
}
