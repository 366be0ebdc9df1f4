package ports

import (
	"context"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

type MessageRepository interface {
	List(ctx context.Context) ([]domain.SystemMessage, error)
	Upsert(ctx context.Context, msg domain.SystemMessage) error
}

type MessageService interface {
	Get(ctx context.Context, t domain.MessageType) (domain.SystemMessage, error)
	Set(ctx context.Context, msg domain.SystemMessage) error
}

// Messenger delivers outbound messages to the chat platform.
type Messenger interface {
	Send(ctx context.Context, msg domain.OutgoingMessage) error
}
