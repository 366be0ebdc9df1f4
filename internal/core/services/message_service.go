package services

import (
	"context"
	"time"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type messageService struct {
	repo ports.MessageRepository
}

func NewMessageService(repo ports.MessageRepository) ports.MessageService {
	return &messageService{
		repo: repo,
	}
}

// Get falls back to the built-in text when the table has no entry for t.
func (s *messageService) Get(ctx context.Context, t domain.MessageType) (domain.SystemMessage, error) {
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return domain.DefaultMessages[t], err
	}
	for _, m := range msgs {
		if m.Type == t && m.Text != "" {
			return m, nil
		}
	}
	return domain.DefaultMessages[t], nil
}

func (s *messageService) Set(ctx context.Context, msg domain.SystemMessage) error {
	if msg.Text == "" {
		return domain.ErrEmptyText
	}
	if msg.UpdatedAt.IsZero() {
		msg.UpdatedAt = time.Now()
	}
	return s.repo.Upsert(ctx, msg)
}
