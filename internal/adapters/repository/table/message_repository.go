package table

import (
	"context"
	"fmt"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type messageRepository struct {
	store ports.TableStore
	table string
}

func NewMessageRepository(store ports.TableStore, table string) ports.MessageRepository {
	return &messageRepository{
		store: store,
		table: table,
	}
}

func (r *messageRepository) List(ctx context.Context) ([]domain.SystemMessage, error) {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	var out []domain.SystemMessage
	for _, row := range rows {
		t, ok := domain.ParseMessageType(cell(row, 0))
		if !ok {
			continue
		}
		out = append(out, domain.SystemMessage{
			Type:      t,
			Text:      cell(row, 1),
			ImageRef:  cell(row, 2),
			UpdatedAt: cellTime(row, 3),
		})
	}
	return out, nil
}

func (r *messageRepository) Upsert(ctx context.Context, msg domain.SystemMessage) error {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return fmt.Errorf("failed to read messages: %w", err)
	}

	row := []string{string(msg.Type), msg.Text, msg.ImageRef, formatTime(msg.UpdatedAt)}
	for i, existing := range rows {
		if cell(existing, 0) == string(msg.Type) {
			if err := r.store.UpdateRow(ctx, r.table, i, row); err != nil {
				return fmt.Errorf("failed to update message: %w", err)
			}
			return nil
		}
	}
	if err := r.store.AppendRow(ctx, r.table, row); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}
