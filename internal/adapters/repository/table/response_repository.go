package table

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type responseRepository struct {
	store ports.TableStore
	table string
}

func NewResponseRepository(store ports.TableStore, table string) ports.ResponseRepository {
	return &responseRepository{
		store: store,
		table: table,
	}
}

func (r *responseRepository) Save(ctx context.Context, resp *domain.SurveyResponse) error {
	row := append([]string{formatTime(resp.Timestamp), formatInt(resp.UserID)}, resp.Answers...)
	if err := r.store.AppendRow(ctx, r.table, row); err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	return nil
}

func (r *responseRepository) HasResponded(ctx context.Context, userID int64) (bool, error) {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return false, fmt.Errorf("failed to check existing response: %w", err)
	}
	want := formatInt(userID)
	for _, row := range rows {
		if cell(row, 1) == want {
			return true, nil
		}
	}
	return false, nil
}

func (r *responseRepository) ListAll(ctx context.Context) ([]*domain.SurveyResponse, error) {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}

	var out []*domain.SurveyResponse
	for i, row := range rows {
		resp, err := decodeResponse(row)
		if err != nil {
			log.Warn().Err(err).Int("row", i).Msg("skipping malformed response row")
			continue
		}
		out = append(out, resp)
	}
	return out, nil
}

func (r *responseRepository) DeleteByUser(ctx context.Context, userID int64) ([]*domain.SurveyResponse, error) {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}

	want := formatInt(userID)
	var deleted []*domain.SurveyResponse
	// Deleting bottom-up keeps the remaining indexes valid.
	for i := len(rows) - 1; i >= 0; i-- {
		if cell(rows[i], 1) != want {
			continue
		}
		if err := r.store.DeleteRow(ctx, r.table, i); err != nil {
			return deleted, fmt.Errorf("failed to delete response: %w", err)
		}
		if resp, err := decodeResponse(rows[i]); err == nil {
			deleted = append(deleted, resp)
		}
	}
	return deleted, nil
}

func (r *responseRepository) Clear(ctx context.Context) error {
	if err := r.store.ClearRows(ctx, r.table); err != nil {
		return fmt.Errorf("failed to clear responses: %w", err)
	}
	return nil
}

func (r *responseRepository) DeleteAnswerColumn(ctx context.Context, index int) error {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return fmt.Errorf("failed to read responses: %w", err)
	}

	col := len(answersHeader) + index
	changed := false
	for i, row := range rows {
		if col < len(row) {
			rows[i] = append(append([]string{}, row[:col]...), row[col+1:]...)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := r.store.ReplaceRows(ctx, r.table, rows); err != nil {
		return fmt.Errorf("failed to drop answer column %d: %w", index, err)
	}
	return nil
}

func (r *responseRepository) SyncHeader(ctx context.Context, questions []string) error {
	header := append(append([]string{}, answersHeader...), questions...)
	if err := r.store.EnsureTable(ctx, r.table, header); err != nil {
		return fmt.Errorf("failed to sync answers header: %w", err)
	}
	return nil
}

func decodeResponse(row []string) (*domain.SurveyResponse, error) {
	userID, err := cellInt(row, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user id: %v", domain.ErrMalformedRow, err)
	}
	resp := &domain.SurveyResponse{
		Timestamp: cellTime(row, 0),
		UserID:    userID,
	}
	if len(row) > 2 {
		for i := 2; i < len(row); i++ {
			resp.Answers = append(resp.Answers, cell(row, i))
		}
	}
	return resp, nil
}
