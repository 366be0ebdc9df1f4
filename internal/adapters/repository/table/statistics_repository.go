package table

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type statisticsRepository struct {
	store ports.TableStore
	table string
}

func NewStatisticsRepository(store ports.TableStore, table string) ports.StatisticsRepository {
	return &statisticsRepository{
		store: store,
		table: table,
	}
}

func (r *statisticsRepository) Load(ctx context.Context) ([]domain.StatisticsRow, error) {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to load statistics: %w", err)
	}

	out := make([]domain.StatisticsRow, 0, len(rows))
	for i, row := range rows {
		count, err := cellInt(row, 2)
		if err != nil || cell(row, 0) == "" {
			log.Warn().Int("row", i).Msg("skipping malformed statistics row")
			continue
		}
		out = append(out, domain.StatisticsRow{
			Question: cell(row, 0),
			Option:   cell(row, 1),
			Count:    count,
		})
	}
	return out, nil
}

func (r *statisticsRepository) Replace(ctx context.Context, stats []domain.StatisticsRow) error {
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = []string{s.Question, s.Option, formatInt(s.Count)}
	}
	if err := r.store.ReplaceRows(ctx, r.table, rows); err != nil {
		return fmt.Errorf("failed to write statistics: %w", err)
	}
	return nil
}

func (r *statisticsRepository) Clear(ctx context.Context) error {
	if err := r.store.ClearRows(ctx, r.table); err != nil {
		return fmt.Errorf("failed to clear statistics: %w", err)
	}
	return nil
}
