package table

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type questionRepository struct {
	store ports.TableStore
	table string
	codec domain.CodecOptions
}

func NewQuestionRepository(store ports.TableStore, table string, codec domain.CodecOptions) ports.QuestionRepository {
	return &questionRepository{
		store: store,
		table: table,
		codec: codec,
	}
}

func (r *questionRepository) Load(ctx context.Context) ([]domain.Question, error) {
	questions, _, err := r.load(ctx)
	return questions, err
}

// load returns the decoded questions together with the table row each one came from.
func (r *questionRepository) load(ctx context.Context) ([]domain.Question, []int, error) {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load questions: %w", err)
	}

	var questions []domain.Question
	var positions []int
	for i, row := range rows {
		text := cell(row, 0)
		if text == "" {
			if len(row) > 0 {
				log.Warn().Int("row", i).Msg("skipping question row without text")
			}
			continue
		}

		q := domain.Question{Text: text}
		for col := 1; col < len(row); col++ {
			raw := cell(row, col)
			if raw == "" {
				continue
			}
			opt, err := domain.DecodeOption(raw, r.codec)
			if err != nil {
				log.Warn().Err(err).Int("row", i).Int("column", col).Str("question", text).Msg("skipping malformed option cell")
				continue
			}
			q.Options = append(q.Options, opt)
		}
		questions = append(questions, q)
		positions = append(positions, i)
	}
	return questions, positions, nil
}

func (r *questionRepository) Append(ctx context.Context, q domain.Question) error {
	row, err := encodeQuestion(q)
	if err != nil {
		return err
	}
	if err := r.store.AppendRow(ctx, r.table, row); err != nil {
		return fmt.Errorf("failed to save question: %w", err)
	}
	return nil
}

func (r *questionRepository) Update(ctx context.Context, index int, q domain.Question) error {
	pos, err := r.position(ctx, index)
	if err != nil {
		return err
	}
	row, err := encodeQuestion(q)
	if err != nil {
		return err
	}
	if err := r.store.UpdateRow(ctx, r.table, pos, row); err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return nil
}

func (r *questionRepository) Delete(ctx context.Context, index int) error {
	pos, err := r.position(ctx, index)
	if err != nil {
		return err
	}
	if err := r.store.DeleteRow(ctx, r.table, pos); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

func (r *questionRepository) position(ctx context.Context, index int) (int, error) {
	_, positions, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(positions) {
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidIndex, index)
	}
	return positions[index], nil
}

func encodeQuestion(q domain.Question) ([]string, error) {
	if q.Text == "" {
		return nil, domain.ErrEmptyText
	}
	row := []string{q.Text}
	for _, opt := range q.Options {
		encoded, err := domain.EncodeOption(opt)
		if err != nil {
			return nil, err
		}
		row = append(row, encoded)
	}
	return row, nil
}
