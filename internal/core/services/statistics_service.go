package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type StatisticsService struct {
	questions ports.QuestionService
	responses ports.ResponseRepository
	repo      ports.StatisticsRepository

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewStatisticsService(questions ports.QuestionService, responses ports.ResponseRepository, repo ports.StatisticsRepository) *StatisticsService {
	return &StatisticsService{
		questions: questions,
		responses: responses,
		repo:      repo,
	}
}

var _ ports.StatisticsService = (*StatisticsService)(nil)

// Recompute rebuilds the statistics table from every stored response.
func (s *StatisticsService) Recompute(ctx context.Context) ([]domain.StatisticsRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.questions.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	responses, err := s.responses.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	rows := Tally(set, responses)
	if err := s.repo.Replace(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *StatisticsService) RecomputeAsync(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rows, err := s.Recompute(context.WithoutCancel(ctx))
		if err != nil {
			log.Error().Err(err).Msg("statistics recompute failed")
			return
		}
		log.Info().Int("rows", len(rows)).Msg("statistics recomputed")
	}()
}

// Wait blocks until background recomputes have finished.
func (s *StatisticsService) Wait() {
	s.wg.Wait()
}

// Decrement subtracts the given responses from the stored counters.
func (s *StatisticsService) Decrement(ctx context.Context, responses []*domain.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.questions.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	current, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}

	type key struct{ question, option string }
	minus := make(map[key]int64)
	for _, resp := range responses {
		for i, answer := range resp.Answers {
			q, ok := set.At(i)
			if !ok || answer == "" {
				continue
			}
			minus[key{q.Text, answer}]++
		}
	}

	out := make([]domain.StatisticsRow, 0, len(current))
	for _, row := range current {
		row.Count -= minus[key{row.Question, row.Option}]
		if row.Count > 0 {
			out = append(out, row)
		}
	}
	return s.repo.Replace(ctx, out)
}

func (s *StatisticsService) Grouped(ctx context.Context) ([]domain.QuestionStats, error) {
	set, err := s.questions.Current(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Group(set, rows), nil
}

// Tally counts answers per question. Declared options come first, in declared
// order, followed by free-form answers sorted by text, so the output depends
// only on its inputs.
func Tally(set *domain.QuestionSet, responses []*domain.SurveyResponse) []domain.StatisticsRow {
	var rows []domain.StatisticsRow
	for qi, q := range set.Questions {
		counts := make(map[string]int64)
		for _, resp := range responses {
			if qi < len(resp.Answers) && resp.Answers[qi] != "" {
				counts[resp.Answers[qi]]++
			}
		}

		ordered := make([]string, 0, len(counts))
		for answer := range counts {
			ordered = append(ordered, answer)
		}
		sort.Slice(ordered, func(a, b int) bool {
			ra, rb := answerRank(q, ordered[a]), answerRank(q, ordered[b])
			if ra != rb {
				return ra < rb
			}
			return ordered[a] < ordered[b]
		})

		for _, answer := range ordered {
			rows = append(rows, domain.StatisticsRow{Question: q.Text, Option: answer, Count: counts[answer]})
		}
	}
	return rows
}

func answerRank(q domain.Question, answer string) int {
	parent, _ := domain.SplitAnswer(q, answer)
	if i := q.OptionIndex(parent); i >= 0 {
		return i
	}
	return len(q.Options)
}

// Group folds "<parent> - <child>" rows under their parent option.
func Group(set *domain.QuestionSet, rows []domain.StatisticsRow) []domain.QuestionStats {
	byQuestion := make(map[string][]domain.StatisticsRow)
	for _, row := range rows {
		byQuestion[row.Question] = append(byQuestion[row.Question], row)
	}

	var out []domain.QuestionStats
	for _, q := range set.Questions {
		qs := domain.QuestionStats{Question: q.Text}
		index := make(map[string]int)
		for _, row := range byQuestion[q.Text] {
			parent, child := domain.SplitAnswer(q, row.Option)
			i, ok := index[parent]
			if !ok {
				i = len(qs.Options)
				index[parent] = i
				qs.Options = append(qs.Options, domain.OptionStats{Option: parent})
			}
			qs.Options[i].Count += row.Count
			if child != "" {
				qs.Options[i].Children = append(qs.Options[i].Children, domain.StatisticsRow{Question: q.Text, Option: child, Count: row.Count})
			}
			qs.Total += row.Count
		}
		out = append(out, qs)
	}
	return out
}
