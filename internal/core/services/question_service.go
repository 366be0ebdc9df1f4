package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

// questionService owns the one shared, versioned copy of the question model.
// Every mutation re-reads the store, validates against that fresh copy, writes,
// reloads and notifies subscribers.
type questionService struct {
	repo      ports.QuestionRepository
	responses ports.ResponseRepository

	mu        sync.RWMutex
	current   *domain.QuestionSet
	listeners []ports.QuestionListener
	writeMu   sync.Mutex
}

func NewQuestionService(repo ports.QuestionRepository, responses ports.ResponseRepository) ports.QuestionService {
	return &questionService{
		repo:      repo,
		responses: responses,
	}
}

func (s *questionService) Current(ctx context.Context) (*domain.QuestionSet, error) {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()
	if current != nil {
		return current, nil
	}
	return s.Reload(ctx)
}

func (s *questionService) Reload(ctx context.Context) (*domain.QuestionSet, error) {
	set, err := s.refresh(ctx)
	if err != nil {
		return nil, err
	}
	s.publish(domain.QuestionChange{Kind: domain.QuestionsReload, Index: -1, Version: set.Version}, set)
	return set, nil
}

func (s *questionService) Subscribe(listener ports.QuestionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *questionService) Add(ctx context.Context, q domain.Question) error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return domain.ErrEmptyText
	}
	if err := validateOptions(q.Options); err != nil {
		return err
	}

	return s.mutate(ctx, domain.QuestionAdded, func(set *domain.QuestionSet) (int, error) {
		if err := s.repo.Append(ctx, q); err != nil {
			return 0, err
		}
		return set.Len(), nil
	})
}

func (s *questionService) UpdateText(ctx context.Context, index int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyText
	}

	return s.mutate(ctx, domain.QuestionEdited, func(set *domain.QuestionSet) (int, error) {
		q, ok := set.At(index)
		if !ok {
			return 0, fmt.Errorf("%w: %d", domain.ErrInvalidIndex, index)
		}
		q = q.Clone()
		q.Text = text
		return index, s.repo.Update(ctx, index, q)
	})
}

func (s *questionService) UpdateOptions(ctx context.Context, index int, options []domain.Option) error {
	if err := validateOptions(options); err != nil {
		return err
	}

	return s.mutate(ctx, domain.QuestionEdited, func(set *domain.QuestionSet) (int, error) {
		q, ok := set.At(index)
		if !ok {
			return 0, fmt.Errorf("%w: %d", domain.ErrInvalidIndex, index)
		}
		q = domain.Question{Text: q.Text, Options: options}
		return index, s.repo.Update(ctx, index, q)
	})
}

func (s *questionService) Delete(ctx context.Context, index int) error {
	return s.mutate(ctx, domain.QuestionDeleted, func(set *domain.QuestionSet) (int, error) {
		if _, ok := set.At(index); !ok {
			return 0, fmt.Errorf("%w: %d", domain.ErrInvalidIndex, index)
		}
		if err := s.repo.Delete(ctx, index); err != nil {
			return 0, err
		}
		// Answers are stored by question position.
		if s.responses != nil {
			if err := s.responses.DeleteAnswerColumn(ctx, index); err != nil {
				return 0, err
			}
		}
		return index, nil
	})
}

func (s *questionService) mutate(ctx context.Context, kind domain.QuestionChangeKind, fn func(set *domain.QuestionSet) (int, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	fresh, err := s.refresh(ctx)
	if err != nil {
		return err
	}
	index, err := fn(fresh)
	if err != nil {
		return err
	}

	set, err := s.refresh(ctx)
	if err != nil {
		return err
	}
	if s.responses != nil {
		if err := s.responses.SyncHeader(ctx, set.Texts()); err != nil {
			log.Warn().Err(err).Msg("answers header out of sync with questions")
		}
	}

	s.publish(domain.QuestionChange{Kind: kind, Index: index, Version: set.Version}, set)
	return nil
}

func (s *questionService) refresh(ctx context.Context) (*domain.QuestionSet, error) {
	questions, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var version int64 = 1
	if s.current != nil {
		version = s.current.Version + 1
	}
	s.current = &domain.QuestionSet{Version: version, Questions: questions}
	return s.current, nil
}

func (s *questionService) publish(change domain.QuestionChange, set *domain.QuestionSet) {
	s.mu.RLock()
	listeners := append([]ports.QuestionListener{}, s.listeners...)
	s.mu.RUnlock()

	log.Debug().Str("kind", string(change.Kind)).Int("index", change.Index).Int64("version", change.Version).Msg("question model changed")
	for _, l := range listeners {
		l(change, set)
	}
}

func validateOptions(options []domain.Option) error {
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if strings.TrimSpace(opt.Text) == "" {
			return domain.ErrEmptyText
		}
		if _, dup := seen[opt.Text]; dup {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateOption, opt.Text)
		}
		seen[opt.Text] = struct{}{}
	}
	return nil
}
