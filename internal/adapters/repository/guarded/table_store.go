package guarded

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type Config struct {
	RatePerSecond float64
	Burst         int
	MaxRetries    uint64
	InitialDelay  time.Duration
}

func DefaultConfig() Config {
	return Config{
		RatePerSecond: 1,
		Burst:         5,
		MaxRetries:    3,
		InitialDelay:  500 * time.Millisecond,
	}
}

// tableStore throttles every call through one limiter and retries writes that
// failed on store quota.
type tableStore struct {
	next    ports.TableStore
	limiter *rate.Limiter
	cfg     Config
}

func NewTableStore(next ports.TableStore, cfg Config) ports.TableStore {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &tableStore{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		cfg:     cfg,
	}
}

func (s *tableStore) EnsureTable(ctx context.Context, table string, header []string) error {
	return s.write(ctx, "ensure_table", table, func() error {
		return s.next.EnsureTable(ctx, table, header)
	})
}

func (s *tableStore) Rows(ctx context.Context, table string) ([][]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.next.Rows(ctx, table)
}

func (s *tableStore) AppendRow(ctx context.Context, table string, row []string) error {
	return s.write(ctx, "append_row", table, func() error {
		return s.next.AppendRow(ctx, table, row)
	})
}

func (s *tableStore) UpdateRow(ctx context.Context, table string, index int, row []string) error {
	return s.write(ctx, "update_row", table, func() error {
		return s.next.UpdateRow(ctx, table, index, row)
	})
}

func (s *tableStore) DeleteRow(ctx context.Context, table string, index int) error {
	return s.write(ctx, "delete_row", table, func() error {
		return s.next.DeleteRow(ctx, table, index)
	})
}

func (s *tableStore) ReplaceRows(ctx context.Context, table string, rows [][]string) error {
	return s.write(ctx, "replace_rows", table, func() error {
		return s.next.ReplaceRows(ctx, table, rows)
	})
}

func (s *tableStore) ClearRows(ctx context.Context, table string) error {
	return s.write(ctx, "clear_rows", table, func() error {
		return s.next.ClearRows(ctx, table)
	})
}

func (s *tableStore) write(ctx context.Context, op, table string, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	if s.cfg.InitialDelay > 0 {
		policy.InitialInterval = s.cfg.InitialDelay
	}

	attempt := 0
	operation := func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrStoreQuota) {
			return backoff.Permanent(err)
		}
		log.Warn().Err(err).Str("op", op).Str("table", table).Int("attempt", attempt).Msg("store quota hit, retrying")
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, s.cfg.MaxRetries), ctx))
}
