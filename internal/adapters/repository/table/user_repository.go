package table

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type userRepository struct {
	store ports.TableStore
	table string
}

func NewUserRepository(store ports.TableStore, table string) ports.UserRepository {
	return &userRepository{
		store: store,
		table: table,
	}
}

func (r *userRepository) GetByPlatformID(ctx context.Context, platformID int64) (*domain.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.PlatformID == platformID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var users []*domain.User
	for i, row := range rows {
		u, err := decodeUser(row)
		if err != nil {
			log.Warn().Err(err).Int("row", i).Msg("skipping malformed user row")
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

// Create assigns the next numeric id (max existing + 1) when the user has none.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.NumericID == 0 {
		users, err := r.List(ctx)
		if err != nil {
			return err
		}
		var maxID int64
		for _, u := range users {
			if u.NumericID > maxID {
				maxID = u.NumericID
			}
		}
		user.NumericID = maxID + 1
	}

	row := []string{formatInt(user.NumericID), formatInt(user.PlatformID), user.Username, formatTime(user.RegisteredAt)}
	if err := r.store.AppendRow(ctx, r.table, row); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func decodeUser(row []string) (*domain.User, error) {
	numericID, err := cellInt(row, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: bad numeric id", domain.ErrMalformedRow)
	}
	platformID, err := cellInt(row, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: bad platform id", domain.ErrMalformedRow)
	}
	return &domain.User{
		NumericID:    numericID,
		PlatformID:   platformID,
		Username:     cell(row, 2),
		RegisteredAt: cellTime(row, 3),
	}, nil
}
