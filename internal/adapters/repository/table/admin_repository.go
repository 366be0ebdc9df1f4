package table

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type adminRepository struct {
	store ports.TableStore
	table string
}

func NewAdminRepository(store ports.TableStore, table string) ports.AdminRepository {
	return &adminRepository{
		store: store,
		table: table,
	}
}

func (r *adminRepository) List(ctx context.Context) ([]*domain.Admin, error) {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	var admins []*domain.Admin
	for i, row := range rows {
		id, err := cellInt(row, 0)
		if err != nil {
			log.Warn().Int("row", i).Msg("skipping admin row without numeric id")
			continue
		}
		admins = append(admins, &domain.Admin{
			PlatformID:  id,
			Name:        cell(row, 1),
			Description: cell(row, 2),
		})
	}
	return admins, nil
}

func (r *adminRepository) Add(ctx context.Context, admin *domain.Admin) error {
	row := []string{formatInt(admin.PlatformID), admin.Name, admin.Description}
	if err := r.store.AppendRow(ctx, r.table, row); err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

func (r *adminRepository) Remove(ctx context.Context, platformID int64) error {
	rows, err := r.store.Rows(ctx, r.table)
	if err != nil {
		return fmt.Errorf("failed to read admins: %w", err)
	}
	want := formatInt(platformID)
	for i := len(rows) - 1; i >= 0; i-- {
		if cell(rows[i], 0) != want {
			continue
		}
		if err := r.store.DeleteRow(ctx, r.table, i); err != nil {
			return fmt.Errorf("failed to remove admin: %w", err)
		}
		return nil
	}
	return domain.ErrAdminNotFound
}
