package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

// serializationFailure and tooManyConnections are retryable in the same way a
// spreadsheet quota error is.
const (
	serializationFailure = "40001"
	tooManyConnections   = "53300"
)

type tableStore struct {
	db *sql.DB
}

func NewTableStore(db *sql.DB) ports.TableStore {
	return &tableStore{
		db: db,
	}
}

func (r *tableStore) EnsureTable(ctx context.Context, table string, header []string) error {
	query := `
		INSERT INTO table_headers (table_name, cells)
		VALUES ($1, $2)
		ON CONFLICT (table_name) DO UPDATE SET cells = EXCLUDED.cells
	`
	if _, err := r.db.ExecContext(ctx, query, table, pq.Array(nonNil(header))); err != nil {
		return wrap(err, "failed to ensure table "+table)
	}
	return nil
}

func (r *tableStore) Rows(ctx context.Context, table string) ([][]string, error) {
	if err := r.exists(ctx, r.db, table); err != nil {
		return nil, err
	}

	query := `
		SELECT cells
		FROM table_rows
		WHERE table_name = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, wrap(err, "failed to read "+table)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var cells []string
		if err := rows.Scan(pq.Array(&cells)); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}
	return out, nil
}

func (r *tableStore) AppendRow(ctx context.Context, table string, row []string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.exists(ctx, tx, table); err != nil {
			return err
		}
		query := `
			INSERT INTO table_rows (table_name, position, cells)
			SELECT $1, COALESCE(MAX(position) + 1, 0), $2
			FROM table_rows
			WHERE table_name = $1
		`
		if _, err := tx.ExecContext(ctx, query, table, pq.Array(nonNil(row))); err != nil {
			return wrap(err, "failed to append to "+table)
		}
		return nil
	})
}

func (r *tableStore) UpdateRow(ctx context.Context, table string, index int, row []string) error {
	query := `
		UPDATE table_rows SET cells = $3, updated_at = NOW()
		WHERE table_name = $1 AND position = $2
	`
	res, err := r.db.ExecContext(ctx, query, table, index, pq.Array(nonNil(row)))
	if err != nil {
		return wrap(err, "failed to update row of "+table)
	}
	return expectOne(res, table, index)
}

func (r *tableStore) DeleteRow(ctx context.Context, table string, index int) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM table_rows WHERE table_name = $1 AND position = $2`, table, index)
		if err != nil {
			return wrap(err, "failed to delete row of "+table)
		}
		if err := expectOne(res, table, index); err != nil {
			return err
		}

		// Shifting through a negative range keeps the primary key unique during the update.
		shift := `
			UPDATE table_rows SET position = -position
			WHERE table_name = $1 AND position > $2
		`
		if _, err := tx.ExecContext(ctx, shift, table, index); err != nil {
			return wrap(err, "failed to renumber "+table)
		}
		settle := `
			UPDATE table_rows SET position = -position - 1
			WHERE table_name = $1 AND position < 0
		`
		if _, err := tx.ExecContext(ctx, settle, table); err != nil {
			return wrap(err, "failed to renumber "+table)
		}
		return nil
	})
}

func (r *tableStore) ReplaceRows(ctx context.Context, table string, rows [][]string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := r.exists(ctx, tx, table); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM table_rows WHERE table_name = $1`, table); err != nil {
			return wrap(err, "failed to clear "+table)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO table_rows (table_name, position, cells) VALUES ($1, $2, $3)`)
		if err != nil {
			return fmt.Errorf("failed to prepare row statement: %w", err)
		}
		defer stmt.Close()

		for i, row := range rows {
			if _, err := stmt.ExecContext(ctx, table, i, pq.Array(nonNil(row))); err != nil {
				return wrap(err, "failed to insert row of "+table)
			}
		}
		return nil
	})
}

func (r *tableStore) ClearRows(ctx context.Context, table string) error {
	return r.ReplaceRows(ctx, table, nil)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *tableStore) exists(ctx context.Context, q querier, table string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM table_headers WHERE table_name = $1`, table).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrTableNotFound, table)
	}
	if err != nil {
		return wrap(err, "failed to look up "+table)
	}
	return nil
}

func (r *tableStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrap(err, "failed to commit transaction")
	}
	return nil
}

func expectOne(res sql.Result, table string, index int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s[%d]", domain.ErrRowOutOfRange, table, index)
	}
	return nil
}

func nonNil(row []string) []string {
	if row == nil {
		return []string{}
	}
	return row
}

func wrap(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case serializationFailure, tooManyConnections:
			return fmt.Errorf("%s: %w: %v", msg, domain.ErrStoreQuota, err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
