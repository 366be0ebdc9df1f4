package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

type table struct {
	header []string
	rows   [][]string
}

// TableStore keeps every table in process memory. It backs development runs
// and tests.
type TableStore struct {
	mu     sync.RWMutex
	tables map[string]*table
}

func NewTableStore() *TableStore {
	return &TableStore{tables: make(map[string]*table)}
}

var _ ports.TableStore = (*TableStore)(nil)

func (s *TableStore) EnsureTable(ctx context.Context, name string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tables[name]; ok {
		t.header = copyRow(header)
		return nil
	}
	s.tables[name] = &table{header: copyRow(header)}
	return nil
}

func (s *TableStore) Header(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.tables[name]; ok {
		return copyRow(t.header)
	}
	return nil
}

func (s *TableStore) Rows(ctx context.Context, name string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = copyRow(row)
	}
	return out, nil
}

func (s *TableStore) AppendRow(ctx context.Context, name string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(name)
	if err != nil {
		return err
	}
	t.rows = append(t.rows, copyRow(row))
	return nil
}

func (s *TableStore) UpdateRow(ctx context.Context, name string, index int, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(name)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(t.rows) {
		return fmt.Errorf("%w: %s[%d]", domain.ErrRowOutOfRange, name, index)
	}
	t.rows[index] = copyRow(row)
	return nil
}

func (s *TableStore) DeleteRow(ctx context.Context, name string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(name)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(t.rows) {
		return fmt.Errorf("%w: %s[%d]", domain.ErrRowOutOfRange, name, index)
	}
	t.rows = append(t.rows[:index], t.rows[index+1:]...)
	return nil
}

func (s *TableStore) ReplaceRows(ctx context.Context, name string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(name)
	if err != nil {
		return err
	}
	t.rows = make([][]string, len(rows))
	for i, row := range rows {
		t.rows[i] = copyRow(row)
	}
	return nil
}

func (s *TableStore) ClearRows(ctx context.Context, name string) error {
	return s.ReplaceRows(ctx, name, nil)
}

func (s *TableStore) lookup(name string) (*table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTableNotFound, name)
	}
	return t, nil
}

func copyRow(row []string) []string {
	if row == nil {
		return nil
	}
	return append([]string{}, row...)
}
