package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
	"github.com/vncsmyrnk/surveybot/internal/core/ports"
)

const lastColumn = "ZZ"

type tableStore struct {
	svc           *gsheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewTableStore connects to a spreadsheet with a service account credentials file.
func NewTableStore(ctx context.Context, spreadsheetID, credentialsPath string) (ports.TableStore, error) {
	svc, err := gsheets.NewService(ctx, option.WithCredentialsFile(credentialsPath), option.WithScopes(gsheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return NewTableStoreWithService(svc, spreadsheetID), nil
}

func NewTableStoreWithService(svc *gsheets.Service, spreadsheetID string) ports.TableStore {
	return &tableStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      make(map[string]int64),
	}
}

func (s *tableStore) EnsureTable(ctx context.Context, table string, header []string) error {
	if _, err := s.sheetID(ctx, table); err != nil {
		if !errors.Is(err, domain.ErrTableNotFound) {
			return err
		}
		req := &gsheets.BatchUpdateSpreadsheetRequest{
			Requests: []*gsheets.Request{{
				AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: table}},
			}},
		}
		resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return wrap(err, "failed to add sheet "+table)
		}
		if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
			s.mu.Lock()
			s.sheetIDs[table] = resp.Replies[0].AddSheet.Properties.SheetId
			s.mu.Unlock()
		}
	}

	vr := &gsheets.ValueRange{Values: [][]interface{}{toCells(header)}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, table+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return wrap(err, "failed to write header of "+table)
	}
	return nil
}

func (s *tableStore) Rows(ctx context.Context, table string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, dataRange(table)).Context(ctx).Do()
	if err != nil {
		return nil, wrap(err, "failed to read "+table)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *tableStore) AppendRow(ctx context.Context, table string, row []string) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{toCells(row)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, table+"!A1", vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return wrap(err, "failed to append to "+table)
	}
	return nil
}

func (s *tableStore) UpdateRow(ctx context.Context, table string, index int, row []string) error {
	if index < 0 {
		return fmt.Errorf("%w: %s[%d]", domain.ErrRowOutOfRange, table, index)
	}
	sheetRow := index + 2
	rng := fmt.Sprintf("%s!A%d:%s%d", table, sheetRow, lastColumn, sheetRow)

	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return wrap(err, "failed to clear row of "+table)
	}
	vr := &gsheets.ValueRange{Values: [][]interface{}{toCells(row)}}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return wrap(err, "failed to update row of "+table)
	}
	return nil
}

func (s *tableStore) DeleteRow(ctx context.Context, table string, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: %s[%d]", domain.ErrRowOutOfRange, table, index)
	}
	id, err := s.sheetID(ctx, table)
	if err != nil {
		return err
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			DeleteDimension: &gsheets.DeleteDimensionRequest{
				Range: &gsheets.DimensionRange{
					SheetId:         id,
					Dimension:       "ROWS",
					StartIndex:      int64(index + 1),
					EndIndex:        int64(index + 2),
					ForceSendFields: []string{"SheetId"},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return wrap(err, "failed to delete row of "+table)
	}
	return nil
}

func (s *tableStore) ReplaceRows(ctx context.Context, table string, rows [][]string) error {
	if err := s.ClearRows(ctx, table); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = toCells(row)
	}
	vr := &gsheets.ValueRange{Values: values}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, table+"!A2", vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return wrap(err, "failed to rewrite "+table)
	}
	return nil
}

func (s *tableStore) ClearRows(ctx context.Context, table string) error {
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, dataRange(table), &gsheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return wrap(err, "failed to clear "+table)
	}
	return nil
}

func (s *tableStore) sheetID(ctx context.Context, table string) (int64, error) {
	s.mu.Lock()
	id, ok := s.sheetIDs[table]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, wrap(err, "failed to read spreadsheet metadata")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range spreadsheet.Sheets {
		if sh.Properties != nil {
			s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	id, ok = s.sheetIDs[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrTableNotFound, table)
	}
	return id, nil
}

func dataRange(table string) string {
	return fmt.Sprintf("%s!A2:%s", table, lastColumn)
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

// wrap marks quota and transient server errors so that callers may retry them.
func wrap(err error, msg string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%s: %w: %v", msg, domain.ErrStoreQuota, err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
