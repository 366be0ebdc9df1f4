package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/vncsmyrnk/surveybot/internal/core/domain"
)

type recorded struct {
	method string
	path   string
	body   string
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recorded
	respond  func(method, path string) (int, string)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{method: r.Method, path: r.URL.Path, body: string(body)})
	f.mu.Unlock()

	code, payload := http.StatusOK, "{}"
	if f.respond != nil {
		code, payload = f.respond(r.Method, r.URL.Path)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, payload)
}

func (f *fakeAPI) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestStore(t *testing.T, api *fakeAPI) *tableStore {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := gsheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewTableStoreWithService(svc, "sid").(*tableStore)
}

func TestRowsStringifiesCells(t *testing.T) {
	api := &fakeAPI{respond: func(method, path string) (int, string) {
		return http.StatusOK, `{"range":"Questions!A2:ZZ","values":[["Color","Red"],["Size"]]}`
	}}
	s := newTestStore(t, api)

	rows, err := s.Rows(context.Background(), "Questions")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Color", "Red"}, {"Size"}}, rows)

	req := api.last()
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/v4/spreadsheets/sid/values/Questions!A2:ZZ", req.path)
}

func TestAppendRowInsertsRows(t *testing.T) {
	api := &fakeAPI{}
	s := newTestStore(t, api)

	require.NoError(t, s.AppendRow(context.Background(), "Answers", []string{"ts", "42", "Red"}))

	req := api.last()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/v4/spreadsheets/sid/values/Answers!A1:append", req.path)
	assert.Contains(t, req.body, `["ts","42","Red"]`)
}

func TestUpdateRowTargetsSheetRow(t *testing.T) {
	api := &fakeAPI{}
	s := newTestStore(t, api)

	require.NoError(t, s.UpdateRow(context.Background(), "Questions", 0, []string{"Color"}))

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.requests, 2)
	assert.Equal(t, "/v4/spreadsheets/sid/values/Questions!A2:ZZ2:clear", api.requests[0].path)
	assert.Equal(t, http.MethodPut, api.requests[1].method)
	assert.Equal(t, "/v4/spreadsheets/sid/values/Questions!A2:ZZ2", api.requests[1].path)
}

func TestDeleteRowResolvesSheetID(t *testing.T) {
	api := &fakeAPI{respond: func(method, path string) (int, string) {
		if method == http.MethodGet {
			return http.StatusOK, `{"sheets":[{"properties":{"title":"Questions","sheetId":0}},{"properties":{"title":"Answers","sheetId":77}}]}`
		}
		return http.StatusOK, `{}`
	}}
	s := newTestStore(t, api)

	require.NoError(t, s.DeleteRow(context.Background(), "Questions", 2))

	req := api.last()
	assert.Equal(t, "/v4/spreadsheets/sid:batchUpdate", req.path)

	var body gsheets.BatchUpdateSpreadsheetRequest
	require.NoError(t, json.Unmarshal([]byte(req.body), &body))
	require.Len(t, body.Requests, 1)
	rng := body.Requests[0].DeleteDimension.Range
	assert.Equal(t, int64(3), rng.StartIndex)
	assert.Equal(t, int64(4), rng.EndIndex)
	assert.True(t, strings.Contains(req.body, `"sheetId":0`))

	_, err := s.sheetID(context.Background(), "Missing")
	assert.ErrorIs(t, err, domain.ErrTableNotFound)
}

func TestQuotaErrorsAreMarked(t *testing.T) {
	api := &fakeAPI{respond: func(method, path string) (int, string) {
		return http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota"}}`
	}}
	s := newTestStore(t, api)

	_, err := s.Rows(context.Background(), "Questions")
	assert.ErrorIs(t, err, domain.ErrStoreQuota)
}

func TestClientErrorsAreNotRetryable(t *testing.T) {
	api := &fakeAPI{respond: func(method, path string) (int, string) {
		return http.StatusBadRequest, `{"error":{"code":400,"message":"bad range"}}`
	}}
	s := newTestStore(t, api)

	err := s.ClearRows(context.Background(), "Questions")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStoreQuota)
}
