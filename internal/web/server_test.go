package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridcsv/internal/config"
	"gridcsv/internal/database"
)

// fakeStore is an in-memory database.Store for handler tests.
type fakeStore struct {
	mu        sync.Mutex
	templates map[uuid.UUID]database.TemplateRecord
	runs      []database.RunRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{templates: make(map[uuid.UUID]database.TemplateRecord)}
}

func (f *fakeStore) CreateTemplate(_ context.Context, name string, doc json.RawMessage) (*database.TemplateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.templates {
		if t.Name == name {
			return nil, fmt.Errorf("%w: %s", database.ErrDuplicateName, name)
		}
	}
	rec := database.TemplateRecord{
		ID:        uuid.New(),
		Name:      name,
		Document:  doc,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.templates[rec.ID] = rec
	return &rec, nil
}

func (f *fakeStore) GetTemplate(_ context.Context, id uuid.UUID) (*database.TemplateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: template %s", database.ErrNotFound, id)
	}
	return &rec, nil
}

func (f *fakeStore) ListTemplates(_ context.Context) ([]database.TemplateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]database.TemplateRecord, 0, len(f.templates))
	for _, t := range f.templates {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) UpdateTemplate(_ context.Context, id uuid.UUID, name string, doc json.RawMessage) (*database.TemplateRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: template %s", database.ErrNotFound, id)
	}
	rec.Name = name
	rec.Document = doc
	rec.UpdatedAt = time.Now()
	f.templates[id] = rec
	return &rec, nil
}

func (f *fakeStore) DeleteTemplate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.templates[id]; !ok {
		return fmt.Errorf("%w: template %s", database.ErrNotFound, id)
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeStore) RecordRun(_ context.Context, params database.RunParams) (*database.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := database.RunRecord{
		ID:           uuid.New(),
		TemplateID:   params.TemplateID,
		WorkbookName: params.WorkbookName,
		Sheet:        params.Sheet,
		Mode:         params.Mode,
		RecordCount:  params.RecordCount,
		Warnings:     params.Warnings,
		Stats:        params.Stats,
		CreatedAt:    time.Now(),
	}
	f.runs = append(f.runs, rec)
	return &rec, nil
}

func (f *fakeStore) ListRuns(_ context.Context, limit, offset int) ([]database.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset >= len(f.runs) {
		return []database.RunRecord{}, nil
	}
	out := f.runs[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) PruneRuns(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20},
		Generate: config.GenerateConfig{MaxConcurrent: 2, MaxWaitTime: time.Second},
		Session:  config.SessionConfig{TTL: time.Minute},
		Rate:     config.RateLimitConfig{Enabled: false},
	}
}

func newTestServer(t *testing.T) (*Server, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewServer(store, testConfig()), store
}

// uploadCSV posts a CSV document as a workbook and returns its session ID.
func uploadCSV(t *testing.T, srv *Server, doc string) uuid.UUID {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "data.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workbooks", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.ID
}

func doJSON(t *testing.T, srv *Server, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	return rr
}

func TestUploadAndPreview(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uploadCSV(t, srv, "Name,Amount\nalpha,100\nbeta,200")

	rr := doJSON(t, srv, http.MethodGet, "/api/workbooks/"+id.String()+"/sheets", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Sheet1")

	rr = doJSON(t, srv, http.MethodGet, "/api/workbooks/"+id.String()+"/preview?rows=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var preview struct {
		Rows      [][]string `json:"rows"`
		TotalRows int        `json:"totalRows"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &preview))
	assert.Len(t, preview.Rows, 2)
	assert.Equal(t, 3, preview.TotalRows)
	assert.Equal(t, "Name", preview.Rows[0][0])
}

func TestUploadRejectsUnknownType(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/workbooks", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGenerateInlineTemplate(t *testing.T) {
	srv, store := newTestServer(t)
	id := uploadCSV(t, srv, "Name,Amount\nalpha,100\nbeta,200")

	payload := map[string]interface{}{
		"template": map[string]interface{}{
			"mode": "records",
			"records": map[string]interface{}{
				"columns": []map[string]interface{}{
					{"header": "Name", "ranges": []string{"A2:A3"}},
					{"header": "Amount", "ranges": []string{"B2:B3"}},
				},
			},
		},
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/workbooks/"+id.String()+"/generate", payload)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Name", "Amount"}, resp.Headers)
	assert.Equal(t, 2, resp.RecordCount)
	assert.Contains(t, resp.CSV, "alpha,100")

	// The run lands in history.
	runs, err := store.ListRuns(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "records", runs[0].Mode)
	assert.Equal(t, 2, runs[0].RecordCount)
}

func TestGenerateDownload(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uploadCSV(t, srv, "Name\nalpha")

	payload := map[string]interface{}{
		"template": map[string]interface{}{
			"mode": "records",
			"records": map[string]interface{}{
				"columns": []map[string]interface{}{
					{"header": "Name", "ranges": []string{"A2"}},
				},
			},
		},
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/workbooks/"+id.String()+"/generate?download=1", payload)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "Name\nalpha", rr.Body.String())
}

func TestGenerateStoredTemplate(t *testing.T) {
	srv, store := newTestServer(t)
	id := uploadCSV(t, srv, "Name\nalpha")

	doc := json.RawMessage(`{"mode":"records","records":{"columns":[{"header":"Name","ranges":["A2"]}]}}`)
	rec, err := store.CreateTemplate(context.Background(), "names", doc)
	require.NoError(t, err)

	rr := doJSON(t, srv, http.MethodPost, "/api/workbooks/"+id.String()+"/generate",
		map[string]interface{}{"templateId": rec.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	runs, err := store.ListRuns(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].TemplateID)
	assert.Equal(t, rec.ID, *runs[0].TemplateID)
}

func TestGenerateBadTemplate(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uploadCSV(t, srv, "Name\nalpha")

	rr := doJSON(t, srv, http.MethodPost, "/api/workbooks/"+id.String()+"/generate",
		map[string]interface{}{"template": map[string]interface{}{"mode": "pivot"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "TPL001", resp.Code)
}

func TestGenerateUnknownWorkbook(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/workbooks/"+uuid.NewString()+"/generate",
		map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCloseWorkbook(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uploadCSV(t, srv, "a\n1")

	rr := doJSON(t, srv, http.MethodDelete, "/api/workbooks/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/workbooks/"+id.String()+"/sheets", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCompareEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/compare", compareRequest{
		Left:  "v\na\nb",
		Right: "v\nb\nc",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		OnlyLeft  [][]string `json:"onlyLeft"`
		OnlyRight [][]string `json:"onlyRight"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, [][]string{{"a"}}, resp.OnlyLeft)
	assert.Equal(t, [][]string{{"c"}}, resp.OnlyRight)
}

func TestDedupeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/dedupe", dedupeRequest{
		CSV: "a,b\n1,2\n1,2\n3,4",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Groups   int `json:"groups"`
		RowCount int `json:"rowCount"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Groups)
	assert.Equal(t, 2, resp.RowCount)
}

func TestTemplateCRUD(t *testing.T) {
	srv, _ := newTestServer(t)
	doc := json.RawMessage(`{"mode":"records","records":{"columns":[{"header":"N","ranges":["A1"]}]}}`)

	// Create
	rr := doJSON(t, srv, http.MethodPost, "/api/templates", templateRequest{Name: "t1", Document: doc})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created database.TemplateRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	// Duplicate name conflicts
	rr = doJSON(t, srv, http.MethodPost, "/api/templates", templateRequest{Name: "t1", Document: doc})
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Invalid document rejected
	rr = doJSON(t, srv, http.MethodPost, "/api/templates",
		templateRequest{Name: "bad", Document: json.RawMessage(`{"mode":"pivot"}`)})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Get
	rr = doJSON(t, srv, http.MethodGet, "/api/templates/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "t1")

	// Update
	rr = doJSON(t, srv, http.MethodPut, "/api/templates/"+created.ID.String(),
		templateRequest{Name: "renamed", Document: doc})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "renamed")

	// List
	rr = doJSON(t, srv, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// Delete
	rr = doJSON(t, srv, http.MethodDelete, "/api/templates/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, srv, http.MethodGet, "/api/templates/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), `"status":"ok"`))
}

func TestSessionStoreSweep(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	wbID := store.Put(nil)
	require.Equal(t, 1, store.Len())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
	_, ok := store.Get(wbID)
	assert.False(t, ok)
}
