package esgreport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/apierrors"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/config"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dao"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/dto"
	"github.com/jinmini/esg-saas-monitoring-sub000/internal/esgreport/sessions"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, dao.Migrate(db))

	cfg := &config.Config{
		HistoryCapacity:   50,
		ContentDebounceMs: 300,
		AutoVersionsKeep:  20,
	}
	sm := sessions.NewManager(db, nil, sessions.Options{HistoryCapacity: cfg.HistoryCapacity})
	s := NewServices(db, cfg, sm, "test")
	s.registerer = prometheus.NewRegistry()
	return s.NewEcho()
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(userHeader, "u1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func createDocument(t *testing.T, e *echo.Echo) dto.Document {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/api/documents/", map[string]any{
		"title":    "ESG <b>2024</b>",
		"tags":     []string{"GRI"},
		"sections": []map[string]any{{"title": "Environment"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dto.Document](t, rec)
}

func TestDocumentLifecycle(t *testing.T) {
	e := newTestServer(t)

	doc := createDocument(t, e)
	assert.Equal(t, "ESG 2024", doc.Title)
	assert.Equal(t, "u1", doc.AuthorId)
	require.Len(t, doc.Content.Sections, 1)
	sectionID := doc.Content.Sections[0].ID
	base := "/api/documents/" + doc.Id

	rec := doJSON(t, e, http.MethodGet, "/api/documents/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.DocumentList](t, rec)
	assert.EqualValues(t, 1, list.Count)

	rec = doJSON(t, e, http.MethodPost, base+"/commands/", map[string]any{
		"type":    "INSERT_BLOCK",
		"payload": map[string]any{"sectionId": sectionID, "position": 0, "blockType": "paragraph"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[dto.CommandResult](t, rec)
	require.True(t, res.Success, res.Error)
	require.Len(t, res.Document.Sections[0].Blocks, 1)
	assert.Equal(t, 1, res.History.PastSize)
	assert.Equal(t, 50, res.History.Capacity)
	blockID := res.Document.Sections[0].Blocks[0].ID

	blockPath := base + "/sections/" + sectionID + "/blocks/" + blockID
	rec = doJSON(t, e, http.MethodPost, blockPath+"/surface/", map[string]any{"html": "<b>Hello</b> world<script>x</script>"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decode[dto.CommandResult](t, rec)
	require.True(t, res.Success)
	runs := res.Document.Sections[0].Blocks[0].Content
	require.Len(t, runs, 2)
	assert.Equal(t, "Hello", runs[0].Text)
	assert.Equal(t, " world", runs[1].Text)

	rec = doJSON(t, e, http.MethodGet, blockPath+"/html/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["html"], "<strong>Hello</strong>")

	rec = doJSON(t, e, http.MethodGet, base+"/history/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	h := decode[dto.History](t, rec)
	assert.True(t, h.CanUndo)
	assert.Len(t, h.Log, 2)

	rec = doJSON(t, e, http.MethodGet, base+"/state/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.SessionState](t, rec).Dirty)

	rec = doJSON(t, e, http.MethodPost, base+"/save/", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decode[dto.SessionState](t, rec)
	assert.False(t, state.Dirty)
	assert.Equal(t, "saved", state.SaveStatus)

	rec = doJSON(t, e, http.MethodGet, base+"/export/markdown/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# ESG 2024")
	assert.Contains(t, rec.Body.String(), "**Hello** world")

	rec = doJSON(t, e, http.MethodDelete, base+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, e, http.MethodGet, base+"/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUndoRedo(t *testing.T) {
	e := newTestServer(t)
	doc := createDocument(t, e)
	base := "/api/documents/" + doc.Id

	rec := doJSON(t, e, http.MethodPost, base+"/undo/", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierrors.ErrNothingToUndo.Code, decode[apierrors.DefinedError](t, rec).Code)

	rec = doJSON(t, e, http.MethodPost, base+"/commands/", map[string]any{
		"type":    "INSERT_SECTION",
		"payload": map[string]any{"position": 1, "title": "Social"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[dto.CommandResult](t, rec).Success)

	rec = doJSON(t, e, http.MethodPost, base+"/undo/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[dto.CommandResult](t, rec)
	assert.Len(t, res.Document.Sections, 1)
	assert.True(t, res.History.CanRedo)

	rec = doJSON(t, e, http.MethodPost, base+"/redo/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[dto.CommandResult](t, rec).Document.Sections, 2)

	rec = doJSON(t, e, http.MethodPost, base+"/redo/", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRequestErrors(t *testing.T) {
	e := newTestServer(t)
	doc := createDocument(t, e)
	base := "/api/documents/" + doc.Id

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   int
	}{
		{"empty title", http.MethodPost, "/api/documents/", map[string]any{"title": "  "}, http.StatusBadRequest, apierrors.ErrRequestBody.Code},
		{"bad id", http.MethodGet, "/api/documents/42/", nil, http.StatusBadRequest, apierrors.ErrInvalidID.Code},
		{"missing document", http.MethodGet, "/api/documents/" + dao.GenUUID().String() + "/", nil, http.StatusNotFound, apierrors.ErrDocumentNotFound.Code},
		{"bad limit", http.MethodGet, "/api/documents/?limit=1000", nil, http.StatusBadRequest, apierrors.ErrInvalidPageParam.Code},
		{"command without type", http.MethodPost, base + "/commands/", map[string]any{"payload": map[string]any{}}, http.StatusBadRequest, apierrors.ErrRequestBody.Code},
		{"state not opened", http.MethodGet, base + "/state/", nil, http.StatusConflict, apierrors.ErrSessionNotOpened.Code},
		{"missing block", http.MethodGet, base + "/sections/s/blocks/b/html/", nil, http.StatusNotFound, apierrors.ErrBlockNotFound.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[apierrors.DefinedError](t, rec).Code)
		})
	}

	t.Run("unknown command", func(t *testing.T) {
		rec := doJSON(t, e, http.MethodPost, base+"/commands/", map[string]any{"type": "DROP_TABLE"})
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[dto.CommandResult](t, rec)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "unknown command type")
		assert.Zero(t, res.History.PastSize)
	})
}

func TestVersionEndpoints(t *testing.T) {
	e := newTestServer(t)
	doc := createDocument(t, e)
	base := "/api/documents/" + doc.Id
	sectionID := doc.Content.Sections[0].ID

	rec := doJSON(t, e, http.MethodPost, base+"/versions/", map[string]any{"comment": "baseline"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v1 := decode[dto.VersionMeta](t, rec)
	assert.Equal(t, 1, v1.VersionNumber)
	assert.Equal(t, "u1", v1.AuthorId)

	rec = doJSON(t, e, http.MethodPost, base+"/commands/", map[string]any{
		"type":    "INSERT_BLOCK",
		"payload": map[string]any{"sectionId": sectionID, "blockType": "heading"},
	})
	require.True(t, decode[dto.CommandResult](t, rec).Success)

	rec = doJSON(t, e, http.MethodPost, base+"/commands/", map[string]any{
		"type":    "SAVE_VERSION",
		"payload": map[string]any{"comment": "with heading"},
	})
	res := decode[dto.CommandResult](t, rec)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 1, res.History.PastSize)

	rec = doJSON(t, e, http.MethodGet, base+"/versions/?include_auto=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[dto.VersionList](t, rec)
	require.EqualValues(t, 2, list.Total)
	assert.Equal(t, "with heading", list.Versions[0].Comment)
	assert.Equal(t, "u1", list.Versions[0].AuthorId)
	assert.Equal(t, 1, list.Versions[0].BlocksCount)

	rec = doJSON(t, e, http.MethodDelete, base+"/versions/"+list.Versions[0].Id+"/", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, e, http.MethodGet, base+"/versions/"+v1.Id+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[dto.Version](t, rec).Snapshot.Sections[0].Blocks)

	rec = doJSON(t, e, http.MethodPost, base+"/versions/"+v1.Id+"/restore/", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	restored := decode[dto.VersionRestore](t, rec)
	assert.True(t, restored.Success)
	assert.Equal(t, 1, restored.RestoredVersionNumber)
	assert.Equal(t, 3, restored.BackupVersionNumber)
	assert.Empty(t, restored.Document.Sections[0].Blocks)

	rec = doJSON(t, e, http.MethodGet, base+"/history/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[dto.History](t, rec).CanUndo)

	rec = doJSON(t, e, http.MethodGet, base+"/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[dto.Document](t, rec).Content.Sections[0].Blocks)
}
