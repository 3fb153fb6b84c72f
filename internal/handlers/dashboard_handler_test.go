package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"billing-dashboard-api/internal/auth"
	"billing-dashboard-api/internal/cache"
	"billing-dashboard-api/internal/database"
	"billing-dashboard-api/internal/middleware"
	"billing-dashboard-api/internal/models"
	"billing-dashboard-api/internal/testutil"
	"billing-dashboard-api/internal/zoho"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// stubBooks is a canned BooksAPI for handler tests.
type stubBooks struct {
	projects     []zoho.Project
	invoices     []zoho.Invoice
	err          error
	projectCalls atomic.Int32
	invoiceCalls atomic.Int32
}

func (s *stubBooks) Projects(context.Context) ([]zoho.Project, error) {
	s.projectCalls.Add(1)
	return s.projects, s.err
}

func (s *stubBooks) Invoices(context.Context) ([]zoho.Invoice, error) {
	s.invoiceCalls.Add(1)
	return s.invoices, s.err
}

func (s *stubBooks) TokenStatus() zoho.TokenStatus {
	return zoho.TokenStatus{HasToken: true, Valid: true}
}

func newDashboardRouter(t *testing.T, books BooksAPI) (*gin.Engine, *handlersFixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	store := cache.New[any](cache.Config{DefaultTTL: time.Minute})
	t.Cleanup(store.Close)

	h := &DashboardHandler{Cache: store, Books: books, TTL: time.Minute}

	r := gin.New()
	r.Use(middleware.JWTAuthMiddleware())
	r.GET("/api/projects", h.GetProjects)
	r.GET("/api/invoices", h.GetInvoices)
	r.GET("/api/zoho/status", h.ZohoStatus)
	r.GET("/api/cache/stats", h.CacheStats)
	r.DELETE("/api/cache", h.ClearCache)
	r.DELETE("/api/cache/:key", h.DeleteCacheKey)

	token, err := auth.GenerateToken("u-1", "alice")
	require.NoError(t, err)

	return r, &handlersFixture{cache: store, token: token}
}

type handlersFixture struct {
	cache *cache.TTLCache[any]
	token string
}

func (f *handlersFixture) get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (f *handlersFixture) delete(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetProjects_CachesZohoResponse(t *testing.T) {
	books := &stubBooks{projects: []zoho.Project{
		{ProjectID: "p-1", ProjectName: "Website Redesign"},
		{ProjectID: "p-2", ProjectName: "Mobile App"},
	}}
	r, f := newDashboardRouter(t, books)

	w := f.get(r, "/api/projects")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count     int  `json:"count"`
		FromCache bool `json:"fromCache"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	require.False(t, resp.FromCache)

	// Second request is served from the cache without touching Zoho again.
	w = f.get(r, "/api/projects")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.FromCache)
	require.Equal(t, int32(1), books.projectCalls.Load())
}

func TestGetProjects_MergesOverlays(t *testing.T) {
	books := &stubBooks{projects: []zoho.Project{{ProjectID: "p-1", ProjectName: "Website Redesign"}}}
	r, f := newDashboardRouter(t, books)

	meta := models.ProjectMeta{ProjectID: "p-1", Status: models.StatusOnHold, Comment: "waiting on signed SOW", SignedFee: 25000}
	require.NoError(t, database.GetDB().Create(&meta).Error)

	w := f.get(r, "/api/projects")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Projects []ProjectRow `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Projects, 1)
	require.NotNil(t, resp.Projects[0].Meta)
	require.Equal(t, models.StatusOnHold, resp.Projects[0].Meta.Status)
	require.Equal(t, 25000.0, resp.Projects[0].Meta.SignedFee)
}

func TestGetProjects_UpstreamFailureNotCached(t *testing.T) {
	books := &stubBooks{err: errors.New("zoho down")}
	r, f := newDashboardRouter(t, books)

	w := f.get(r, "/api/projects")
	require.Equal(t, http.StatusBadGateway, w.Code)

	// The failure must not poison the cache: the next request hits Zoho again.
	w = f.get(r, "/api/projects")
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Equal(t, int32(2), books.projectCalls.Load())
	require.Equal(t, 0, f.cache.Stats().Size)
}

func TestGetInvoices_Totals(t *testing.T) {
	books := &stubBooks{invoices: []zoho.Invoice{
		{InvoiceID: "inv-1", Total: 1000, Balance: 0},
		{InvoiceID: "inv-2", Total: 500, Balance: 500},
	}}
	r, f := newDashboardRouter(t, books)

	w := f.get(r, "/api/invoices")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count       int     `json:"count"`
		Total       float64 `json:"total"`
		Outstanding float64 `json:"outstanding"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	require.Equal(t, 1500.0, resp.Total)
	require.Equal(t, 500.0, resp.Outstanding)
}

func TestZohoStatus(t *testing.T) {
	r, f := newDashboardRouter(t, &stubBooks{})

	w := f.get(r, "/api/zoho/status")
	require.Equal(t, http.StatusOK, w.Code)

	var st zoho.TokenStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.True(t, st.HasToken)
	require.True(t, st.Valid)
}

func TestCacheEndpoints(t *testing.T) {
	books := &stubBooks{projects: []zoho.Project{{ProjectID: "p-1"}}}
	r, f := newDashboardRouter(t, books)

	// Populate the cache, then inspect it.
	require.Equal(t, http.StatusOK, f.get(r, "/api/projects").Code)

	w := f.get(r, "/api/cache/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var st cache.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.Equal(t, 1, st.Size)
	require.Equal(t, []string{"zoho:projects"}, st.Keys)

	// Delete a single key.
	w = f.delete(r, "/api/cache/zoho:projects")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, f.cache.Stats().Size)

	// Repopulate and bust the whole cache.
	require.Equal(t, http.StatusOK, f.get(r, "/api/projects").Code)
	require.Equal(t, 1, f.cache.Stats().Size)
	w = f.delete(r, "/api/cache")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, f.cache.Stats().Size)
}
