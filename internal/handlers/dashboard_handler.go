package handlers

import (
	"context"
	"net/http"
	"time"

	"billing-dashboard-api/internal/cache"
	"billing-dashboard-api/internal/database"
	"billing-dashboard-api/internal/models"
	"billing-dashboard-api/internal/zoho"

	"github.com/gin-gonic/gin"
)

// Cache keys for the Zoho-backed endpoints.
const (
	projectsCacheKey = "zoho:projects"
	invoicesCacheKey = "zoho:invoices"
)

// BooksAPI is the slice of the Zoho client the dashboard handlers need.
// Tests substitute a stub.
type BooksAPI interface {
	Projects(ctx context.Context) ([]zoho.Project, error)
	Invoices(ctx context.Context) ([]zoho.Invoice, error)
	TokenStatus() zoho.TokenStatus
}

// DashboardHandler serves the Zoho-backed billing tables. The cache and the
// Books client are injected at the composition point so tests can build
// isolated instances.
type DashboardHandler struct {
	Cache *cache.TTLCache[any]
	Books BooksAPI
	TTL   time.Duration
}

// ProjectRow is one row of the projects table: the Zoho project plus the
// user-entered overlay, when one exists.
type ProjectRow struct {
	zoho.Project
	Meta *models.ProjectMeta `json:"meta,omitempty"`
}

/*
*
GetProjects handles GET /api/projects
Serves the Zoho project list through the cache and merges the DB overlays
(status, comment, signed fee) into each row.
*/
func (h *DashboardHandler) GetProjects(c *gin.Context) {
	v, fromCache, err := h.Cache.GetOrSet(c.Request.Context(), projectsCacheKey, h.TTL, func(ctx context.Context) (any, error) {
		return h.Books.Projects(ctx)
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch projects"})
		return
	}
	projects, _ := v.([]zoho.Project)

	// Overlays are never cached; they come straight from the DB so edits show
	// up immediately regardless of the Zoho cache state.
	metaByID := make(map[string]models.ProjectMeta)
	var metas []models.ProjectMeta
	if err := database.GetDB().Find(&metas).Error; err == nil {
		for _, m := range metas {
			metaByID[m.ProjectID] = m
		}
	}

	rows := make([]ProjectRow, 0, len(projects))
	for _, p := range projects {
		row := ProjectRow{Project: p}
		if m, ok := metaByID[p.ProjectID]; ok {
			meta := m
			row.Meta = &meta
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":  rows,
		"count":     len(rows),
		"fromCache": fromCache,
	})
}

/*
*
GetInvoices handles GET /api/invoices
Serves the Zoho invoice list through the cache, with total/outstanding sums
for the dashboard header.
*/
func (h *DashboardHandler) GetInvoices(c *gin.Context) {
	v, fromCache, err := h.Cache.GetOrSet(c.Request.Context(), invoicesCacheKey, h.TTL, func(ctx context.Context) (any, error) {
		return h.Books.Invoices(ctx)
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch invoices"})
		return
	}
	invoices, _ := v.([]zoho.Invoice)

	var total, outstanding float64
	for _, inv := range invoices {
		total += inv.Total
		outstanding += inv.Balance
	}

	c.JSON(http.StatusOK, gin.H{
		"invoices":    invoices,
		"count":       len(invoices),
		"total":       total,
		"outstanding": outstanding,
		"fromCache":   fromCache,
	})
}

// ZohoStatus handles GET /api/zoho/status
// Reports the OAuth token refresh state for diagnostics.
func (h *DashboardHandler) ZohoStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Books.TokenStatus())
}

// CacheStats handles GET /api/cache/stats
func (h *DashboardHandler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Cache.Stats())
}

// ClearCache handles DELETE /api/cache
// Full manual cache-bust; the next dashboard load refetches from Zoho.
func (h *DashboardHandler) ClearCache(c *gin.Context) {
	h.Cache.Clear()
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}

// DeleteCacheKey handles DELETE /api/cache/:key
func (h *DashboardHandler) DeleteCacheKey(c *gin.Context) {
	key := c.Param("key")
	removed := h.Cache.Delete(key)
	c.JSON(http.StatusOK, gin.H{
		"key":     key,
		"removed": removed,
	})
}
