package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"billing-dashboard-api/internal/database"
	"billing-dashboard-api/internal/models"
	"billing-dashboard-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateProjectMetaRequest represents the request payload for updating a
// project's overlay; only provided fields are changed.
type UpdateProjectMetaRequest struct {
	Status    *models.ProjectStatus `json:"status"`
	Comment   *string               `json:"comment"`
	SignedFee *float64              `json:"signedFee"`
}

// ProjectionEntry is one month of projected billing in a projections payload.
type ProjectionEntry struct {
	Month  string  `json:"month" binding:"required"`
	Amount float64 `json:"amount"`
}

// UpdateProjectionsRequest replaces a project's projection rows wholesale.
type UpdateProjectionsRequest struct {
	Projections []ProjectionEntry `json:"projections" binding:"required"`
}

// MigrateRequest is the payload of the one-shot migration from browser local
// storage: the overlays the frontend accumulated before the server existed.
type MigrateRequest struct {
	Metas       []models.ProjectMeta `json:"metas"`
	Projections []models.Projection  `json:"projections"`
}

func broadcastOverlayEvent(userID, eventType, projectID string) {
	evt := map[string]any{
		"type":      eventType,
		"projectId": projectID,
		"userId":    userID,
		"version":   1,
	}
	if bytes, err := json.Marshal(evt); err == nil {
		realtime.GetHub().Broadcast(userID, bytes)
	}
}

/*
*
GetProjectMeta handles GET /api/projects/:id/meta
Returns the user-entered overlay for a project.
*/
func GetProjectMeta(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	projectID := c.Param("id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	var meta models.ProjectMeta
	result := database.GetDB().Where("project_id = ?", projectID).First(&meta)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No overlay for this project"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch overlay"})
		}
		return
	}

	c.JSON(http.StatusOK, meta)
}

/*
*
UpdateProjectMeta handles PUT /api/projects/:id/meta
Creates or updates the overlay for a project. Only provided fields change.
*/
func UpdateProjectMeta(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	projectID := strings.TrimSpace(c.Param("id"))
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	var req UpdateProjectMetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != nil && !models.ValidStatus(*req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	db := database.GetDB()

	var meta models.ProjectMeta
	err := db.Where("project_id = ?", projectID).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		meta = models.ProjectMeta{ProjectID: projectID, Status: models.StatusActive}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch overlay"})
		return
	}

	if req.Status != nil {
		meta.Status = *req.Status
	}
	if req.Comment != nil {
		meta.Comment = *req.Comment
	}
	if req.SignedFee != nil {
		meta.SignedFee = *req.SignedFee
	}

	if err := db.Save(&meta).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save overlay"})
		return
	}

	broadcastOverlayEvent(userID, "project_meta_updated", projectID)

	c.JSON(http.StatusOK, meta)
}

/*
*
GetProjections handles GET /api/projects/:id/projections
Returns the monthly projected amounts for a project, oldest month first.
*/
func GetProjections(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	projectID := c.Param("id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	var projections []models.Projection
	if err := database.GetDB().
		Where("project_id = ?", projectID).
		Order("month asc").
		Find(&projections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch projections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projections": projections,
		"count":       len(projections),
	})
}

/*
*
UpdateProjections handles PUT /api/projects/:id/projections
Replaces the project's projection rows with the submitted set, atomically.
*/
func UpdateProjections(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	projectID := strings.TrimSpace(c.Param("id"))
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Project ID is required"})
		return
	}

	var req UpdateProjectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, p := range req.Projections {
		if !models.ValidMonth(p.Month) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month, expected YYYY-MM: " + p.Month})
			return
		}
	}

	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Projection{}).Error; err != nil {
			return err
		}
		for _, p := range req.Projections {
			row := models.Projection{ProjectID: projectID, Month: p.Month, Amount: p.Amount}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save projections"})
		return
	}

	broadcastOverlayEvent(userID, "projections_updated", projectID)

	c.JSON(http.StatusOK, gin.H{
		"projectId": projectID,
		"count":     len(req.Projections),
	})
}

/*
*
MigrateLocalData handles POST /api/migrate
One-shot import of overlays exported from browser local storage. Upserts make
the migration idempotent, so a user can safely re-run it.
*/
func MigrateLocalData(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return
	}

	var req MigrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	db := database.GetDB()

	migratedMetas := 0
	for _, meta := range req.Metas {
		if strings.TrimSpace(meta.ProjectID) == "" {
			continue
		}
		if meta.Status == "" || !models.ValidStatus(meta.Status) {
			meta.Status = models.StatusActive
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "comment", "signed_fee"}),
		}).Create(&meta).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to migrate overlays"})
			return
		}
		migratedMetas++
	}

	migratedProjections := 0
	for _, p := range req.Projections {
		if strings.TrimSpace(p.ProjectID) == "" || !models.ValidMonth(p.Month) {
			continue
		}
		row := models.Projection{ProjectID: p.ProjectID, Month: p.Month, Amount: p.Amount}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount"}),
		}).Create(&row).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to migrate projections"})
			return
		}
		migratedProjections++
	}

	c.JSON(http.StatusOK, gin.H{
		"migratedMetas":       migratedMetas,
		"migratedProjections": migratedProjections,
	})
}
