package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/veilspire/realmgov/src/forums"
	"github.com/veilspire/realmgov/src/types"
)

type Admin struct {
	db       *gorm.DB
	forums   *forums.Store
	notifier ReviewNotifier
	required int
}

func NewAdmin(db *gorm.DB, forumStore *forums.Store, notifier ReviewNotifier, required int) Admin {
	return Admin{db: db, forums: forumStore, notifier: notifier, required: required}
}

func (a Admin) ListForums(c *gin.Context) {
	fs, err := a.forums.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "datastore"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"forums": fs})
}

func (a Admin) ListApplications(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", types.StatusPending, types.StatusApproved, types.StatusRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter", "code": "validation"})
		return
	}

	q := a.db.WithContext(c.Request.Context()).Order("created_at desc").Limit(100)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var apps []types.Application
	if err := q.Find(&apps).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "datastore"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

// RefreshApplicationMessage re-renders an application's review message, for
// when the Discord message drifted from the stored state (e.g. a changed
// approval threshold).
func (a Admin) RefreshApplicationMessage(c *gin.Context) {
	var app types.Application
	err := a.db.WithContext(c.Request.Context()).First(&app, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "application not found", "code": "not_found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "datastore"})
		return
	}

	if a.notifier == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "notifier not configured", "code": "upstream"})
		return
	}
	if err := a.notifier.UpdateReviewMessage(c.Request.Context(), &app, a.required); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": "upstream"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
