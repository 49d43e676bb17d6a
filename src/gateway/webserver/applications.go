package webserver

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veilspire/realmgov/src/types"
)

// ReviewNotifier posts and refreshes the review-request message for an
// application, satisfied by *notify.Notifier.
type ReviewNotifier interface {
	PostReviewRequest(ctx context.Context, app *types.Application, required int) (channelID, messageID string, err error)
	UpdateReviewMessage(ctx context.Context, app *types.Application, required int) error
}

type Applications struct {
	db       *gorm.DB
	notifier ReviewNotifier
	required int
}

func NewApplications(db *gorm.DB, notifier ReviewNotifier, required int) Applications {
	return Applications{db: db, notifier: notifier, required: required}
}

type applicationRequest struct {
	Kind               string                `json:"kind" binding:"required,oneof=nation settlement"`
	Name               string                `json:"name" binding:"required,max=255"`
	Description        string                `json:"description" binding:"max=10000"`
	Data               types.ApplicationData `json:"data"`
	RequesterProfileID *string               `json:"requester_profile_id"`
	RequesterDiscordID *string               `json:"requester_discord_id"`
}

// Create persists a community application and posts its review message. The
// application row is never rolled back because the Discord post failed; the
// response reports the partial result instead.
func (h Applications) Create(c *gin.Context) {
	var req applicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "bad_request"})
		return
	}
	if err := req.Data.Validate(req.Kind); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	app := types.Application{
		ID:                 uuid.NewString(),
		Kind:               req.Kind,
		Name:               req.Name,
		Description:        req.Description,
		Data:               req.Data,
		RequesterProfileID: req.RequesterProfileID,
		RequesterDiscordID: req.RequesterDiscordID,
		Status:             types.StatusPending,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&app).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "datastore"})
		return
	}

	posted := false
	if h.notifier != nil {
		channelID, messageID, err := h.notifier.PostReviewRequest(c.Request.Context(), &app, h.required)
		if err != nil {
			log.Printf("applications: review request for %s not posted: %v", app.ID, err)
		} else {
			posted = true
			err := h.db.WithContext(c.Request.Context()).Model(&types.Application{}).
				Where("id = ?", app.ID).
				Updates(map[string]interface{}{
					"discord_channel_id": channelID,
					"discord_message_id": messageID,
				}).Error
			if err != nil {
				log.Printf("applications: failed to store message ids for %s: %v", app.ID, err)
			}
		}
	}

	resp := gin.H{"id": app.ID, "posted": posted}
	if !posted {
		resp["warning"] = "review_message_not_posted"
	}
	c.JSON(http.StatusCreated, resp)
}
