package webserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/veilspire/realmgov/src/data"
	"github.com/veilspire/realmgov/src/forums"
	"github.com/veilspire/realmgov/src/ingest"
)

type Ingest struct {
	forums   *forums.Store
	pipeline *ingest.Pipeline
	rdb      *redis.Client
}

func NewIngest(forumStore *forums.Store, pipeline *ingest.Pipeline, rdb *redis.Client) Ingest {
	return Ingest{forums: forumStore, pipeline: pipeline, rdb: rdb}
}

type ingestRequest struct {
	Type           string `json:"type" binding:"required,oneof=setup_forum remove_forum thread_create"`
	GuildID        string `json:"guild_id"`
	ForumChannelID string `json:"forum_channel_id"`
	GuildName      string `json:"guild_name"`
	ThreadID       string `json:"thread_id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	AuthorName     string `json:"author_name"`
}

func (h Ingest) Handle(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "bad_request"})
		return
	}

	switch req.Type {
	case "setup_forum":
		h.setupForum(c, req)
	case "remove_forum":
		h.removeForum(c, req)
	case "thread_create":
		h.threadCreate(c, req)
	}
}

func (h Ingest) setupForum(c *gin.Context, req ingestRequest) {
	if req.GuildID == "" || req.ForumChannelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guild_id and forum_channel_id are required", "code": "validation"})
		return
	}
	if err := h.forums.Register(c.Request.Context(), req.GuildID, req.ForumChannelID, req.GuildName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "datastore"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Ingest) removeForum(c *gin.Context, req ingestRequest) {
	if req.GuildID == "" || req.ForumChannelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guild_id and forum_channel_id are required", "code": "validation"})
		return
	}
	err := h.forums.Unregister(c.Request.Context(), req.GuildID, req.ForumChannelID)
	if errors.Is(err, forums.ErrNotRegistered) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": true})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "datastore"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Ingest) threadCreate(c *gin.Context, req ingestRequest) {
	res, err := h.pipeline.Ingest(c.Request.Context(), ingest.ThreadEvent{
		GuildID:        req.GuildID,
		ForumChannelID: req.ForumChannelID,
		ThreadID:       req.ThreadID,
		Title:          req.Title,
		Body:           req.Body,
		AuthorName:     req.AuthorName,
	})
	if errors.Is(err, ingest.ErrMissingField) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "datastore"})
		return
	}

	switch res.Status {
	case ingest.StatusIgnored:
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": true})
	case ingest.StatusAlreadyIngested:
		c.JSON(http.StatusOK, gin.H{"ok": true, "already_ingested": true, "contract_id": res.ContractID})
	default:
		if err := data.PublishEvent(c.Request.Context(), h.rdb, map[string]interface{}{
			"type":        "contract_ingested",
			"contract_id": res.ContractID,
			"guild_id":    req.GuildID,
			"thread_id":   req.ThreadID,
		}); err != nil {
			log.Printf("ingest: contract event for %s not published: %v", res.ContractID, err)
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "contract_id": res.ContractID, "posted": res.Posted})
	}
}
