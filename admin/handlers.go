package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/models"
	"github.com/zefparis/pub/tasks"
)

// LinkCreator creates ad hoc smartlinks.
type LinkCreator interface {
	CreateLink(ctx context.Context, videoID *uint, targetURL, sourcePlatform string) (*models.SmartLink, error)
}

// Enqueuer pushes a task payload onto a named queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, queueName string, payload interface{}) error
}

type Handler struct {
	Links LinkCreator
	Queue Enqueuer
	Log   *logrus.Logger
}

func NewHandler(links LinkCreator, queue Enqueuer, log *logrus.Logger) *Handler {
	return &Handler{Links: links, Queue: queue, Log: log}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/smartlinks", h.CreateSmartLink)
	r.POST("/pipeline/run", h.RunPipeline)
}

type CreateSmartLinkRequest struct {
	TargetURL      string `json:"target_url" binding:"required,url"`
	VideoID        *uint  `json:"video_id"`
	SourcePlatform string `json:"source_platform"`
}

func (h *Handler) CreateSmartLink(c *gin.Context) {
	var req CreateSmartLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.Links.CreateLink(c.Request.Context(), req.VideoID, req.TargetURL, req.SourcePlatform)
	if err != nil {
		h.Log.WithError(err).Error("Failed to create smartlink")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create smartlink"})
		return
	}
	c.JSON(http.StatusCreated, link)
}

type RunPipelineRequest struct {
	Niche string `json:"niche" binding:"required"`
	Limit int    `json:"limit" binding:"omitempty,min=1,max=50"`
}

func (h *Handler) RunPipeline(c *gin.Context) {
	var req RunPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := tasks.PipelineRunPayload{Niche: req.Niche, Limit: req.Limit}
	if err := h.Queue.Enqueue(c.Request.Context(), tasks.QueuePipelineRun, task); err != nil {
		h.Log.WithError(err).Error("Failed to enqueue pipeline run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue pipeline run"})
		return
	}

	h.Log.WithFields(logrus.Fields{"niche": req.Niche, "limit": req.Limit}).Info("Queued pipeline run")
	c.JSON(http.StatusAccepted, gin.H{"queued": true, "niche": req.Niche})
}
