package reports

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zefparis/pub/models"
	"github.com/zefparis/pub/store"
)

const recentVideosLimit = 50

// Reader is the read-only slice of the content store behind the dashboard.
type Reader interface {
	Dashboard(ctx context.Context) (*store.DashboardStats, error)
	RecentVideos(ctx context.Context, limit int) ([]models.Video, error)
	SmartLinkStats(ctx context.Context, slug string) (*store.LinkStats, error)
}

type Handler struct {
	Store Reader
}

func NewHandler(r Reader) *Handler {
	return &Handler{Store: r}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/stats", h.GetStats)
	r.GET("/videos", h.GetVideos)
	r.GET("/smartlinks/:slug/stats", h.GetSmartLinkStats)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.Store.Dashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetVideos(c *gin.Context) {
	videos, err := h.Store.RecentVideos(c.Request.Context(), recentVideosLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve videos"})
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (h *Handler) GetSmartLinkStats(c *gin.Context) {
	stats, err := h.Store.SmartLinkStats(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "SmartLink not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return
	}
	c.JSON(http.StatusOK, stats)
}
