package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/zefparis/pub/admin"
	"github.com/zefparis/pub/auth"
	"github.com/zefparis/pub/internal/app"
	"github.com/zefparis/pub/internal/logging"
	"github.com/zefparis/pub/internal/platform"
	"github.com/zefparis/pub/mailing"
	"github.com/zefparis/pub/reports"
	"github.com/zefparis/pub/smartlinks"
	"github.com/zefparis/pub/webhooks"
	"github.com/zefparis/pub/worker"
)

type Server struct {
	rt     *app.Runtime
	Redis  *redis.Client
	Router *gin.Engine
	Links  *smartlinks.Service
}

func NewServer(rt *app.Runtime) *Server {
	rdb := platform.NewRedisClient(rt.Config, rt.Log)
	queue := worker.NewProcessor(rdb, rt.Log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.RequestLogger(rt.Log))

	// Add CORS middleware for the dashboard
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", rt.Config.FrontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	server := &Server{
		rt:     rt,
		Redis:  rdb,
		Router: router,
		Links:  smartlinks.NewService(rt.Store, mailing.NewQueueSyncer(queue), rt.Log),
	}
	server.setupRoutes(queue)
	return server
}

func (s *Server) setupRoutes(queue admin.Enqueuer) {
	s.Router.GET("/health", func(c *gin.Context) {
		sqlDB, err := s.rt.DB.DB()
		if err != nil {
			c.JSON(500, gin.H{"status": "unhealthy"})
			return
		}
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "database": "unreachable"})
			return
		}
		c.JSON(200, gin.H{
			"status":   "healthy",
			"database": "connected",
			"ts":       time.Now().UTC().Format(time.RFC3339),
		})
	})
	s.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.Router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Faceless Shorts Autopilot API v1"})
	})

	// Public smartlink surface
	smartlinks.NewHandler(s.Links, s.rt.Log).RegisterRoutes(s.Router)

	// Webhook routes (public - no auth, but signature verified in handler)
	webhookHandler := webhooks.NewHandler(s.rt.Store, s.rt.Config.StripeWebhookSecret, s.rt.Log)
	s.Router.POST("/webhooks/stripe", webhookHandler.HandleStripeWebhook)

	api := s.Router.Group("/api")
	reports.NewHandler(s.rt.Store).RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(auth.AdminMiddleware(s.rt.Config.AdminJWTSecret))
	admin.NewHandler(s.Links, queue, s.rt.Log).RegisterRoutes(protected)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.rt.Config.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.rt.Log.WithField("port", s.rt.Config.Port).Info("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Links.Wait()
	return err
}

func main() {
	rt, err := app.Open()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start api")
	}
	defer rt.Close()

	if err := platform.Migrate(rt.DB); err != nil {
		rt.Log.WithError(err).Fatal("Failed to migrate schema")
	}
	rt.Log.Info("Schema ensured")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := NewServer(rt)
	defer server.Redis.Close()

	if err := server.Run(ctx); err != nil {
		rt.Log.WithError(err).Error("Server stopped with error")
	}
}
