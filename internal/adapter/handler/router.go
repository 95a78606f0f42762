package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tuanphamdev/meeting-scribe/internal/infrastructure/http/middleware"
	"github.com/tuanphamdev/meeting-scribe/pkg/config"
	"github.com/tuanphamdev/meeting-scribe/pkg/jwt"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	jwtManager     *jwt.Manager
	meetingHandler *Meeting
	summaryHandler *Summary
	webhookHandler *Webhook
}

// NewRouter creates a new router with all handlers
func NewRouter(
	cfg *config.Config,
	jwtManager *jwt.Manager,
	meetingHandler *Meeting,
	summaryHandler *Summary,
	webhookHandler *Webhook,
) *Router {
	return &Router{
		cfg:            cfg,
		jwtManager:     jwtManager,
		meetingHandler: meetingHandler,
		summaryHandler: summaryHandler,
		webhookHandler: webhookHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// Webhook endpoint, authenticated by client state rather than JWT
	e.POST("/webhooks/transcripts", rt.webhookHandler.Notifications)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupMeetingRoutes(v1)
	rt.setupSummaryRoutes(v1)
}

// setupMeetingRoutes configures meeting lifecycle routes. These are called
// by the platform's event delivery, not end users.
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetingGroup := g.Group("/meetings")

	meetingGroup.POST("/started", rt.meetingHandler.Started)
	meetingGroup.POST("/:id/ended", rt.meetingHandler.Ended)
	meetingGroup.POST("/:id/participants", rt.meetingHandler.ParticipantJoined)
	meetingGroup.POST("/:id/summarize", rt.meetingHandler.Summarize)
	meetingGroup.PUT("/:id/config", rt.meetingHandler.UpdateConfig)
	meetingGroup.GET("/:id", rt.meetingHandler.Get)
}

// setupSummaryRoutes configures the summary query API behind bearer auth
func (rt *Router) setupSummaryRoutes(g *echo.Group) {
	auth := middleware.EchoAuth(rt.jwtManager)

	g.GET("/summaries/:id", rt.summaryHandler.Get, auth)
	g.GET("/meetings/:id/summaries", rt.summaryHandler.List, auth)
	g.GET("/meetings/:id/summaries/search", rt.summaryHandler.Search, auth)
	g.DELETE("/meetings/:id/summaries", rt.summaryHandler.DeleteAll, auth)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
