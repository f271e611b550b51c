// Package api is the HTTP surface of the casework service: token-gated
// upload pages for submitters and case endpoints for the agent.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"e7-casework/casework"
	"e7-casework/shared"
)

// LifecycleStatus reports the lifecycle workflow state of a case.
type LifecycleStatus interface {
	Status(ctx context.Context, caseID string) (shared.LifecycleStatus, error)
}

// Router owns the gin engine.
type Router struct {
	engine    *gin.Engine
	logger    *zap.Logger
	cases     *casework.Service
	lifecycle LifecycleStatus
	maxBody   int64
}

// Option configures a Router.
type Option func(*Router)

// WithLifecycle exposes lifecycle status at /api/cases/:id/lifecycle.
func WithLifecycle(l LifecycleStatus) Option {
	return func(r *Router) { r.lifecycle = l }
}

// WithMaxBody limits multipart request bodies.
func WithMaxBody(n int64) Option {
	return func(r *Router) { r.maxBody = n }
}

// NewRouter builds the engine and registers every route.
func NewRouter(logger *zap.Logger, cases *casework.Service, opts ...Option) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:  engine,
		logger:  logger,
		cases:   cases,
		maxBody: casework.DefaultMaxUploadBytes + 1<<20,
	}
	for _, opt := range opts {
		opt(r)
	}

	engine.Use(requestID(), logRequests(logger), recoverPanic(logger))
	r.routes()
	return r
}

// Handler returns the engine as an http.Handler.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) routes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	up := r.engine.Group("/upload/:role/:token")
	up.GET("", r.showUpload)
	up.PUT("/documents/:docId", r.limitBody(), r.uploadDocument)
	up.DELETE("/documents/:docId", r.removeUpload)
	up.POST("/submit", r.submit)

	api := r.engine.Group("/api")
	api.GET("/requirements/:role/optional", r.optionalRequirements)
	api.GET("/cases", r.listCases)
	api.POST("/cases", r.createCase)

	c := api.Group("/cases/:id")
	c.GET("", r.getCase)
	c.DELETE("", r.deleteCase)
	c.GET("/links", r.links)
	c.GET("/lifecycle", r.lifecycleStatus)
	c.PUT("/flags", r.setFlags)
	c.PUT("/step", r.setStep)
	c.PUT("/memo", r.setMemo)
	c.PUT("/form", r.saveForm)
	c.POST("/generate", r.generate)
	c.PUT("/generated", r.editGenerated)
	c.POST("/complete", r.complete)
	c.GET("/export", r.export)

	p := c.Group("/parties/:role")
	p.GET("/requirements", r.listRequirements)
	p.POST("/optional/:docId", r.activateOptional)
	p.DELETE("/optional/:docId", r.deactivateOptional)
	p.POST("/custom", r.addCustom)
	p.DELETE("/custom/:docId", r.removeCustom)
	p.PUT("/documents/:docId", r.limitBody(), r.agentUpload)
	p.DELETE("/documents/:docId", r.agentRemove)
	p.POST("/documents/:docId/confirm", r.confirm)
	p.POST("/documents/:docId/revision", r.requestRevision)
	p.POST("/documents/:docId/notify", r.notifySubmitter)
}

func (r *Router) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, r.maxBody)
		c.Next()
	}
}
