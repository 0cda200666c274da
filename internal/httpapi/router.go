// Package httpapi exposes the services over HTTP with gin.
package httpapi

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/excellere/excellere/internal/auth"
	"github.com/excellere/excellere/internal/credential"
	"github.com/excellere/excellere/internal/curriculum"
	"github.com/excellere/excellere/internal/logger"
	"github.com/excellere/excellere/internal/review"
	"github.com/excellere/excellere/internal/teachback"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig holds everything the router serves.
type RouterConfig struct {
	Log         *logger.Logger
	Issuer      *auth.Issuer
	TeachBack   *teachback.Service
	Review      *review.Service
	Credentials *credential.Service
	Catalog     *curriculum.Catalog
	DB          Pinger
	CORSOrigins []string
	ServiceName string
	Tracing     bool
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "http")

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing {
		name := cfg.ServiceName
		if name == "" {
			name = "excellere"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(requestID(), accessLog(log))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", headerRequestID},
			ExposeHeaders:    []string{headerRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	tb := &teachBackHandler{svc: cfg.TeachBack, catalog: cfg.Catalog}
	rv := &reviewHandler{svc: cfg.Review}
	cr := &credentialHandler{svc: cfg.Credentials, log: log}

	// Public
	r.GET("/healthz", healthz(cfg.DB))
	r.GET("/credentials/:reportId", cr.Page)
	r.GET("/credentials/:reportId/card.png", cr.Card)
	r.POST("/api/validators/login", rv.Login)
	r.GET("/api/curriculum", tb.Curriculum)

	// Learner
	learner := r.Group("/api")
	learner.Use(requireRole(cfg.Issuer, auth.RoleLearner))
	learner.PUT("/profile", tb.SaveProfile)
	learner.POST("/teachback", tb.Submit)
	learner.POST("/teachback/deeper", tb.SubmitDeeper)
	learner.GET("/phase/:conceptId", tb.Phase)
	learner.POST("/phase/advance", tb.AdvancePhase)
	learner.GET("/knowledge-nodes", tb.Nodes)
	learner.POST("/knowledge-nodes", tb.UpsertNode)
	learner.POST("/modules/:moduleId/complete", tb.CompleteModule)
	learner.GET("/badges", tb.Badges)

	// Validator
	validator := r.Group("/api/review")
	validator.Use(requireRole(cfg.Issuer, auth.RoleValidator))
	validator.GET("/queue", rv.Queue)
	validator.POST("/reports/:reportId", rv.Review)

	return r
}
