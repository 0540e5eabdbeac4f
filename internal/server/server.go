package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/interlock-tracker/internal/common"
	"github.com/joseph-ayodele/interlock-tracker/internal/entity"
	"github.com/joseph-ayodele/interlock-tracker/internal/export"
	"github.com/joseph-ayodele/interlock-tracker/internal/repository"
	"github.com/joseph-ayodele/interlock-tracker/internal/verification"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DocumentStore persists uploads.
type DocumentStore interface {
	Save(ctx context.Context, scope entity.Scope, filename string, r io.Reader) (entity.Document, bool, error)
}

// JobService submits and reads extraction jobs.
type JobService interface {
	Submit(ctx context.Context, documentID uuid.UUID, scope entity.Scope) (entity.ExtractJob, error)
	Get(ctx context.Context, id uuid.UUID) (entity.ExtractJob, error)
}

// Deps are the collaborators the HTTP layer routes to.
type Deps struct {
	DB           Pinger
	Store        DocumentStore
	Documents    repository.DocumentRepository
	JobHistory   repository.ExtractJobRepository
	Jobs         JobService
	Zones        repository.ZoneRepository
	Equipment    repository.EquipmentRepository
	Links        repository.LinkRepository
	Verification *verification.Service
	Export       *export.Service
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Logger      *slog.Logger
}

type handlers struct {
	Deps
	log *slog.Logger
}

// NewRouter wires every endpoint onto a gin engine.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	h := &handlers{Deps: d, log: d.Logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(d.Logger), cors(d.CORSOrigins))

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api/v1")

	api.POST("/documents", h.uploadDocument)
	api.GET("/documents/:id", h.getDocument)
	api.POST("/documents/:id/parse", h.parseDocument)
	api.GET("/jobs/:id", h.getJob)

	api.GET("/zones", h.listZones)
	api.POST("/zones", h.createZone)
	api.GET("/zones/:id", h.getZone)
	api.PUT("/zones/:id", h.updateZone)
	api.DELETE("/zones/:id", h.deleteZone)

	api.GET("/equipment", h.listEquipment)
	api.POST("/equipment", h.createEquipment)
	api.GET("/equipment/:id", h.getEquipment)
	api.PUT("/equipment/:id", h.updateEquipment)
	api.DELETE("/equipment/:id", h.deleteEquipment)

	api.GET("/links", h.listLinks)
	api.POST("/links", h.createLink)
	api.DELETE("/links", h.deleteLink)

	api.POST("/campaigns", h.createCampaign)
	api.GET("/campaigns", h.listCampaigns)
	api.GET("/campaigns/:id", h.getCampaign)
	api.PATCH("/campaigns/:id", h.updateCampaign)
	api.POST("/campaigns/:id/generate-checks", h.generateChecks)
	api.GET("/campaigns/:id/checks", h.listChecks)
	api.GET("/checks/:id", h.getCheck)
	api.PATCH("/checks/:id/results", h.updateResults)

	api.GET("/export/matrix.xlsx", h.exportMatrix)

	return r
}

func (h *handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			h.log.Error("health.db.unavailable", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "up"})
}

const headerRequestID = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), id))
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http.request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"request_id", common.RequestIDFromContext(c.Request.Context()),
		)
	}
}

func cors(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			allowAll = true
		}
		if o != "" {
			allowed[o] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; origin != "" && (ok || allowAll) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Company-ID, X-Site-ID")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
