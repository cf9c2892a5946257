package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"loremaster/backend/internal/models"

	apperrors "loremaster/backend/pkg/errors"
)

// pinger reports whether the graph store is reachable
type pinger interface {
	VerifyConnectivity(ctx context.Context) error
}

// graphViews is the read side served over HTTP
type graphViews interface {
	GetGraph(ctx context.Context, q models.GraphQuery) (*models.GraphData, error)
	GetHierarchy(ctx context.Context, worldID string) (*models.GraphData, error)
}

func newRouter(db pinger, views graphViews, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(ginTracing())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.VerifyConnectivity(c.Request.Context()); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/graph", func(c *gin.Context) {
			var q models.GraphQuery
			if err := c.ShouldBindQuery(&q); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			data, err := views.GetGraph(c.Request.Context(), q)
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, data)
		})

		api.GET("/graph/hierarchy/:worldId", func(c *gin.Context) {
			data, err := views.GetHierarchy(c.Request.Context(), c.Param("worldId"))
			if err != nil {
				respondError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, data)
		})
	}

	return router
}

// statusFor maps repository errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// ginTracing opens a span per request so graph transaction spans nest under it
func ginTracing() gin.HandlerFunc {
	tracer := otel.Tracer("loremaster/http")
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
