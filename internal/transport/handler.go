package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/rgd-inspector-go/internal/config"
	apperrors "github.com/anime-shed/rgd-inspector-go/internal/errors"
	"github.com/anime-shed/rgd-inspector-go/internal/logger"
	"github.com/anime-shed/rgd-inspector-go/internal/service"
	"github.com/anime-shed/rgd-inspector-go/pkg/models"
)

const apiVersion = "1.0.0"

// NewHandler wires the HTTP routes. metrics may be nil, in which case
// /metrics is not served.
func NewHandler(svc service.AnalysisService, metrics http.Handler, cfg *config.Config) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := r.Group("/v1")
	v1.POST("/analyses/evaluate", evaluateTrace(svc, cfg))
	v1.POST("/analyses/batch", evaluateBatch(svc, cfg))
	v1.POST("/ratings", rateMetrics(svc))

	return r
}

func evaluateTrace(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logRequest(c, "Processing trace evaluation request")

		var doc models.TraceDocument
		if err := c.ShouldBindJSON(&doc); err != nil {
			abortWithError(c, "invalid request format", bindError(err))
			return
		}

		resp, err := svc.Evaluate(ctx, doc)
		if err != nil {
			abortWithError(c, "evaluation failed", err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func evaluateBatch(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logRequest(c, "Processing batch evaluation request")

		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, "invalid request format", bindError(err))
			return
		}

		resp, err := svc.EvaluateBatch(ctx, req.Documents)
		if err != nil {
			abortWithError(c, "batch evaluation failed", err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func rateMetrics(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var metrics models.AnalysisMetrics
		if err := c.ShouldBindJSON(&metrics); err != nil {
			abortWithError(c, "invalid request format", bindError(err))
			return
		}

		resp, err := svc.Rate(metrics)
		if err != nil {
			abortWithError(c, "rating failed", err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// bindError marks a request decoding failure as a validation error
func bindError(err error) error {
	return apperrors.NewValidationError("request body could not be decoded", err)
}

// abortWithError records err for errorHandler, which writes the response
func abortWithError(c *gin.Context, message string, err error) {
	_ = c.Error(err).SetMeta(message)
	c.Abort()
}

func logRequest(c *gin.Context, msg string) {
	logger.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info(msg)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": apiVersion,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			message, ok := err.Meta.(string)
			if !ok {
				message = "request processing failed"
			}
			respondError(c, determineStatusCode(err.Err), message, err.Err)
		}
	}
}

// statusClientClosedRequest is the nginx convention for a client that went
// away before the response was written
const statusClientClosedRequest = 499

func determineStatusCode(err error) int {
	// Checked first: a decoding failure wraps the body limit error
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func statusText(code int) string {
	if code == statusClientClosedRequest {
		return "Client Closed Request"
	}
	return http.StatusText(code)
}

func respondError(c *gin.Context, code int, message string, err error) {
	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   statusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
