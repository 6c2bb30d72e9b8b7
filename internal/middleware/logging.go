package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs incoming requests and their responses
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		log.Debug("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
		)

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if userID := c.GetString(ContextUserIDKey); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP Response", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP Response", fields...)
		default:
			log.Info("HTTP Response", fields...)
		}
	}
}

// Recovery turns a panic into the JSON 500 response used by every handler
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": msgServerError,
			"error":   fmt.Sprint(recovered),
		})
	})
}

// JSONCharset declares UTF-8 JSON on API responses. Redirects go out without a body type.
func JSONCharset() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/metrics") {
			c.Next()
			return
		}
		c.Header("Content-Type", "application/json; charset=utf-8")
		c.Writer = &charsetWriter{ResponseWriter: c.Writer}
		c.Next()
	}
}

type charsetWriter struct {
	gin.ResponseWriter
}

func (w *charsetWriter) WriteHeader(code int) {
	if code >= http.StatusMultipleChoices && code < http.StatusBadRequest {
		w.Header().Del("Content-Type")
	}
	w.ResponseWriter.WriteHeader(code)
}
