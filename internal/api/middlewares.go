package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

func (a *API) recoveryMiddleware(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic",
				zap.Any("panic", r),
				zap.String("path", c.Request.URL.Path),
				zap.Stack("stack"),
			)

			c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: msgInternalError})
		}
	}()

	c.Next()
}

func (a *API) accessLogMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next()

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
		zap.String("client_ip", c.ClientIP()),
	}

	if c.Writer.Status() >= http.StatusInternalServerError {
		log.Warn("http request", fields...)
		return
	}

	log.Debug("http request", fields...)
}

func (a *API) timeoutMiddleware(c *gin.Context) {
	if a.cfg.RequestTimeout <= 0 {
		c.Next()
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), a.cfg.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)

	c.Next()
}
