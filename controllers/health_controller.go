package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/threadline/comments-backend/services"
)

// Pinger is implemented by stores that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports service status and, when the store supports it, the
// store connection.
func HealthCheck(store services.RecordStore, subscribers func() int) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(services.TimeFormat),
			"store":     "ok",
		}
		if subscribers != nil {
			response["websocket"] = gin.H{"subscribers": subscribers()}
		}

		if p, ok := store.(Pinger); ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				response["status"] = "degraded"
				response["store"] = "error: cannot reach store"
				c.JSON(http.StatusInternalServerError, response)
				return
			}
		}

		c.JSON(http.StatusOK, response)
	}
}
