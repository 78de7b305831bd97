package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/threadline/comments-backend/controllers"
	"github.com/threadline/comments-backend/middleware"
	"github.com/threadline/comments-backend/services"
	"github.com/threadline/comments-backend/ws"
)

// Deps are the collaborators the router needs. Hub and Metrics are optional.
type Deps struct {
	Comments controllers.CommentBackend
	Store    services.RecordStore
	Hub      *ws.Hub
	Metrics  *middleware.Metrics
	Log      zerolog.Logger
}

// NewEngine builds a gin engine with recovery, request logging, metrics and
// CORS for the given origins.
func NewEngine(corsOrigins []string, metrics *middleware.Metrics, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	if metrics != nil {
		r.Use(metrics.Middleware())
	}
	r.Use(cors.New(corsConfig(corsOrigins)))
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}
	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func SetupRouter(r *gin.Engine, d Deps) *gin.Engine {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Comments server is running")
	})
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	var subscribers func() int
	if d.Hub != nil {
		subscribers = d.Hub.Count
	}

	api := r.Group("/api")
	api.GET("/health", controllers.HealthCheck(d.Store, subscribers))

	comments := controllers.NewCommentController(d.Comments, d.Metrics, d.Log)
	group := api.Group("/comments")
	{
		group.GET("", comments.GetComments)
		group.POST("", comments.CreateComment)
		group.DELETE("/:id", comments.DeleteComment)
	}

	if d.Hub != nil {
		r.GET("/ws/comments", d.Hub.HandleCommentsWebSocket)
	}
	if d.Metrics != nil {
		r.GET("/metrics", d.Metrics.Handler())
	}
	return r
}
