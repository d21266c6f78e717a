package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const contextKeyRequestID = "request_id"

type RouterConfig struct {
	GinMode string
	// AllowedOrigins restricts CORS. Empty allows all origins.
	AllowedOrigins []string
}

func NewRouter(api *API, cfg RouterConfig, log zerolog.Logger) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(requestIDMiddleware())
	router.Use(accessLogMiddleware(log.With().Str("component", "http").Logger()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/players", api.HandleCreatePlayer)

		players := v1.Group("/players/:id")
		players.GET("/catalog", api.HandleCatalog)

		session := players.Group("/session")
		session.GET("", api.HandleGetSession)
		session.DELETE("", api.HandleReturnToCatalog)
		session.POST("/group", api.HandleStartGroup)
		session.POST("/random", api.HandleStartRandom)
		session.POST("/answer", api.HandleAnswer)
		session.POST("/next", api.HandleNext)
		session.POST("/prev", api.HandlePrev)
		session.POST("/explanation", api.HandleExplanation)
		session.POST("/finish", api.HandleFinish)
		session.GET("/stream", api.HandleSessionStream)
	}

	return router
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(contextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}

func accessLogMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		}

		event.
			Str("request_id", c.GetString(contextKeyRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}
