package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SetupRouter creates and configures the Gin router. An empty
// allowedOrigins allows all origins.
func SetupRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/datasets", handler.GetDatasets)

	st := v1.Group("/stations")
	st.GET("", handler.GetStations)
	st.GET("/:id", handler.GetStation)
	st.GET("/:id/available", handler.GetAvailable)
	st.GET("/:id/data", handler.GetData)
	st.GET("/:id/latest", handler.GetLatest)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
