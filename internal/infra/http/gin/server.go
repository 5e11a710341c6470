package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentacar/internal/infra/config"
	"rentacar/internal/infra/obs"
)

type CarHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
	Block(c *gin.Context)
	Unblock(c *gin.Context)
}

type RentalHTTP interface {
	Quote(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	ListMine(c *gin.Context)
	ListAgency(c *gin.Context)
	UpdateStatus(c *gin.Context)
	Cancel(c *gin.Context)
}

type Handlers struct {
	Cars           CarHTTP
	Availability   AvailabilityHTTP
	Rentals        RentalHTTP
	AuthMiddleware gin.HandlerFunc
	RateLimit      gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine with every route under /api/v1.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.RateLimit != nil {
		api.Use(h.RateLimit)
	}
	if h.AuthMiddleware != nil {
		api.Use(h.AuthMiddleware)
	}
	if h.Cars != nil {
		api.GET("/cars", h.Cars.List)
		api.GET("/cars/:id", h.Cars.Get)
		agencyCars := api.Group("/agency/cars")
		agencyCars.POST("", h.Cars.Create)
		agencyCars.PUT("/:id", h.Cars.Update)
		agencyCars.DELETE("/:id", h.Cars.Delete)
	}
	if h.Availability != nil {
		api.GET("/cars/:id/availability", h.Availability.Calendar)
		api.POST("/agency/cars/:id/blocked-dates", h.Availability.Block)
		api.POST("/agency/cars/:id/blocked-dates/unblock", h.Availability.Unblock)
	}
	if h.Rentals != nil {
		api.POST("/cars/:id/quote", h.Rentals.Quote)
		api.POST("/rentals", h.Rentals.Create)
		api.GET("/rentals/:id", h.Rentals.Get)
		api.PATCH("/rentals/:id/status", h.Rentals.UpdateStatus)
		api.POST("/rentals/:id/cancel", h.Rentals.Cancel)
		api.GET("/me/rentals", h.Rentals.ListMine)
		api.GET("/agency/rentals", h.Rentals.ListAgency)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
