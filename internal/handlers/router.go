package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/namefreezers/weatherhere/internal/events"
	"github.com/namefreezers/weatherhere/internal/forecast"
	"github.com/namefreezers/weatherhere/internal/search"
	"github.com/namefreezers/weatherhere/internal/services"
)

// Deps are the application objects the routes operate on.
type Deps struct {
	Hub      *events.Hub
	Forecast *forecast.State
	Search   *search.State
	Location *services.LocationService
	Debounce time.Duration
}

// NewRouter builds the gin engine with every /api route registered.
func NewRouter(d Deps, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/state", StateHandler(d.Forecast, d.Location))
		api.POST("/location", LocationHandler(d.Location))
		api.POST("/refresh", RefreshHandler(d.Location))
		api.GET("/location/last", LastCityHandler(d.Location))
		api.GET("/search", SearchHandler(d.Search))
		api.DELETE("/search", ClearSearchHandler(d.Search))
		api.POST("/search/select/:index", SelectHandler(d.Location))
		api.GET("/stream", StreamHandler(d.Hub, d.Search, d.Debounce, logger))
	}
	return router
}
