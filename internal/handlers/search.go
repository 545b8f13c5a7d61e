package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/namefreezers/weatherhere/internal/search"
	"github.com/namefreezers/weatherhere/internal/services"
	"github.com/namefreezers/weatherhere/internal/weather/types"
)

type searchRequest struct {
	Query string `form:"q" binding:"required"`
}

type cityView struct {
	Index int        `json:"index"`
	Title string     `json:"title"`
	City  types.City `json:"city"`
}

func cityViews(cities []types.City) []cityView {
	out := make([]cityView, 0, len(cities))
	for i, city := range cities {
		out = append(out, cityView{Index: i, Title: city.Title(), City: city})
	}
	return out
}

// SearchHandler handles GET /api/search
func SearchHandler(sr *search.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req searchRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sr.Search(c.Request.Context(), req.Query); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": cityViews(sr.Results())})
	}
}

// ClearSearchHandler handles DELETE /api/search
func ClearSearchHandler(sr *search.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		sr.Clear()
		c.Status(http.StatusNoContent)
	}
}

// SelectHandler handles POST /api/search/select/:index
func SelectHandler(svc *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
			return
		}
		city, err := svc.SelectCity(c.Request.Context(), index)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"city": city, "title": city.Title()})
	}
}

// LastCityHandler handles GET /api/location/last
func LastCityHandler(svc *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		city, err := svc.LastCity(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		if city == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no city remembered"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"city": city, "title": city.Title()})
	}
}
