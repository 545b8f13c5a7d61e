package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/namefreezers/weatherhere/internal/forecast"
	"github.com/namefreezers/weatherhere/internal/search"
	"github.com/namefreezers/weatherhere/internal/services"
	"github.com/namefreezers/weatherhere/internal/weather"
	"github.com/namefreezers/weatherhere/internal/weather/openweathermap"
	"github.com/namefreezers/weatherhere/internal/weather/types"
)

type conditionView struct {
	Category    types.Category `json:"category"`
	Symbol      string         `json:"symbol"`
	Description string         `json:"description"`
}

type currentView struct {
	Title       string         `json:"title"`
	Temperature string         `json:"temperature"`
	Min         string         `json:"min"`
	Max         string         `json:"max"`
	Humidity    int            `json:"humidity"`
	Condition   *conditionView `json:"condition,omitempty"`
}

type forecastView struct {
	Time        string         `json:"time"`
	Temperature string         `json:"temperature"`
	Min         string         `json:"min"`
	Max         string         `json:"max"`
	Humidity    int            `json:"humidity"`
	WindSpeed   float64        `json:"windSpeed"`
	Visibility  int            `json:"visibility"`
	Condition   *conditionView `json:"condition,omitempty"`
}

// stateResponse mirrors the forecast snapshot with display-ready values.
type stateResponse struct {
	Unit            weather.Unit      `json:"unit"`
	Location        *types.Coordinate `json:"location,omitempty"`
	LoadingCurrent  bool              `json:"loadingCurrent"`
	LoadingForecast bool              `json:"loadingForecast"`
	LastError       *string           `json:"lastError,omitempty"`
	Current         *currentView      `json:"current,omitempty"`
	Forecast        []forecastView    `json:"forecast"`
}

func condition(cs []types.Condition) *conditionView {
	if len(cs) == 0 {
		return nil
	}
	return &conditionView{Category: cs[0].Main, Symbol: cs[0].Main.Symbol(), Description: cs[0].Description}
}

func buildState(snap forecast.Snapshot, unit weather.Unit) stateResponse {
	resp := stateResponse{
		Unit:            unit,
		LoadingCurrent:  snap.LoadingCurrent,
		LoadingForecast: snap.LoadingForecast,
		LastError:       snap.LastError,
		Forecast:        []forecastView{},
	}
	if cur := snap.Current; cur != nil {
		title := cur.Name
		if cur.Sys.Country != "" {
			title += ", " + cur.Sys.Country
		}
		resp.Current = &currentView{
			Title:       title,
			Temperature: weather.FormatTemperature(cur.Main.Temp, unit),
			Min:         weather.FormatTemperature(cur.Main.TempMin, unit),
			Max:         weather.FormatTemperature(cur.Main.TempMax, unit),
			Humidity:    cur.Main.Humidity,
			Condition:   condition(cur.Weather),
		}
	}
	if snap.Forecast != nil {
		for _, e := range snap.Forecast.List {
			resp.Forecast = append(resp.Forecast, forecastView{
				Time:        weather.FormatForecastTime(e.DtTxt, nil),
				Temperature: weather.FormatTemperature(e.Main.Temp, unit),
				Min:         weather.FormatTemperature(e.Main.TempMin, unit),
				Max:         weather.FormatTemperature(e.Main.TempMax, unit),
				Humidity:    e.Main.Humidity,
				WindSpeed:   e.Wind.Speed,
				Visibility:  e.Visibility,
				Condition:   condition(e.Weather),
			})
		}
	}
	return resp
}

// StateHandler handles GET /api/state
func StateHandler(fc *forecast.State, svc *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := buildState(fc.Snapshot(), weather.ParseUnit(c.Query("unit")))
		if coord, ok := svc.Current(); ok {
			resp.Location = &coord
		}
		c.JSON(http.StatusOK, resp)
	}
}

// locationRequest is either a coordinate or {"fallback": true}.
type locationRequest struct {
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Fallback bool     `json:"fallback"`
}

// LocationHandler handles POST /api/location
func LocationHandler(svc *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req locationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var live *types.Coordinate
		if !req.Fallback {
			if req.Lat == nil || req.Lon == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required unless fallback is set"})
				return
			}
			if *req.Lat < -90 || *req.Lat > 90 || *req.Lon < -180 || *req.Lon > 180 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "coordinate out of range"})
				return
			}
			live = &types.Coordinate{Latitude: *req.Lat, Longitude: *req.Lon}
		}

		coord, source, err := svc.Resolve(c.Request.Context(), live)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := svc.Refresh(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"location": coord, "source": source})
	}
}

// RefreshHandler handles POST /api/refresh
func RefreshHandler(svc *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Refresh(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// writeError maps domain errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusInternalServerError
	var httpErr *openweathermap.HTTPError
	switch {
	case errors.Is(err, services.ErrNoLocation),
		errors.Is(err, forecast.ErrSuperseded),
		errors.Is(err, search.ErrSuperseded):
		status = http.StatusConflict
	case errors.Is(err, search.ErrIndexOutOfRange):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrCityWithoutCoordinate):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &httpErr):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	body := gin.H{"error": err.Error()}
	if httpErr != nil {
		body["retriable"] = httpErr.Retriable()
	}
	c.JSON(status, body)
}
