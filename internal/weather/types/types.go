package types

import (
	"encoding/json"
	"fmt"
)

// Coordinate is a geographic point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("lat=%g&lon=%g", c.Latitude, c.Longitude)
}

// Category is the closed set of weather conditions the app knows how to render.
type Category string

const (
	CategoryClear  Category = "Clear"
	CategoryClouds Category = "Clouds"
	CategoryRain   Category = "Rain"
	CategoryHaze   Category = "Haze"
)

// UnmarshalJSON rejects any value outside the known categories.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch Category(s) {
	case CategoryClear, CategoryClouds, CategoryRain, CategoryHaze:
		*c = Category(s)
		return nil
	}
	return fmt.Errorf("unknown weather category %q", s)
}

// Symbol returns the icon name used by clients to render the category.
func (c Category) Symbol() string {
	switch c {
	case CategoryClouds:
		return "cloud.fill"
	case CategoryRain:
		return "cloud.drizzle.fill"
	case CategoryHaze:
		return "sun.haze.circle.fill"
	default:
		return "sun.max.fill"
	}
}

// Temperature values are in Kelvin.
type Temperature struct {
	Temp     float64 `json:"temp"`
	TempMin  float64 `json:"temp_min"`
	TempMax  float64 `json:"temp_max"`
	Humidity int     `json:"humidity"`
}

type Condition struct {
	ID          int      `json:"id"`
	Main        Category `json:"main"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
}

type CountryDetails struct {
	Country string `json:"country"`
}

type Wind struct {
	Speed float64 `json:"speed"`
}

// CurrentWeatherResponse mirrors GET /data/2.5/weather.
type CurrentWeatherResponse struct {
	Coord   Coordinate     `json:"coord"`
	Main    Temperature    `json:"main"`
	Weather []Condition    `json:"weather"`
	Sys     CountryDetails `json:"sys"`
	Name    string         `json:"name"`
}

// ForecastEntry is one 3-hour slot of the 5 day forecast.
type ForecastEntry struct {
	Main       Temperature `json:"main"`
	Weather    []Condition `json:"weather"`
	Wind       Wind        `json:"wind"`
	Visibility int         `json:"visibility"`
	DtTxt      string      `json:"dt_txt"`
}

// ForecastResponse mirrors GET /data/2.5/forecast.
type ForecastResponse struct {
	List []ForecastEntry `json:"list"`
}
