package weather

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unit is a display temperature unit.
type Unit string

const (
	Fahrenheit Unit = "F"
	Celsius    Unit = "C"
	Kelvin     Unit = "K"
)

// ParseUnit accepts F, C or K in any case; anything else is Fahrenheit.
func ParseUnit(s string) Unit {
	switch Unit(strings.ToUpper(s)) {
	case Celsius:
		return Celsius
	case Kelvin:
		return Kelvin
	default:
		return Fahrenheit
	}
}

// Convert converts a Kelvin reading into u.
func Convert(kelvin float64, u Unit) float64 {
	switch u {
	case Celsius:
		return kelvin - 273.15
	case Kelvin:
		return kelvin
	default:
		return (kelvin-273.15)*9/5 + 32
	}
}

// FormatTemperature renders a Kelvin reading in u with no decimals, e.g. "71°F".
func FormatTemperature(kelvin float64, u Unit) string {
	v := math.Round(Convert(kelvin, u))
	if v == 0 {
		v = 0 // no "-0°C"
	}
	if u == Kelvin {
		return fmt.Sprintf("%.0f K", v)
	}
	return fmt.Sprintf("%.0f°%s", v, u)
}

const (
	forecastTimeLayout = "2006-01-02 15:04:05"
	displayTimeLayout  = "Jan 02 2006 3:04 PM"
)

// FormatForecastTime turns a forecast dt_txt into a display string,
// returning "" when the input cannot be parsed.
func FormatForecastTime(dtTxt string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(forecastTimeLayout, dtTxt, loc)
	if err != nil {
		return ""
	}
	return t.Format(displayTimeLayout)
}
