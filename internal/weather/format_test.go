package weather

import (
	"testing"
	"time"
)

func TestFormatTemperature(t *testing.T) {
	cases := []struct {
		kelvin float64
		unit   Unit
		want   string
	}{
		{295.08, Fahrenheit, "71°F"},
		{295.43, Fahrenheit, "72°F"},
		{295.08, Celsius, "22°C"},
		{273.15, Celsius, "0°C"},
		{272.9, Celsius, "0°C"},
		{255.37, Fahrenheit, "0°F"},
		{300, Kelvin, "300 K"},
	}
	for _, tc := range cases {
		if got := FormatTemperature(tc.kelvin, tc.unit); got != tc.want {
			t.Errorf("FormatTemperature(%v, %s) = %q, want %q", tc.kelvin, tc.unit, got, tc.want)
		}
	}
}

func TestParseUnit(t *testing.T) {
	cases := map[string]Unit{"c": Celsius, "C": Celsius, "k": Kelvin, "f": Fahrenheit, "": Fahrenheit, "x": Fahrenheit}
	for in, want := range cases {
		if got := ParseUnit(in); got != want {
			t.Errorf("ParseUnit(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatForecastTime(t *testing.T) {
	if got := FormatForecastTime("2023-06-08 21:00:00", time.UTC); got != "Jun 08 2023 9:00 PM" {
		t.Errorf("FormatForecastTime() = %q", got)
	}
	if got := FormatForecastTime("2023-06-09 00:00:00", nil); got != "Jun 09 2023 12:00 AM" {
		t.Errorf("FormatForecastTime() = %q", got)
	}
	if got := FormatForecastTime("yesterday", time.UTC); got != "" {
		t.Errorf("FormatForecastTime(bad) = %q, want empty", got)
	}
}
