package types

// City is a geocoding result. Every field is optional since search results
// and previously persisted records may be partial.
type City struct {
	ID      *int     `json:"id,omitempty"`
	Name    *string  `json:"name,omitempty"`
	Region  *string  `json:"region,omitempty"`
	Country *string  `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
	URL     *string  `json:"url,omitempty"`
}

// Coordinate reports the city's location; ok is false unless both lat and lon are set.
func (c City) Coordinate() (Coordinate, bool) {
	if c.Lat == nil || c.Lon == nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: *c.Lat, Longitude: *c.Lon}, true
}

// Title renders "name, country", or "" when either part is missing.
func (c City) Title() string {
	if c.Name == nil || c.Country == nil {
		return ""
	}
	return *c.Name + ", " + *c.Country
}

// Equal compares the pointed-to values, not the pointers.
func (c City) Equal(o City) bool {
	return eq(c.ID, o.ID) &&
		eq(c.Name, o.Name) &&
		eq(c.Region, o.Region) &&
		eq(c.Country, o.Country) &&
		eq(c.Lat, o.Lat) &&
		eq(c.Lon, o.Lon) &&
		eq(c.URL, o.URL)
}

func eq[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
