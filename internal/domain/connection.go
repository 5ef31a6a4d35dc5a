package domain

import "strings"

// Connection is one circuit held by a site. A site may hold any number.
type Connection struct {
	Type                 string `json:"type" yaml:"type" validate:"required"`
	Bandwidth            string `json:"bandwidth" yaml:"bandwidth"`
	Provider             string `json:"provider,omitempty" yaml:"provider,omitempty"`
	PointToPointEndpoint string `json:"point_to_point_endpoint,omitempty" yaml:"point_to_point_endpoint,omitempty"`
	CustomProvider       string `json:"custom_provider,omitempty" yaml:"custom_provider,omitempty"`
}

// ProviderName returns the custom provider when one is set, otherwise the provider
func (c Connection) ProviderName() string {
	if c.CustomProvider != "" {
		return c.CustomProvider
	}
	return c.Provider
}

// IsPointToPoint reports whether the connection is a dedicated link to
// another site: either its type mentions "point" or it names an endpoint.
func (c Connection) IsPointToPoint() bool {
	if strings.TrimSpace(c.PointToPointEndpoint) != "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Type), "point")
}

// Site is a customer location as supplied by the inventory
type Site struct {
	ID       string `json:"id" yaml:"id" validate:"required"`
	Name     string `json:"name" yaml:"name" validate:"required"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Coordinates is the persisted normalized position, nil until the site
	// has been dragged at least once.
	Coordinates *Point2D `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	// Location is the geographic position, required for geographic layouts.
	Location *GeoPoint `json:"location,omitempty" yaml:"location,omitempty"`

	Connections []Connection `json:"connections" yaml:"connections" validate:"dive"`
}

// Label returns the display name of the site, falling back to its ID
func (s Site) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// Matches reports whether ref names this site by name or ID
func (s Site) Matches(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	return ref == s.ID || strings.EqualFold(ref, s.Name)
}

// Facility is a candidate nearest-neighbour target such as a provider
// point of presence or a cloud on-ramp
type Facility struct {
	ID   string  `json:"id" yaml:"id" validate:"required"`
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `json:"lon" yaml:"lon" validate:"gte=-180,lte=180"`
}

// Location returns the facility position as a GeoPoint
func (f Facility) Location() GeoPoint {
	return GeoPoint{Lat: f.Lat, Lon: f.Lon}
}

// Inventory is the full input of the layout engine as supplied by an
// import: customer sites and the facility catalog
type Inventory struct {
	Sites      []Site     `json:"sites" yaml:"sites" validate:"dive"`
	Facilities []Facility `json:"facilities" yaml:"facilities" validate:"dive"`
}
