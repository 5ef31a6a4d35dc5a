package sqlite

import (
	"database/sql"

	"circuitmap/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToPoint returns nil unless both columns are set
func nullToPoint(x, y sql.NullFloat64) *domain.Point2D {
	if !x.Valid || !y.Valid {
		return nil
	}
	return &domain.Point2D{X: x.Float64, Y: y.Float64}
}

// nullToGeo returns nil unless both columns are set
func nullToGeo(lat, lon sql.NullFloat64) *domain.GeoPoint {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &domain.GeoPoint{Lat: lat.Float64, Lon: lon.Float64}
}

// pointToNull splits an optional point into two nullable columns
func pointToNull(p *domain.Point2D) (sql.NullFloat64, sql.NullFloat64) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.X, Valid: true}, sql.NullFloat64{Float64: p.Y, Valid: true}
}

// geoToNull splits an optional location into two nullable columns
func geoToNull(g *domain.GeoPoint) (sql.NullFloat64, sql.NullFloat64) {
	if g == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: g.Lat, Valid: true}, sql.NullFloat64{Float64: g.Lon, Valid: true}
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to sites table:
// 1. Add field to siteRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update siteColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.Site
// 5. Update the INSERT in upsertSite() if column should be writable
// 6. Add migration in sqlite.go migrate() using addColumnIfNotExists()
// 7. Update relevant tests
//
// CRITICAL: Column order must match between:
// - siteColumns constant
// - scanArgs() return slice
// - All SELECT queries using siteColumns
//
// Same pattern applies to connections.

// ============================================================================
// Site Row Scanner
// ============================================================================

const siteColumns = `id, name, category, lat, lon, coord_x, coord_y`

// siteRow holds all columns from a site query for scanning
type siteRow struct {
	ID       string
	Name     string
	Category sql.NullString
	Lat      sql.NullFloat64
	Lon      sql.NullFloat64
	CoordX   sql.NullFloat64
	CoordY   sql.NullFloat64
}

// scanArgs returns pointers in siteColumns order
func (r *siteRow) scanArgs() []any {
	return []any{&r.ID, &r.Name, &r.Category, &r.Lat, &r.Lon, &r.CoordX, &r.CoordY}
}

// toDomain converts the row to a site without connections
func (r *siteRow) toDomain() domain.Site {
	return domain.Site{
		ID:          r.ID,
		Name:        r.Name,
		Category:    nullToString(r.Category),
		Location:    nullToGeo(r.Lat, r.Lon),
		Coordinates: nullToPoint(r.CoordX, r.CoordY),
		Connections: make([]domain.Connection, 0),
	}
}

// ============================================================================
// Connection Row Scanner
// ============================================================================

const connectionColumns = `site_id, type, bandwidth, provider, endpoint, custom_provider`

// connectionRow holds all columns from a connection query for scanning
type connectionRow struct {
	SiteID         string
	Type           string
	Bandwidth      sql.NullString
	Provider       sql.NullString
	Endpoint       sql.NullString
	CustomProvider sql.NullString
}

// scanArgs returns pointers in connectionColumns order
func (r *connectionRow) scanArgs() []any {
	return []any{&r.SiteID, &r.Type, &r.Bandwidth, &r.Provider, &r.Endpoint, &r.CustomProvider}
}

// toDomain converts the row to a connection
func (r *connectionRow) toDomain() domain.Connection {
	return domain.Connection{
		Type:                 r.Type,
		Bandwidth:            nullToString(r.Bandwidth),
		Provider:             nullToString(r.Provider),
		PointToPointEndpoint: nullToString(r.Endpoint),
		CustomProvider:       nullToString(r.CustomProvider),
	}
}
