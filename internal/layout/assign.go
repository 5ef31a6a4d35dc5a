package layout

import (
	"circuitmap/internal/domain"
	"circuitmap/internal/geo"
)

// Assignment groups sites under their nearest facility
type Assignment struct {
	// FacilityOf maps site ID to facility ID
	FacilityOf map[string]string `json:"facility_of"`
	// DistanceMiles maps site ID to the distance to its facility
	DistanceMiles map[string]float64 `json:"distance_miles"`
	// Groups maps facility ID to its sites in input order
	Groups map[string][]domain.Site `json:"-"`
	// Order lists facility IDs in the order they first received a site
	Order []string `json:"order"`
	// Unassigned holds sites without a location, or all sites when the
	// facility catalog is empty
	Unassigned []domain.Site `json:"-"`
}

// Facility returns the facility assigned to siteID
func (a *Assignment) Facility(siteID string) (string, bool) {
	id, ok := a.FacilityOf[siteID]
	return id, ok
}

// NearestFacility returns the index of the facility closest to p and its
// distance in kilometres. Ties go to the first facility in input order.
// ok is false when facilities is empty.
func NearestFacility(p domain.GeoPoint, facilities []domain.Facility) (index int, km float64, ok bool) {
	index = -1
	for i, f := range facilities {
		d := geo.HaversineKm(p, f.Location())
		if index < 0 || d < km {
			index, km = i, d
		}
	}
	return index, km, index >= 0
}

// AssignFacilities finds the nearest facility for every located site by
// linear scan. Cost is sites x facilities, which is fine for the tens to
// low hundreds this runs on; a spatial index is the first thing to add for
// large catalogs.
func AssignFacilities(sites []domain.Site, facilities []domain.Facility) *Assignment {
	a := &Assignment{
		FacilityOf:    make(map[string]string),
		DistanceMiles: make(map[string]float64),
		Groups:        make(map[string][]domain.Site),
		Order:         make([]string, 0),
	}

	for _, site := range sites {
		if site.Location == nil {
			a.Unassigned = append(a.Unassigned, site)
			continue
		}
		idx, km, ok := NearestFacility(*site.Location, facilities)
		if !ok {
			a.Unassigned = append(a.Unassigned, site)
			continue
		}

		fid := facilities[idx].ID
		if _, seen := a.Groups[fid]; !seen {
			a.Order = append(a.Order, fid)
		}
		a.Groups[fid] = append(a.Groups[fid], site)
		a.FacilityOf[site.ID] = fid
		a.DistanceMiles[site.ID] = geo.KmToMiles(km)
	}

	return a
}
