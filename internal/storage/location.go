// Package storage implements the Storage Router: the piece that, given
// a file's URI and an action, resolves which transfer backend should
// move it and what its destination URI on the other tier would be, by
// longest-prefix matching against a configured table of Location rows.
package storage

import "strings"

// Location is a single hot/cold prefix pair bound to the backend that
// can move files between them.
type Location struct {
	HotPrefix  string `json:"hot_prefix" yaml:"hot_prefix"`
	ColdPrefix string `json:"cold_prefix" yaml:"cold_prefix"`
	Backend    string `json:"back_end" yaml:"back_end"`
}

// Router holds an ordered list of Location rows and resolves a file's
// peer URI and backend name by longest-prefix match.
type Router struct {
	locations []Location
}

// NewRouter creates a Router over the given locations.
func NewRouter(locations []Location) *Router {
	return &Router{locations: locations}
}

// Add appends a location to the table.
func (r *Router) Add(loc Location) {
	r.locations = append(r.locations, loc)
}

// Locations returns the configured location table.
func (r *Router) Locations() []Location {
	return r.locations
}

// FindURL chooses the location whose hot prefix (for archive) or cold
// prefix (for stage) is the longest prefix of uri, and returns uri with
// that prefix rewritten to the other tier's prefix for the same
// location, plus the backend name bound to it. If no location matches,
// it returns ("", "").
func (r *Router) FindURL(action, uri string) (peerURI string, backendName string) {
	var best *Location
	bestLen := -1

	for i := range r.locations {
		loc := &r.locations[i]
		prefix := loc.HotPrefix
		if action == "stage" {
			prefix = loc.ColdPrefix
		}
		if strings.HasPrefix(uri, prefix) && len(prefix) > bestLen {
			best = loc
			bestLen = len(prefix)
		}
	}

	if best == nil {
		return "", ""
	}

	if action == "stage" {
		return best.HotPrefix + strings.TrimPrefix(uri, best.ColdPrefix), best.Backend
	}
	return best.ColdPrefix + strings.TrimPrefix(uri, best.HotPrefix), best.Backend
}
