package topology

import (
	"encoding/json"
	"fmt"
	"os"

	"bus-eta-service/internal/domain"
)

// MissingStops lists the topology stop names of one route that were not found
// in a provider snapshot.
type MissingStops struct {
	Route string   `json:"route"`
	Stops []string `json:"missing_stops"`
}

// Validate checks every stop name in the table against the names in stops
// and returns the routes with unmatched names, sorted by route name.
// An empty result means the table and the snapshot agree.
func (t *Table) Validate(stops []domain.Stop) []MissingStops {
	known := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		known[s.Name] = struct{}{}
	}

	var out []MissingStops
	for _, route := range t.Routes() {
		var missing []string
		for _, name := range t.routes[route] {
			if _, ok := known[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			out = append(out, MissingStops{Route: route, Stops: missing})
		}
	}
	return out
}

type snapshotStop struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ReadStopSnapshot loads a JSON array of {id, name, latitude, longitude}
// objects previously captured from a provider.
func ReadStopSnapshot(path string) ([]domain.Stop, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stop snapshot: read %q: %w", path, err)
	}

	var raw []snapshotStop
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("read stop snapshot: parse json: %w", err)
	}

	stops := make([]domain.Stop, 0, len(raw))
	for _, s := range raw {
		stops = append(stops, domain.Stop{
			ID:       s.ID,
			Name:     s.Name,
			Position: domain.Coordinates{Lat: s.Latitude, Lon: s.Longitude},
		})
	}
	return stops, nil
}

// WriteStopSnapshot stores stops in the format read by ReadStopSnapshot.
func WriteStopSnapshot(path string, stops []domain.Stop) error {
	raw := make([]snapshotStop, 0, len(stops))
	for _, s := range stops {
		raw = append(raw, snapshotStop{
			ID:        s.ID,
			Name:      s.Name,
			Latitude:  s.Position.Lat,
			Longitude: s.Position.Lon,
		})
	}

	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("write stop snapshot: encode: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write stop snapshot: write %q: %w", path, err)
	}
	return nil
}
