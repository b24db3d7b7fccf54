package search

import (
	"errors"
	"sort"

	"propertypilot_backend/internal/catalog"
	"propertypilot_backend/internal/geo"
)

// ErrNoAnchor is returned when the anchor location cannot be resolved via the
// gazetteer. The caller must report it, never fall back to all candidates.
var ErrNoAnchor = errors.New("anchor location could not be resolved")

// DefaultRadiusKM is the radius used when none is configured.
const DefaultRadiusKM = 10.0

// StageRadiusPivot marks matches produced by a distance-ranked pivot around
// an anchor location rather than the budget ladder.
const StageRadiusPivot Stage = "radius_pivot"

// ToMatches converts distance-ranked candidates into the common match shape.
// Score decays with distance so nearer candidates rank higher, and a
// candidate at the anchor itself scores 1.
func ToMatches(located []Located) []Match {
	matches := make([]Match, 0, len(located))
	for _, l := range located {
		matches = append(matches, Match{
			Project: l.Project,
			Score:   1 / (1 + l.DistanceKM),
			Stage:   StageRadiusPivot,
		})
	}
	return matches
}

// Located is a candidate annotated with its distance from the anchor.
type Located struct {
	Project    catalog.Project `json:"project"`
	DistanceKM float64         `json:"distanceKm"`
}

// WithinRadius resolves the anchor through the gazetteer, keeps candidates
// within radiusKM, and sorts them by ascending distance. Candidates lacking
// coordinates are excluded, not defaulted to zero distance.
func WithinRadius(anchor string, candidates []catalog.Project, radiusKM float64) ([]Located, error) {
	anchorPoint, ok := geo.Resolve(anchor)
	if !ok {
		return nil, ErrNoAnchor
	}
	if radiusKM <= 0 {
		radiusKM = DefaultRadiusKM
	}

	var located []Located
	for _, p := range candidates {
		if !p.HasCoordinates() {
			continue
		}
		distance := geo.Distance(anchorPoint, geo.Point{Lat: *p.Lat, Lon: *p.Lon})
		if distance > radiusKM {
			continue
		}
		located = append(located, Located{Project: p, DistanceKM: distance})
	}

	sort.Slice(located, func(i, j int) bool {
		if located[i].DistanceKM != located[j].DistanceKM {
			return located[i].DistanceKM < located[j].DistanceKM
		}
		return located[i].Project.Name < located[j].Project.Name
	})

	return located, nil
}
