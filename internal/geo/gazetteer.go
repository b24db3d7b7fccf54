package geo

import (
	_ "embed"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed localities.yaml
var localitiesYAML []byte

type gazetteerFile struct {
	Localities map[string]Point `yaml:"localities"`
}

var (
	loadOnce   sync.Once
	localities map[string]Point
)

func load() {
	var file gazetteerFile
	if err := yaml.Unmarshal(localitiesYAML, &file); err != nil {
		// The gazetteer is embedded at build time; a parse failure is a
		// packaging bug, not a runtime condition.
		panic("geo: invalid embedded gazetteer: " + err.Error())
	}

	localities = make(map[string]Point, len(file.Localities))
	for name, point := range file.Localities {
		localities[strings.ToLower(strings.TrimSpace(name))] = point
	}
}

// Resolve maps a free-text locality name to coordinates. Matching is
// case-insensitive: an exact name match wins, otherwise substring containment
// in either direction ("near whitefield" resolves to "whitefield").
func Resolve(name string) (Point, bool) {
	loadOnce.Do(load)

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Point{}, false
	}

	if point, ok := localities[needle]; ok {
		return point, true
	}

	// Prefer the longest containment match (then lexicographic) so short
	// fragments like "road" resolve deterministically.
	var bestName string
	var bestPoint Point
	for candidate, point := range localities {
		if !strings.Contains(needle, candidate) && !strings.Contains(candidate, needle) {
			continue
		}
		if len(candidate) > len(bestName) || (len(candidate) == len(bestName) && candidate < bestName) {
			bestName = candidate
			bestPoint = point
		}
	}
	if bestName != "" {
		return bestPoint, true
	}

	return Point{}, false
}

// KnownLocalities returns the gazetteer names so callers can steer free-text
// locality spellings toward resolvable ones.
func KnownLocalities() []string {
	loadOnce.Do(load)

	names := make([]string, 0, len(localities))
	for name := range localities {
		names = append(names, name)
	}
	return names
}
