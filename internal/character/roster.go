// Roster loading: characters are defined in a YAML file and consumed
// read-only by the simulation.
package character

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rosterFile struct {
	Characters []Profile `yaml:"characters"`
}

// LoadRoster reads character profiles from a YAML file. Profiles without an
// id or name are rejected; everything else is tolerated (missing traits
// resolve to NeutralTrait at lookup time).
func LoadRoster(path string) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var f rosterFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}

	seen := make(map[string]bool, len(f.Characters))
	for i, p := range f.Characters {
		if p.ID == "" {
			return nil, fmt.Errorf("roster %s: character %d has no id", path, i)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("roster %s: character %q has no name", path, p.ID)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("roster %s: duplicate character id %q", path, p.ID)
		}
		seen[p.ID] = true
	}

	return f.Characters, nil
}
