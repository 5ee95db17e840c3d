// Package seeds ships the built-in activities available without a record store.
package seeds

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/noah-isme/ingenia-api/internal/models"
)

//go:embed data/*.json
var files embed.FS

// Prefix marks a seed reference such as "seed:act-bridge-v1".
const Prefix = "seed:"

// All returns every seed ordered by id.
func All() ([]models.Activity, error) {
	entries, err := files.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("read seeds: %w", err)
	}
	out := make([]models.Activity, 0, len(entries))
	for _, e := range entries {
		raw, err := files.ReadFile(path.Join("data", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", e.Name(), err)
		}
		var act models.Activity
		if err := json.Unmarshal(raw, &act); err != nil {
			return nil, fmt.Errorf("decode seed %s: %w", e.Name(), err)
		}
		out = append(out, act)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Find returns the seed with id, accepting an optional "seed:" prefix.
func Find(id string) (models.Activity, bool) {
	id = strings.TrimPrefix(id, Prefix)
	all, err := All()
	if err != nil {
		return models.Activity{}, false
	}
	for _, act := range all {
		if act.ID == id {
			return act, true
		}
	}
	return models.Activity{}, false
}
