// core/catalog_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/signalsfoundry/conjunction-screener/model"
)

// internal JSON shapes – kept unexported so we're free to evolve them.
type objectCatalogJSON struct {
	Objects []objectJSON `json:"objects"`
}

type objectJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"` // "SATELLITE" | "DEBRIS"; defaults to SATELLITE
	TLELine1 string `json:"tle_line1"`
	TLELine2 string `json:"tle_line2"`
}

// LoadObjectCatalog reads a JSON object catalog from r, validates each
// TLE, derives orbital elements, and returns the parsed objects.
//
// A malformed entry fails the whole load: the catalog is configuration,
// and a bad record there is a deployment error rather than the
// per-object runtime failures the pipeline isolates.
func LoadObjectCatalog(r io.Reader) ([]*model.ObjectDefinition, error) {
	var payload objectCatalogJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadObjectCatalog: decode failed: %w", err)
	}

	seen := make(map[string]bool, len(payload.Objects))
	objects := make([]*model.ObjectDefinition, 0, len(payload.Objects))
	for i, js := range payload.Objects {
		if js.ID == "" {
			return nil, fmt.Errorf("LoadObjectCatalog: object %d has empty id", i)
		}
		if seen[js.ID] {
			return nil, fmt.Errorf("LoadObjectCatalog: duplicate object id %q", js.ID)
		}
		seen[js.ID] = true

		elements, noradID, err := ParseTLE(js.TLELine1, js.TLELine2)
		if err != nil {
			return nil, fmt.Errorf("LoadObjectCatalog: object %q: %w", js.ID, err)
		}

		objType := model.ObjectSatellite
		if strings.EqualFold(js.Type, string(model.ObjectDebris)) {
			objType = model.ObjectDebris
		}

		objects = append(objects, &model.ObjectDefinition{
			ID:       js.ID,
			Name:     js.Name,
			Type:     objType,
			TLELine1: strings.TrimRight(js.TLELine1, "\r\n "),
			TLELine2: strings.TrimRight(js.TLELine2, "\r\n "),
			NoradID:  noradID,
			Elements: elements,
		})
	}
	return objects, nil
}
