// Package graph stores the resolved vehicle catalog in Neo4j as
// Make -[:HAS_MODEL]-> VehicleModel <-[:OF_MODEL]- ModelYear.
//
// Node ids are derived from names: "toyota", "toyota-land-cruiser",
// "toyota-land-cruiser-2020". Re-exporting a catalog merges onto the same nodes.
package graph

import (
	"fmt"
	"strings"
)

// MakeStats holds per-make counts.
type MakeStats struct {
	Name   string `json:"name"`
	Models int64  `json:"models"`
	Years  int64  `json:"years"`
}

func makeID(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func modelID(mk, model string) string {
	return fmt.Sprintf("%s-%s", makeID(mk), strings.ToLower(strings.ReplaceAll(strings.TrimSpace(model), " ", "-")))
}

func modelYearID(mk, model string, year int) string {
	return fmt.Sprintf("%s-%d", modelID(mk, model), year)
}
