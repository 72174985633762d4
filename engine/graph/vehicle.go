package graph

import (
	"context"
	"fmt"
)

const (
	mergeMake = `MERGE (mk:Make {id: $id}) SET mk.name = $name`

	mergeModel = `MERGE (m:VehicleModel {id: $id}) SET m.name = $name, m.make_id = $makeID
	              WITH m
	              MATCH (mk:Make {id: $makeID})
	              MERGE (mk)-[:HAS_MODEL]->(m)`

	mergeModelYear = `MERGE (my:ModelYear {id: $id}) SET my.year = $year, my.make = $make, my.model = $model
	                  WITH my
	                  MATCH (m:VehicleModel {id: $modelID})
	                  MERGE (my)-[:OF_MODEL]->(m)`
)

// SaveYearModels writes one year's models for a make in a single
// transaction. Names equal to skip are not written.
func (g *GraphStore) SaveYearModels(ctx context.Context, year int, mk string, models []string, skip string) (int, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	mkID := makeID(mk)
	n, err := sess.ExecuteWrite(ctx, func(tx CypherRunner) (any, error) {
		if _, err := tx.Run(ctx, mergeMake, map[string]any{"id": mkID, "name": mk}); err != nil {
			return 0, err
		}
		written := 0
		for _, model := range models {
			if model == skip {
				continue
			}
			mID := modelID(mk, model)
			if _, err := tx.Run(ctx, mergeModel, map[string]any{"id": mID, "name": model, "makeID": mkID}); err != nil {
				return written, err
			}
			if _, err := tx.Run(ctx, mergeModelYear, map[string]any{
				"id": modelYearID(mk, model, year), "year": year, "make": mk, "model": model, "modelID": mID,
			}); err != nil {
				return written, err
			}
			written++
		}
		return written, nil
	})
	if err != nil {
		return 0, fmt.Errorf("save %d %s: %w", year, mk, err)
	}
	count, _ := n.(int)
	return count, nil
}

// ModelsFor returns the stored model names for a year and make, sorted.
func (g *GraphStore) ModelsFor(ctx context.Context, year int, mk string) ([]string, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (mk:Make {id: $makeID})-[:HAS_MODEL]->(m:VehicleModel)<-[:OF_MODEL]-(my:ModelYear {year: $year})
	           RETURN m.name AS name ORDER BY name`
	result, err := sess.Run(ctx, cypher, map[string]any{"makeID": makeID(mk), "year": year})
	if err != nil {
		return nil, err
	}
	var names []string
	for result.Next(ctx) {
		v, _ := result.Record().Get("name")
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return names, result.Err()
}
