package graph

import "context"

// NodeCounts returns node counts grouped by label.
func (g *GraphStore) NodeCounts(ctx context.Context) (map[string]int64, error) {
	return g.countBy(ctx, `MATCH (n) RETURN labels(n)[0] AS type, count(*) AS count`)
}

// RelationshipCounts returns relationship counts grouped by type.
func (g *GraphStore) RelationshipCounts(ctx context.Context) (map[string]int64, error) {
	return g.countBy(ctx, `MATCH ()-[r]->() RETURN type(r) AS type, count(*) AS count`)
}

func (g *GraphStore) countBy(ctx context.Context, cypher string) (map[string]int64, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for result.Next(ctx) {
		rec := result.Record()
		typ, _ := rec.Get("type")
		cnt, _ := rec.Get("count")
		if t, ok := typ.(string); ok {
			if c, ok := cnt.(int64); ok {
				counts[t] = c
			}
		}
	}
	return counts, result.Err()
}

// TopMakes returns makes ordered by how many models they have.
func (g *GraphStore) TopMakes(ctx context.Context, limit int) ([]MakeStats, error) {
	sess := g.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (mk:Make)
		OPTIONAL MATCH (mk)-[:HAS_MODEL]->(m:VehicleModel)
		OPTIONAL MATCH (my:ModelYear)-[:OF_MODEL]->(m)
		RETURN mk.name AS name, count(DISTINCT m) AS models, count(DISTINCT my.year) AS years
		ORDER BY models DESC, name LIMIT $limit`
	result, err := sess.Run(ctx, cypher, map[string]any{"limit": int64(limit)})
	if err != nil {
		return nil, err
	}
	var stats []MakeStats
	for result.Next(ctx) {
		rec := result.Record()
		name, _ := rec.Get("name")
		models, _ := rec.Get("models")
		years, _ := rec.Get("years")
		s := MakeStats{}
		if n, ok := name.(string); ok {
			s.Name = n
		}
		if m, ok := models.(int64); ok {
			s.Models = m
		}
		if y, ok := years.(int64); ok {
			s.Years = y
		}
		stats = append(stats, s)
	}
	return stats, result.Err()
}
