package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"lineage-verifier/backend/internal/lineage"
	apperrors "lineage-verifier/backend/pkg/errors"
	"lineage-verifier/backend/pkg/logger"
)

// Charts live in Neo4j as
//
//	(:Person {id, name, chart, seq, description, ...})-[:HAS_PARENT {seq}]->(:Person)
//	(:Person)-[:CONTAINS]->(:Element {name})
//
// CONTAINS only exists in malformed charts; the verifier rejects it.

// Repository reads and seeds lineage charts in Neo4j
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

const personsQuery = `
	MATCH (p:Person)
	WHERE $chart = '' OR p.chart = $chart
	RETURN
		coalesce(p.id, elementId(p)) AS key,
		coalesce(p.name, '') AS name,
		properties(p) AS props,
		[(p)-[:CONTAINS]->(n) | coalesce(n.name, '')] AS nested
	ORDER BY p.seq, key
`

const parentsQuery = `
	MATCH (c:Person)-[rel:HAS_PARENT]->(p:Person)
	WHERE $chart = '' OR (c.chart = $chart AND p.chart = $chart)
	RETURN
		coalesce(c.id, elementId(c)) AS child,
		coalesce(p.id, elementId(p)) AS parent
	ORDER BY c.seq, child, rel.seq
`

// LoadLineage reads one chart, or every Person when chart is empty, into a
// lineage graph. It is read-only.
func (r *Repository) LoadLineage(ctx context.Context, chart string) (*lineage.Graph, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	params := map[string]interface{}{"chart": chart}

	result, err := session.Run(ctx, personsQuery, params)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("load persons", err)
	}
	var persons []*lineage.Person
	for result.Next(ctx) {
		record := result.Record()
		persons = append(persons, &lineage.Person{
			Key:    getStringFromRecord(record, "key"),
			Name:   getStringFromRecord(record, "name"),
			Attrs:  propsToAttrs(getMapFromRecord(record, "props")),
			Nested: getStringSliceFromRecord(record, "nested"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("load persons", err)
	}
	if chart != "" && len(persons) == 0 {
		return nil, ErrChartNotFound{Chart: chart}
	}

	result, err = session.Run(ctx, parentsQuery, params)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed("load parents", err)
	}
	var edges []lineage.Edge
	for result.Next(ctx) {
		record := result.Record()
		edges = append(edges, lineage.Edge{
			Child:  getStringFromRecord(record, "child"),
			Parent: getStringFromRecord(record, "parent"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperrors.NewGraphQueryFailed("load parents", err)
	}

	g, err := lineage.Build(persons, edges)
	if err != nil {
		return nil, fmt.Errorf("failed to build chart %q: %w", chart, err)
	}

	r.logger.Info("Chart loaded",
		zap.String("chart", chart),
		zap.Int("persons", len(persons)),
		zap.Int("edges", len(edges)),
	)
	return g, nil
}

// ReplaceChart deletes a chart and writes g in its place. Used by the seed
// script to prepare a database from a native chart file.
func (r *Repository) ReplaceChart(ctx context.Context, chart string, g *lineage.Graph) error {
	if chart == "" {
		return apperrors.NewConfigValidationFailed("chart", "a chart name is required for seeding")
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	persons := make([]map[string]interface{}, 0, g.Len())
	for _, id := range g.IDs() {
		p := g.Person(id)
		persons = append(persons, map[string]interface{}{
			"id":     p.Key,
			"name":   p.Name,
			"seq":    int64(id),
			"props":  attrsToProps(p.Attrs),
			"nested": p.Nested,
		})
	}
	edges := make([]map[string]interface{}, 0)
	for i, e := range g.Edges() {
		edges = append(edges, map[string]interface{}{
			"child":  e.Child,
			"parent": e.Parent,
			"seq":    int64(i),
		})
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
			MATCH (p:Person {chart: $chart})
			OPTIONAL MATCH (p)-[:CONTAINS]->(n:Element)
			DETACH DELETE p, n
		`, map[string]interface{}{"chart": chart}); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx, `
			UNWIND $persons AS row
			CREATE (p:Person {id: row.id, name: row.name, chart: $chart, seq: row.seq})
			SET p += row.props
			FOREACH (n IN row.nested | CREATE (p)-[:CONTAINS]->(:Element {name: n}))
		`, map[string]interface{}{"chart": chart, "persons": persons}); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx, `
			UNWIND $edges AS row
			MATCH (c:Person {chart: $chart, id: row.child})
			MATCH (p:Person {chart: $chart, id: row.parent})
			CREATE (c)-[:HAS_PARENT {seq: row.seq}]->(p)
		`, map[string]interface{}{"chart": chart, "edges": edges})
		return nil, err
	})
	if err != nil {
		return apperrors.NewGraphQueryFailed("replace chart", err)
	}

	r.logger.Info("Chart seeded",
		zap.String("chart", chart),
		zap.Int("persons", len(persons)),
		zap.Int("edges", len(edges)),
	)
	return nil
}

// EnsureSchema creates the indexes LoadLineage relies on. Failures are
// logged and skipped since most mean the index already exists.
func (r *Repository) EnsureSchema(ctx context.Context) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	indexes := []string{
		"CREATE INDEX person_chart IF NOT EXISTS FOR (p:Person) ON (p.chart)",
		"CREATE INDEX person_chart_id IF NOT EXISTS FOR (p:Person) ON (p.chart, p.id)",
		"CREATE INDEX person_name IF NOT EXISTS FOR (p:Person) ON (p.name)",
	}
	for _, index := range indexes {
		if _, err := session.Run(ctx, index, nil); err != nil {
			r.logger.Warn("Failed to create index", zap.String("query", index), zap.Error(err))
		}
	}
}

// ErrChartNotFound is returned when no Person carries the requested chart
type ErrChartNotFound struct {
	Chart string
}

func (e ErrChartNotFound) Error() string {
	return fmt.Sprintf("chart not found: %s", e.Chart)
}
