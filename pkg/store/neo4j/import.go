package neo4j

import (
	"context"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/logger"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
)

const importChunk = 500

// Import merges the seed in one write transaction. Relationship types cannot
// be parameters in Cypher, so edges are written one statement per type.
func (s *GraphStorage) Import(ctx context.Context, seed store.Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}

	nodes := make([]map[string]any, 0, len(seed.Nodes))
	for _, n := range seed.Nodes {
		props, err := propsFromEntity(n)
		if err != nil {
			return err
		}
		nodes = append(nodes, props)
	}
	edges := groupEdges(seed.Edges)

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		err := store.ChunkRange(len(nodes), importChunk, func(start, end int) error {
			_, err := tx.Run(ctx, `UNWIND $nodes AS props
				MERGE (n:Canon {id: props.id})
				SET n += props`, map[string]any{"nodes": nodes[start:end]})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to merge nodes: %w", err)
		}

		for _, edgeType := range store.EdgeTypes {
			pairs := edges[edgeType]
			query := fmt.Sprintf(`UNWIND $pairs AS pair
				MATCH (a:Canon {id: pair.from}), (b:Canon {id: pair.to})
				MERGE (a)-[:%s]->(b)`, edgeType)
			err := store.ChunkRange(len(pairs), importChunk, func(start, end int) error {
				_, err := tx.Run(ctx, query, map[string]any{"pairs": pairs[start:end]})
				return err
			})
			if err != nil {
				return nil, fmt.Errorf("failed to merge %s edges: %w", edgeType, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("[Graph][Import] Failed to import seed", "err", err)
		return err
	}
	logger.Info("[Graph][Import] Seed imported", "nodes", len(seed.Nodes), "edges", len(seed.Edges))
	return nil
}

// groupEdges buckets edges by relationship type as UNWIND parameters.
func groupEdges(edges []store.Edge) map[string][]map[string]any {
	out := make(map[string][]map[string]any)
	for _, e := range edges {
		out[e.Type] = append(out[e.Type], map[string]any{"from": e.From, "to": e.To})
	}
	return out
}

// EnsureConstraints creates the uniqueness constraint on Canon ids.
func EnsureConstraints(ctx context.Context, driver neo4j.Driver, database string) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `CREATE CONSTRAINT canon_id IF NOT EXISTS FOR (n:Canon) REQUIRE n.id IS UNIQUE`, nil)
		return nil, err
	})
	return err
}
