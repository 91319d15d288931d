// Package neo4j serves the canon graph from Neo4j. Every canon node carries
// the Canon label; relationship types match the store edge constants.
package neo4j

import (
	"context"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
)

const unboundedDepth = 64

type GraphStorage struct {
	driver   neo4j.Driver
	database string
}

var (
	_ store.GraphStorage = (*GraphStorage)(nil)
	_ store.Importer     = (*GraphStorage)(nil)
)

type Params struct {
	URI      string
	User     string
	Password string
	Database string
}

// Connect opens a driver and verifies it can reach the server.
func Connect(ctx context.Context, p Params) (neo4j.Driver, error) {
	driver, err := neo4j.NewDriver(p.URI, neo4j.BasicAuth(p.User, p.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach neo4j at %s: %w", p.URI, err)
	}
	return driver, nil
}

// New wraps a driver. An empty database selects the server default.
func New(driver neo4j.Driver, database string) *GraphStorage {
	return &GraphStorage{driver: driver, database: database}
}

func (s *GraphStorage) session(ctx context.Context, mode neo4j.AccessMode) neo4j.Session {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// read runs query and decodes the node bound to n in every record.
func (s *GraphStorage) read(ctx context.Context, query string, params map[string]any) ([]common.Entity, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var entities []common.Entity
		for res.Next(ctx) {
			e, err := entityFromRecord(res.Record(), "n")
			if err != nil {
				return nil, err
			}
			entities = append(entities, e)
		}
		return entities, res.Err()
	})
	if err != nil {
		return nil, err
	}
	entities, _ := result.([]common.Entity)
	return entities, nil
}

func (s *GraphStorage) sorted(ctx context.Context, query string, params map[string]any) ([]common.Entity, error) {
	entities, err := s.read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to query canon graph: %w", err)
	}
	store.SortEntities(entities)
	return entities, nil
}

func (s *GraphStorage) GetEntity(ctx context.Context, id string) (common.Entity, error) {
	found, err := s.read(ctx, `MATCH (n:Canon {id: $id}) RETURN n`, map[string]any{"id": id})
	if err != nil {
		return common.Entity{}, fmt.Errorf("failed to get entity %s: %w", id, err)
	}
	if len(found) == 0 {
		return common.Entity{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return found[0], nil
}

func (s *GraphStorage) GetEntities(ctx context.Context, ids []string) ([]common.Entity, error) {
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return []common.Entity{}, nil
	}
	found, err := s.read(ctx, `UNWIND $ids AS id MATCH (n:Canon {id: id}) RETURN n`, map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("failed to get entities: %w", err)
	}
	return orderByIDs(found, ids), nil
}

// ContainmentPath takes the longest CONTAINS chain ending at id, which is
// the full path truncated to maxDepth ancestors since a node has a single
// container.
func (s *GraphStorage) ContainmentPath(ctx context.Context, id string, maxDepth int) ([]common.Entity, error) {
	if maxDepth <= 0 {
		maxDepth = unboundedDepth
	}
	query := fmt.Sprintf(`MATCH p = (:Canon)-[:CONTAINS*1..%d]->(:Canon {id: $id})
		RETURN nodes(p) AS path
		ORDER BY length(p) DESC
		LIMIT 1`, maxDepth)

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return []common.Entity(nil), res.Err()
		}
		raw, _ := res.Record().Get("path")
		return entitiesFromList(raw)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path of %s: %w", id, err)
	}
	path, _ := result.([]common.Entity)
	if len(path) <= 1 {
		return nil, nil
	}
	return path, nil
}

func (s *GraphStorage) Children(ctx context.Context, id string) ([]common.Entity, error) {
	return s.sorted(ctx, `MATCH (:Canon {id: $id})-[:CONTAINS]->(n:Canon) RETURN n`, map[string]any{"id": id})
}

func (s *GraphStorage) Parent(ctx context.Context, id string) (*common.Entity, error) {
	parents, err := s.sorted(ctx, `MATCH (n:Canon)-[:CONTAINS]->(:Canon {id: $id}) RETURN n LIMIT 1`, map[string]any{"id": id})
	if err != nil || len(parents) == 0 {
		return nil, err
	}
	return &parents[0], nil
}

func (s *GraphStorage) Siblings(ctx context.Context, id string) ([]common.Entity, error) {
	return s.sorted(ctx, `MATCH (p:Canon)-[:CONTAINS]->(:Canon {id: $id})
		MATCH (p)-[:CONTAINS]->(n:Canon)
		WHERE n.id <> $id
		RETURN n`, map[string]any{"id": id})
}

func (s *GraphStorage) TagsOf(ctx context.Context, id string) ([]common.Entity, error) {
	return s.sorted(ctx, `MATCH (:Canon {id: $id})-[:TAGGED]->(n:Canon) RETURN n`, map[string]any{"id": id})
}

func (s *GraphStorage) TaggedWith(ctx context.Context, tagID string, limit int) ([]common.Entity, error) {
	tagged, err := s.sorted(ctx, `MATCH (n:Canon)-[:TAGGED]->(:Canon {id: $id}) RETURN n`, map[string]any{"id": tagID})
	if err != nil {
		return nil, err
	}
	return store.Limit(tagged, limit), nil
}

func (s *GraphStorage) TagUsage(ctx context.Context, rootID string, limit int) ([]store.TagUsage, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (:Canon {id: $id})-[:CONTAINS*0..]->(d:Canon)-[:TAGGED]->(n:Canon)
			RETURN n, count(DISTINCT d) AS uses`, map[string]any{"id": rootID})
		if err != nil {
			return nil, err
		}
		var usage []store.TagUsage
		for res.Next(ctx) {
			record := res.Record()
			tag, err := entityFromRecord(record, "n")
			if err != nil {
				return nil, err
			}
			usage = append(usage, store.TagUsage{Tag: tag, Count: getIntFromRecord(record, "uses")})
		}
		return usage, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count tag usage under %s: %w", rootID, err)
	}
	usage, _ := result.([]store.TagUsage)
	store.SortTagUsage(usage)
	return store.Limit(usage, limit), nil
}

func (s *GraphStorage) EventParticipants(ctx context.Context, eventID string) ([]common.Entity, error) {
	return s.sorted(ctx, `MATCH (n:Canon)-[:PARTICIPATES_IN]->(:Canon {id: $id}) RETURN n`, map[string]any{"id": eventID})
}

func (s *GraphStorage) EventLocations(ctx context.Context, eventID string) ([]common.Entity, error) {
	return s.sorted(ctx, `MATCH (:Canon {id: $id})-[:OCCURS_AT]->(n:Canon) RETURN n`, map[string]any{"id": eventID})
}

func (s *GraphStorage) EventsInvolving(ctx context.Context, id string) ([]common.Entity, error) {
	return s.sorted(ctx, `MATCH (:Canon {id: $id})-[:PARTICIPATES_IN]->(n:Canon) RETURN n`, map[string]any{"id": id})
}

func (s *GraphStorage) ProductAttributes(ctx context.Context, productID string) ([]common.Entity, error) {
	return s.sorted(ctx, `MATCH (:Canon {id: $id})-[:HAS_ATTRIBUTE]->(n:Canon) RETURN n`, map[string]any{"id": productID})
}

func (s *GraphStorage) ProductMechanics(ctx context.Context, productID string) ([]common.Entity, error) {
	return s.sorted(ctx, `MATCH (:Canon {id: $id})-[:HAS_MECHANIC]->(n:Canon) RETURN n`, map[string]any{"id": productID})
}

func (s *GraphStorage) Adaptations(ctx context.Context, productID, entityID string) ([]common.Entity, error) {
	return s.sorted(ctx, `MATCH (n:Canon)-[:ADAPTS]->(:Canon {id: $entity})
		MATCH (n)-[:FOR_PRODUCT]->(:Canon {id: $product})
		RETURN DISTINCT n`, map[string]any{"entity": entityID, "product": productID})
}
