package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	pgxv5 "github.com/jackc/pgx/v5"
)

const nodeColumns = `n.id, n.name, n.description, n.type, n.node_type, n.properties, n.links`

const (
	getEntitySQL   = `SELECT ` + nodeColumns + ` FROM canon_nodes n WHERE n.id = $1`
	getEntitiesSQL = `SELECT ` + nodeColumns + ` FROM canon_nodes n WHERE n.id = ANY($1)`

	outgoingSQL = `SELECT ` + nodeColumns + `
		FROM canon_edges e JOIN canon_nodes n ON n.id = e.to_id
		WHERE e.from_id = $1 AND e.edge_type = $2`
	incomingSQL = `SELECT ` + nodeColumns + `
		FROM canon_edges e JOIN canon_nodes n ON n.id = e.from_id
		WHERE e.to_id = $1 AND e.edge_type = $2`

	containmentPathSQL = `WITH RECURSIVE chain(id, depth) AS (
			SELECT $1::text, 0
			UNION ALL
			SELECT e.from_id, c.depth + 1
			FROM canon_edges e JOIN chain c ON e.to_id = c.id
			WHERE e.edge_type = 'CONTAINS' AND c.depth < $2
		)
		SELECT ` + nodeColumns + `
		FROM chain JOIN canon_nodes n ON n.id = chain.id
		ORDER BY chain.depth DESC`

	siblingsSQL = `SELECT ` + nodeColumns + `
		FROM canon_edges p
		JOIN canon_edges s ON s.from_id = p.from_id AND s.edge_type = 'CONTAINS'
		JOIN canon_nodes n ON n.id = s.to_id
		WHERE p.to_id = $1 AND p.edge_type = 'CONTAINS' AND s.to_id <> $1`

	tagUsageSQL = `WITH RECURSIVE sub(id) AS (
			SELECT id FROM canon_nodes WHERE id = $1
			UNION
			SELECT e.to_id FROM canon_edges e JOIN sub ON e.from_id = sub.id
			WHERE e.edge_type = 'CONTAINS'
		)
		SELECT ` + nodeColumns + `, COUNT(DISTINCT t.from_id)
		FROM canon_edges t
		JOIN sub ON t.from_id = sub.id
		JOIN canon_nodes n ON n.id = t.to_id
		WHERE t.edge_type = 'TAGGED'
		GROUP BY n.id`

	adaptationsSQL = `SELECT ` + nodeColumns + `
		FROM canon_edges a
		JOIN canon_edges f ON f.from_id = a.from_id AND f.edge_type = 'FOR_PRODUCT' AND f.to_id = $2
		JOIN canon_nodes n ON n.id = a.from_id
		WHERE a.edge_type = 'ADAPTS' AND a.to_id = $1`
)

func (s *GraphDBStorage) GetEntity(ctx context.Context, id string) (common.Entity, error) {
	e, err := scanEntity(s.conn.QueryRow(ctx, getEntitySQL, id))
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.Entity{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return common.Entity{}, fmt.Errorf("failed to get entity %s: %w", id, err)
	}
	return e, nil
}

func (s *GraphDBStorage) GetEntities(ctx context.Context, ids []string) ([]common.Entity, error) {
	ids = store.DedupeStrings(ids)
	found := make([]common.Entity, 0, len(ids))
	err := store.ChunkRange(len(ids), s.batchSize, func(start, end int) error {
		batch, err := s.list(ctx, getEntitiesSQL, ids[start:end])
		if err != nil {
			return err
		}
		found = append(found, batch...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entities: %w", err)
	}
	return orderByIDs(found, ids), nil
}

func (s *GraphDBStorage) ContainmentPath(ctx context.Context, id string, maxDepth int) ([]common.Entity, error) {
	if maxDepth <= 0 {
		maxDepth = unboundedDepth
	}
	chain, err := s.list(ctx, containmentPathSQL, id, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path of %s: %w", id, err)
	}
	return trimPath(chain), nil
}

func (s *GraphDBStorage) Children(ctx context.Context, id string) ([]common.Entity, error) {
	return s.sorted(ctx, outgoingSQL, id, store.EdgeContains)
}

func (s *GraphDBStorage) Parent(ctx context.Context, id string) (*common.Entity, error) {
	parents, err := s.sorted(ctx, incomingSQL, id, store.EdgeContains)
	if err != nil || len(parents) == 0 {
		return nil, err
	}
	return &parents[0], nil
}

func (s *GraphDBStorage) Siblings(ctx context.Context, id string) ([]common.Entity, error) {
	return s.sorted(ctx, siblingsSQL, id)
}

func (s *GraphDBStorage) TagsOf(ctx context.Context, id string) ([]common.Entity, error) {
	return s.sorted(ctx, outgoingSQL, id, store.EdgeTagged)
}

func (s *GraphDBStorage) TaggedWith(ctx context.Context, tagID string, limit int) ([]common.Entity, error) {
	tagged, err := s.sorted(ctx, incomingSQL, tagID, store.EdgeTagged)
	if err != nil {
		return nil, err
	}
	return store.Limit(tagged, limit), nil
}

func (s *GraphDBStorage) TagUsage(ctx context.Context, rootID string, limit int) ([]store.TagUsage, error) {
	rows, err := s.conn.Query(ctx, tagUsageSQL, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tag usage under %s: %w", rootID, err)
	}
	usage, err := pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (store.TagUsage, error) {
		var (
			r     store.Row
			count int64
		)
		if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Type, &r.NodeType, &r.Properties, &r.Links, &count); err != nil {
			return store.TagUsage{}, err
		}
		tag, err := r.Entity()
		if err != nil {
			return store.TagUsage{}, err
		}
		return store.TagUsage{Tag: tag, Count: int(count)}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan tag usage: %w", err)
	}
	store.SortTagUsage(usage)
	return store.Limit(usage, limit), nil
}

func (s *GraphDBStorage) EventParticipants(ctx context.Context, eventID string) ([]common.Entity, error) {
	return s.sorted(ctx, incomingSQL, eventID, store.EdgeParticipatesIn)
}

func (s *GraphDBStorage) EventLocations(ctx context.Context, eventID string) ([]common.Entity, error) {
	return s.sorted(ctx, outgoingSQL, eventID, store.EdgeOccursAt)
}

func (s *GraphDBStorage) EventsInvolving(ctx context.Context, id string) ([]common.Entity, error) {
	return s.sorted(ctx, outgoingSQL, id, store.EdgeParticipatesIn)
}

func (s *GraphDBStorage) ProductAttributes(ctx context.Context, productID string) ([]common.Entity, error) {
	return s.sorted(ctx, outgoingSQL, productID, store.EdgeHasAttribute)
}

func (s *GraphDBStorage) ProductMechanics(ctx context.Context, productID string) ([]common.Entity, error) {
	return s.sorted(ctx, outgoingSQL, productID, store.EdgeHasMechanic)
}

func (s *GraphDBStorage) Adaptations(ctx context.Context, productID, entityID string) ([]common.Entity, error) {
	return s.sorted(ctx, adaptationsSQL, entityID, productID)
}

func (s *GraphDBStorage) list(ctx context.Context, sql string, args ...any) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.Entity, error) {
		return scanEntity(row)
	})
}

func (s *GraphDBStorage) sorted(ctx context.Context, sql string, args ...any) ([]common.Entity, error) {
	entities, err := s.list(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query canon graph: %w", err)
	}
	store.SortEntities(entities)
	return entities, nil
}

func scanEntity(row pgxv5.Row) (common.Entity, error) {
	var r store.Row
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Type, &r.NodeType, &r.Properties, &r.Links); err != nil {
		return common.Entity{}, err
	}
	return r.Entity()
}

// orderByIDs returns the entities in the order of ids, dropping ids that were
// not found.
func orderByIDs(found []common.Entity, ids []string) []common.Entity {
	byID := make(map[string]common.Entity, len(found))
	for _, e := range found {
		byID[e.ID] = e
	}
	out := make([]common.Entity, 0, len(found))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// trimPath drops the repeated tail a containment cycle produces and returns
// nil for a node without a container.
func trimPath(chain []common.Entity) []common.Entity {
	if len(chain) <= 1 {
		return nil
	}
	// chain runs outermost first; walk from the entity outwards.
	seen := make(map[string]struct{}, len(chain))
	start := len(chain)
	for i := len(chain) - 1; i >= 0; i-- {
		if _, dup := seen[chain[i].ID]; dup {
			break
		}
		seen[chain[i].ID] = struct{}{}
		start = i
	}
	path := chain[start:]
	if len(path) <= 1 {
		return nil
	}
	return path
}
