package pgx

import (
	"context"
	"fmt"
	"strings"

	"github.com/alchemy-game-studios/game-planner/pkg/logger"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	pgxv5 "github.com/jackc/pgx/v5"
)

const (
	upsertNodeSQL = `INSERT INTO canon_nodes (id, name, description, type, node_type, properties, links)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			type = EXCLUDED.type,
			node_type = EXCLUDED.node_type,
			properties = EXCLUDED.properties,
			links = EXCLUDED.links`
	insertEdgeSQL = `INSERT INTO canon_edges (from_id, edge_type, to_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`
)

// Import upserts the seed inside one transaction. Nodes are written before
// edges so the foreign keys hold.
func (s *GraphDBStorage) Import(ctx context.Context, seed store.Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = store.ChunkRange(len(seed.Nodes), s.batchSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, n := range seed.Nodes[start:end] {
			r, err := store.EncodeRow(n)
			if err != nil {
				return err
			}
			batch.Queue(upsertNodeSQL, r.ID, sanitizeText(r.Name), sanitizeText(r.Description), r.Type, r.NodeType, r.Properties, r.Links)
		}
		logger.Debug("[Graph][Import] Writing node chunk", "nodes", end-start)
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to import nodes: %w", err)
	}

	err = store.ChunkRange(len(seed.Edges), s.batchSize, func(start, end int) error {
		batch := &pgxv5.Batch{}
		for _, e := range seed.Edges[start:end] {
			batch.Queue(insertEdgeSQL, e.From, e.Type, e.To)
		}
		logger.Debug("[Graph][Import] Writing edge chunk", "edges", end-start)
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to import edges: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Info("[Graph][Import] Seed imported", "nodes", len(seed.Nodes), "edges", len(seed.Edges))
	return nil
}

// sanitizeText strips what Postgres TEXT refuses: NUL bytes and invalid UTF-8.
func sanitizeText(value string) string {
	if value == "" {
		return value
	}
	return strings.ReplaceAll(strings.ToValidUTF8(value, ""), "\x00", "")
}
