package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

// EdgeTypes lists every relationship type a seed may carry.
var EdgeTypes = []string{
	EdgeContains, EdgeTagged, EdgeParticipatesIn, EdgeOccursAt,
	EdgeHasAttribute, EdgeHasMechanic, EdgeAdapts, EdgeForProduct,
}

func ValidEdgeType(t string) bool {
	for _, known := range EdgeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Edge is a directed, typed relationship between two node ids.
type Edge struct {
	From string `json:"from"`
	Type string `json:"type"`
	To   string `json:"to"`
}

// Seed is the portable shape of a canon graph snapshot. Every backend can
// be loaded from one.
type Seed struct {
	Nodes []common.Entity `json:"nodes"`
	Edges []Edge          `json:"edges"`
}

// Importer loads a seed into a backend. Importing the same seed twice
// leaves the backend unchanged.
type Importer interface {
	Import(ctx context.Context, seed Seed) error
}

// Validate checks node ids and types and that every edge joins known nodes.
func (s Seed) Validate() error {
	known := make(map[string]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("seed node %q has no id", n.Name)
		}
		if !n.NodeType.Valid() {
			return fmt.Errorf("seed node %s: unknown node type %q", n.ID, n.NodeType)
		}
		known[n.ID] = struct{}{}
	}
	for _, e := range s.Edges {
		if !ValidEdgeType(e.Type) {
			return fmt.Errorf("edge %s -> %s: unknown type %q", e.From, e.To, e.Type)
		}
		for _, end := range []string{e.From, e.To} {
			if _, ok := known[end]; !ok {
				return fmt.Errorf("edge %s -[%s]-> %s: unknown node %q", e.From, e.Type, e.To, end)
			}
		}
	}
	return nil
}

// DecodeSeed reads a JSON seed from r.
func DecodeSeed(r io.Reader) (Seed, error) {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("failed to decode seed: %w", err)
	}
	return seed, nil
}

// ReadSeedFile reads a JSON seed file.
func ReadSeedFile(path string) (Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return DecodeSeed(f)
}
