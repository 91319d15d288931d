package memory

import (
	"context"
	"io"

	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

type Seed = store.Seed

var _ store.Importer = (*GraphStorage)(nil)

// Import adds the seed's nodes, then its edges, so edge order does not
// matter. Nodes already present are replaced.
func (s *GraphStorage) Import(ctx context.Context, seed store.Seed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := seed.Validate(); err != nil {
		return err
	}
	for _, n := range seed.Nodes {
		s.AddEntity(n)
	}
	for _, e := range seed.Edges {
		if err := s.AddEdge(e.From, e.Type, e.To); err != nil {
			return err
		}
	}
	return nil
}

// Load builds a store from a seed.
func Load(seed store.Seed) (*GraphStorage, error) {
	s := New()
	if err := s.Import(context.Background(), seed); err != nil {
		return nil, err
	}
	return s, nil
}

// Decode reads a JSON seed from r.
func Decode(r io.Reader) (*GraphStorage, error) {
	seed, err := store.DecodeSeed(r)
	if err != nil {
		return nil, err
	}
	return Load(seed)
}

// LoadFile reads a JSON seed file.
func LoadFile(path string) (*GraphStorage, error) {
	seed, err := store.ReadSeedFile(path)
	if err != nil {
		return nil, err
	}
	return Load(seed)
}
