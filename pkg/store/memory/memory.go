package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
)

type Edge = store.Edge

// GraphStorage is an in-process canon graph. It backs tests, local
// development and the JSON seed file mode of the server.
type GraphStorage struct {
	mu    sync.RWMutex
	nodes map[string]common.Entity
	out   map[string]map[string][]string // type -> from -> []to
	in    map[string]map[string][]string // type -> to -> []from
}

var _ store.GraphStorage = (*GraphStorage)(nil)

func New() *GraphStorage {
	return &GraphStorage{
		nodes: make(map[string]common.Entity),
		out:   make(map[string]map[string][]string),
		in:    make(map[string]map[string][]string),
	}
}

// AddEntity inserts or replaces a node.
func (s *GraphStorage) AddEntity(e common.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[e.ID] = e
}

// AddEdge links from -> to. Both ends must already exist.
func (s *GraphStorage) AddEdge(from, edgeType, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[from]; !ok {
		return fmt.Errorf("edge %s -[%s]-> %s: unknown node %q", from, edgeType, to, from)
	}
	if _, ok := s.nodes[to]; !ok {
		return fmt.Errorf("edge %s -[%s]-> %s: unknown node %q", from, edgeType, to, to)
	}
	if edgeType == store.EdgeContains {
		if parents := s.in[store.EdgeContains][to]; len(parents) > 0 && parents[0] != from {
			return fmt.Errorf("node %q already contained by %q", to, parents[0])
		}
	}
	for _, existing := range s.out[edgeType][from] {
		if existing == to {
			return nil
		}
	}
	if s.out[edgeType] == nil {
		s.out[edgeType] = make(map[string][]string)
		s.in[edgeType] = make(map[string][]string)
	}
	s.out[edgeType][from] = append(s.out[edgeType][from], to)
	s.in[edgeType][to] = append(s.in[edgeType][to], from)
	return nil
}

// Len returns the number of nodes.
func (s *GraphStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

func (s *GraphStorage) GetEntity(ctx context.Context, id string) (common.Entity, error) {
	if err := ctx.Err(); err != nil {
		return common.Entity{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.nodes[id]
	if !ok {
		return common.Entity{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return e, nil
}

func (s *GraphStorage) GetEntities(ctx context.Context, ids []string) ([]common.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Entity, 0, len(ids))
	for _, id := range store.DedupeStrings(ids) {
		if e, ok := s.nodes[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *GraphStorage) ContainmentPath(ctx context.Context, id string, maxDepth int) ([]common.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	self, ok := s.nodes[id]
	if !ok {
		return nil, nil
	}
	path := []common.Entity{self}
	visited := map[string]struct{}{id: {}}
	cur := id
	for depth := 0; maxDepth <= 0 || depth < maxDepth; depth++ {
		parents := s.in[store.EdgeContains][cur]
		if len(parents) == 0 {
			break
		}
		parent := parents[0]
		if _, seen := visited[parent]; seen {
			break
		}
		visited[parent] = struct{}{}
		path = append(path, s.nodes[parent])
		cur = parent
	}
	if len(path) == 1 {
		return nil, nil
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

func (s *GraphStorage) Children(ctx context.Context, id string) ([]common.Entity, error) {
	return s.neighbors(ctx, s.out, store.EdgeContains, id, 0)
}

func (s *GraphStorage) Parent(ctx context.Context, id string) (*common.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	parents := s.in[store.EdgeContains][id]
	if len(parents) == 0 {
		return nil, nil
	}
	p := s.nodes[parents[0]]
	return &p, nil
}

func (s *GraphStorage) Siblings(ctx context.Context, id string) ([]common.Entity, error) {
	parent, err := s.Parent(ctx, id)
	if err != nil || parent == nil {
		return nil, err
	}
	children, err := s.Children(ctx, parent.ID)
	if err != nil {
		return nil, err
	}
	out := children[:0]
	for _, c := range children {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *GraphStorage) TagsOf(ctx context.Context, id string) ([]common.Entity, error) {
	return s.neighbors(ctx, s.out, store.EdgeTagged, id, 0)
}

func (s *GraphStorage) TaggedWith(ctx context.Context, tagID string, limit int) ([]common.Entity, error) {
	return s.neighbors(ctx, s.in, store.EdgeTagged, tagID, limit)
}

func (s *GraphStorage) TagUsage(ctx context.Context, rootID string, limit int) ([]store.TagUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.nodes[rootID]; !ok {
		return nil, nil
	}

	counts := make(map[string]int)
	visited := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, tagID := range s.out[store.EdgeTagged][cur] {
			counts[tagID]++
		}
		for _, child := range s.out[store.EdgeContains][cur] {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			queue = append(queue, child)
		}
	}

	usage := make([]store.TagUsage, 0, len(counts))
	for tagID, n := range counts {
		usage = append(usage, store.TagUsage{Tag: s.nodes[tagID], Count: n})
	}
	store.SortTagUsage(usage)
	return store.Limit(usage, limit), nil
}

func (s *GraphStorage) EventParticipants(ctx context.Context, eventID string) ([]common.Entity, error) {
	return s.neighbors(ctx, s.in, store.EdgeParticipatesIn, eventID, 0)
}

func (s *GraphStorage) EventLocations(ctx context.Context, eventID string) ([]common.Entity, error) {
	return s.neighbors(ctx, s.out, store.EdgeOccursAt, eventID, 0)
}

func (s *GraphStorage) EventsInvolving(ctx context.Context, id string) ([]common.Entity, error) {
	return s.neighbors(ctx, s.out, store.EdgeParticipatesIn, id, 0)
}

func (s *GraphStorage) ProductAttributes(ctx context.Context, productID string) ([]common.Entity, error) {
	return s.neighbors(ctx, s.out, store.EdgeHasAttribute, productID, 0)
}

func (s *GraphStorage) ProductMechanics(ctx context.Context, productID string) ([]common.Entity, error) {
	return s.neighbors(ctx, s.out, store.EdgeHasMechanic, productID, 0)
}

func (s *GraphStorage) Adaptations(ctx context.Context, productID, entityID string) ([]common.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []common.Entity
	for _, adaptationID := range s.in[store.EdgeAdapts][entityID] {
		for _, p := range s.out[store.EdgeForProduct][adaptationID] {
			if p == productID {
				out = append(out, s.nodes[adaptationID])
				break
			}
		}
	}
	store.SortEntities(out)
	return out, nil
}

func (s *GraphStorage) neighbors(
	ctx context.Context,
	index map[string]map[string][]string,
	edgeType, id string,
	limit int,
) ([]common.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := index[edgeType][id]
	out := make([]common.Entity, 0, len(ids))
	for _, nid := range ids {
		out = append(out, s.nodes[nid])
	}
	store.SortEntities(out)
	return store.Limit(out, limit), nil
}
