// Package resolver wraps graph traversals, one resolver per relationship
// family. Every read goes through a TTL cache keyed by the resolver, the
// method, the entity id and the query options.
package resolver

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/cache"
	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/store"
	"golang.org/x/sync/errgroup"
)

// maxParallelQueries bounds concurrent graph reads issued by one resolver call.
const maxParallelQueries = 8

// Resolver is the surface shared by every resolver.
type Resolver interface {
	Name() string
	// Relevance is a static hint of how useful this relationship family is
	// when generating generationTarget from a sourceType focal entity.
	Relevance(sourceType, targetType, generationTarget common.NodeType) float64
	ClearCache(ctx context.Context) error
}

// Options configure every resolver in a Set.
type Options struct {
	CacheTTL time.Duration
	MaxDepth int
	Matrix   RelevanceMatrix
}

// DefaultOptions mirrors the assembler defaults.
func DefaultOptions() Options {
	return Options{
		CacheTTL: 60 * time.Second,
		MaxDepth: 10,
		Matrix:   DefaultRelevanceMatrix(),
	}
}

type base struct {
	name  string
	graph store.GraphStorage
	cache cache.Store
	ttl   time.Duration
}

func newBase(name string, graph store.GraphStorage, c cache.Store, ttl time.Duration) base {
	if c == nil {
		c = cache.NewMemoryStore()
	}
	return base{name: name, graph: graph, cache: c, ttl: ttl}
}

func (b *base) Name() string {
	return b.name
}

func (b *base) ClearCache(ctx context.Context) error {
	return cache.New[struct{}](b.cache, b.name, b.ttl).Clear(ctx)
}

// cached runs load through the resolver's cache.
func cached[V any](
	ctx context.Context,
	b *base,
	method, id string,
	options any,
	load func(context.Context) (V, error),
) (V, error) {
	c := cache.New[V](b.cache, b.name, b.ttl)
	return c.GetOrLoad(ctx, cache.Key(method, id, options), load)
}

// notFoundAsNil maps store.ErrNotFound to a nil result.
func notFoundAsNil(e common.Entity, err error) (*common.Entity, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SharedEntity is an entity ranked by how many tags or events it shares with
// a source entity.
type SharedEntity struct {
	Entity      common.Entity `json:"entity"`
	SharedCount int           `json:"sharedCount"`
}

// rankShared counts appearances across groups, drops excludeID and orders by
// count descending, then name and id.
func rankShared(groups [][]common.Entity, excludeID string, filter common.NodeType, limit int) []SharedEntity {
	counts := make(map[string]*SharedEntity)
	order := make([]string, 0)
	for _, group := range groups {
		seenInGroup := make(map[string]struct{}, len(group))
		for _, e := range group {
			if e.ID == excludeID {
				continue
			}
			if filter != "" && e.NodeType != filter {
				continue
			}
			if _, dup := seenInGroup[e.ID]; dup {
				continue
			}
			seenInGroup[e.ID] = struct{}{}
			if cur, ok := counts[e.ID]; ok {
				cur.SharedCount++
				continue
			}
			counts[e.ID] = &SharedEntity{Entity: e, SharedCount: 1}
			order = append(order, e.ID)
		}
	}
	out := make([]SharedEntity, 0, len(order))
	for _, id := range order {
		out = append(out, *counts[id])
	}
	sortShared(out)
	return store.Limit(out, limit)
}

func sortShared(s []SharedEntity) {
	slices.SortStableFunc(s, func(a, b SharedEntity) int {
		if c := cmp.Compare(b.SharedCount, a.SharedCount); c != 0 {
			return c
		}
		return store.CompareEntities(a.Entity, b.Entity)
	})
}

// fanOut runs load for every id with bounded concurrency, keeping results
// in input order.
func fanOut(ctx context.Context, ids []string, load func(context.Context, string) ([]common.Entity, error)) ([][]common.Entity, error) {
	out := make([][]common.Entity, len(ids))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelQueries)
	for i, id := range ids {
		eg.Go(func() error {
			res, err := load(ectx, id)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func entityIDs(entities []common.Entity) []string {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	return ids
}

// Set bundles every resolver over one graph and one cache store.
type Set struct {
	Hierarchy   *HierarchyResolver
	Tag         *TagResolver
	Involvement *InvolvementResolver
	Sibling     *SiblingResolver
	Product     *ProductResolver
	Relevance   *RelevanceResolver
}

// NewSet builds all resolvers. A nil cache store gets a private memory store.
func NewSet(graph store.GraphStorage, c cache.Store, opts Options) *Set {
	if c == nil {
		c = cache.NewMemoryStore()
	}
	defaults := DefaultOptions()
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaults.MaxDepth
	}
	if opts.Matrix == nil {
		opts.Matrix = defaults.Matrix
	}
	return &Set{
		Hierarchy:   NewHierarchyResolver(graph, c, opts.CacheTTL, opts.MaxDepth),
		Tag:         NewTagResolver(graph, c, opts.CacheTTL),
		Involvement: NewInvolvementResolver(graph, c, opts.CacheTTL),
		Sibling:     NewSiblingResolver(graph, c, opts.CacheTTL),
		Product:     NewProductResolver(graph, c, opts.CacheTTL),
		Relevance:   NewRelevanceResolver(opts.Matrix),
	}
}

// All lists the resolvers in a fixed order.
func (s *Set) All() []Resolver {
	return []Resolver{s.Hierarchy, s.Tag, s.Involvement, s.Sibling, s.Product, s.Relevance}
}

// ClearAllCaches drops every cached resolver result.
func (s *Set) ClearAllCaches(ctx context.Context) error {
	var errs []error
	for _, r := range s.All() {
		if err := r.ClearCache(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
