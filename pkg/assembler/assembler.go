// Package assembler turns a focal entity and a generation target into a
// ranked, size-bounded, serialized context bundle.
package assembler

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/logger"
	"github.com/alchemy-game-studios/game-planner/pkg/metrics"
	"github.com/alchemy-game-studios/game-planner/pkg/provider"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
	"github.com/alchemy-game-studios/game-planner/pkg/serializer"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrInvalidTarget  = errors.New("invalid target type")
	ErrInvalidFormat  = errors.New("invalid format")
	ErrInvalidRequest = errors.New("invalid request")
)

// Request is the input of one assembly.
type Request struct {
	EntityID             string                 `json:"entityId" validate:"required"`
	TargetType           common.NodeType        `json:"targetType" validate:"required"`
	UniverseID           string                 `json:"universeId,omitempty"`
	SelectedContext      common.SelectedContext `json:"selectedContext,omitempty"`
	Product              *common.Entity         `json:"product,omitempty"`
	ProductID            string                 `json:"productId,omitempty"`
	AdditionalContextIDs []string               `json:"additionalContextIds,omitempty"`
}

type Assembler struct {
	resolvers   *resolver.Set
	serializers *serializer.Registry
	providers   []provider.Provider
	cfg         Config
	counter     TokenCounter
	tracer      Tracer
	now         func() time.Time
}

type Option func(*Assembler)

// WithProviders replaces the built-in providers.
func WithProviders(providers ...provider.Provider) Option {
	return func(a *Assembler) {
		a.providers = providers
	}
}

func WithTracer(t Tracer) Option {
	return func(a *Assembler) {
		a.tracer = t
	}
}

func WithTokenCounter(c TokenCounter) Option {
	return func(a *Assembler) {
		a.counter = c
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// New builds an assembler over a resolver set. A nil registry gets the
// default serializers.
func New(resolvers *resolver.Set, serializers *serializer.Registry, cfg Config, opts ...Option) (*Assembler, error) {
	if resolvers == nil {
		return nil, errors.New("assembler: nil resolver set")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("assembler: %w", err)
	}
	if cfg.RelevanceMatrix == nil {
		cfg.RelevanceMatrix = resolver.DefaultRelevanceMatrix()
	}
	if serializers == nil {
		serializers = serializer.DefaultRegistry()
	}

	a := &Assembler{
		resolvers:   resolvers,
		serializers: serializers,
		cfg:         cfg,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.providers == nil {
		a.providers = provider.Defaults(resolvers, cfg.Limits)
	}
	if a.counter == nil {
		a.counter = NewTiktokenCounter()
	}
	return a, nil
}

func (a *Assembler) Config() Config {
	return a.cfg
}

// ClearAllCaches drops every cached resolver result.
func (a *Assembler) ClearAllCaches(ctx context.Context) error {
	return a.resolvers.ClearAllCaches(ctx)
}

func validate(req Request, format common.Format) (Request, error) {
	req.EntityID = strings.TrimSpace(req.EntityID)
	if req.EntityID == "" {
		return req, fmt.Errorf("%w: entity id is required", ErrInvalidRequest)
	}
	if !req.TargetType.Valid() {
		return req, fmt.Errorf("%w: %q", ErrInvalidTarget, req.TargetType)
	}
	if !format.Valid() {
		return req, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	return req, nil
}

// Assemble gathers, ranks and serializes the context for req. Provider
// failures are recorded on the output unless FailFast is set; the end of ctx
// always fails the whole call.
func (a *Assembler) Assemble(ctx context.Context, req Request, format common.Format) (common.AssembledContext, error) {
	start := a.now()
	done := metrics.TimeAssembly(string(req.TargetType))

	out, err := a.assemble(ctx, req, format)
	if err != nil {
		done(false, 0)
		logger.Warn("[Assembler][Assemble] failed", "entity", req.EntityID, "target", req.TargetType, "err", err)
		return common.AssembledContext{}, err
	}
	done(true, len(out.Entities))
	logger.Info("[Assembler][Assemble] done",
		"entity", out.Metadata.EntityID,
		"target", out.Summary.TargetType,
		"entities", out.Summary.EntityCount,
		"providers", out.Summary.ProviderCount,
		"tokens", out.Summary.TokenEstimate,
		"duration", a.now().Sub(start),
	)
	return out, nil
}

func (a *Assembler) assemble(ctx context.Context, req Request, format common.Format) (common.AssembledContext, error) {
	req, err := validate(req, format)
	if err != nil {
		return common.AssembledContext{}, err
	}

	path, focal, err := a.locate(ctx, req.EntityID)
	if err != nil {
		return common.AssembledContext{}, err
	}
	universeID := req.UniverseID
	if universeID == "" {
		universeID = universeOf(path, focal)
	}

	assemblyID, err := gonanoid.New()
	if err != nil {
		return common.AssembledContext{}, fmt.Errorf("generate assembly id: %w", err)
	}

	params := provider.Params{
		EntityID:             req.EntityID,
		TargetType:           req.TargetType,
		UniverseID:           universeID,
		SelectedContext:      req.SelectedContext,
		Product:              req.Product,
		ProductID:            req.ProductID,
		AdditionalContextIDs: req.AdditionalContextIDs,
		Path:                 path,
		Focal:                focal,
	}
	results, err := a.gather(ctx, params, assemblyID)
	if err != nil {
		return common.AssembledContext{}, err
	}

	merged := merge(results)
	recordIDs(a.tracer, TraceEventConsideredEntityIDs, assemblyID, contextIDs(merged))

	kept, dropped := rank(merged, a.cfg.RelevanceMatrix, req.TargetType, a.cfg.MinRelevanceScore, a.cfg.MaxTotalContext)

	opts := serializer.Options{MaxDescriptionLength: a.cfg.MaxDescriptionLength}
	serialized := make([]common.SerializedEntity, 0, len(kept))
	for _, ce := range kept {
		se, err := a.serializers.Serialize(ce, format, opts)
		if err != nil {
			return common.AssembledContext{}, fmt.Errorf("serialize %s: %w", ce.ID(), err)
		}
		serialized = append(serialized, se)
	}

	fitted, tokens := fitBudget(a.counter, serialized, format, a.cfg.MaxTokens)
	dropped = append(dropped, kept[len(fitted):]...)
	recordIDs(a.tracer, TraceEventDroppedEntityIDs, assemblyID, contextIDs(dropped))

	usedIDs := make([]string, len(fitted))
	for i, se := range fitted {
		usedIDs[i] = se.ID
	}
	recordIDs(a.tracer, TraceEventUsedEntityIDs, assemblyID, usedIDs)

	out := common.AssembledContext{
		Entities:  fitted,
		Providers: summaries(results),
		Summary: common.AssemblySummary{
			EntityCount:   len(fitted),
			ProviderCount: len(results),
			TargetType:    req.TargetType,
			Format:        format,
			TokenEstimate: tokens,
			Dropped:       len(merged) - len(fitted),
		},
		Metadata: common.AssemblyMetadata{
			EntityID:   req.EntityID,
			UniverseID: universeID,
			Timestamp:  a.now().UTC().Format(time.RFC3339),
			AssemblyID: assemblyID,
		},
	}
	if format == common.FormatMarkdown {
		out.CombinedContent = combine(fitted)
	}
	return out, nil
}

// locate resolves the containment path and the focal entity.
func (a *Assembler) locate(ctx context.Context, id string) ([]common.Entity, *common.Entity, error) {
	path, err := a.resolvers.Hierarchy.Path(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve path of %s: %w", id, err)
	}
	if n := len(path); n > 0 && path[n-1].ID == id {
		e := path[n-1]
		return path, &e, nil
	}
	e, err := a.resolvers.Hierarchy.GetEntity(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s: %w", id, err)
	}
	if e == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	return path, e, nil
}

// universeOf is the outermost container, or the focal entity when it is a
// universe outside any chain.
func universeOf(path []common.Entity, focal *common.Entity) string {
	if len(path) > 0 {
		return path[0].ID
	}
	if focal != nil && focal.NodeType == common.NodeUniverse {
		return focal.ID
	}
	return ""
}

// gather runs every relevant provider concurrently, each under its own
// timeout. Results come back in provider order.
func (a *Assembler) gather(ctx context.Context, params provider.Params, assemblyID string) ([]common.ProviderResult, error) {
	var relevant []provider.Provider
	for _, p := range a.providers {
		if p.IsRelevant(params.TargetType) {
			relevant = append(relevant, p)
		}
	}

	results := make([]common.ProviderResult, len(relevant))
	var g *errgroup.Group
	gctx := ctx
	if a.cfg.FailFast {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = new(errgroup.Group)
	}

	for i, p := range relevant {
		g.Go(func() error {
			res, err := a.run(gctx, p, params)
			if err != nil {
				if a.cfg.FailFast || ctx.Err() != nil {
					return fmt.Errorf("provider %s: %w", p.Name(), err)
				}
				logger.Warn("[Assembler][Gather] provider failed", "provider", p.Name(), "entity", params.EntityID, "err", err)
			} else {
				logger.Debug("[Assembler][Gather] provider done", "provider", p.Name(), "count", res.Count, "ms", res.DurationMs)
			}
			results[i] = res
			if a.tracer != nil {
				a.tracer.Record(TraceEvent{
					Kind:       TraceEventProviderRun,
					AssemblyID: assemblyID,
					Provider:   res.Provider,
					Count:      res.Count,
					DurationMs: res.DurationMs,
					Error:      res.Error,
				})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("assembly canceled: %w", ctxErr)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assembly canceled: %w", err)
	}
	return results, nil
}

// run executes one provider. A failed run still yields a result carrying the
// error and no entities.
func (a *Assembler) run(ctx context.Context, p provider.Provider, params provider.Params) (common.ProviderResult, error) {
	if a.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.ProviderTimeout)
		defer cancel()
	}

	done := metrics.TimeProvider(p.Name())
	start := time.Now()
	res, err := p.Gather(ctx, params)
	elapsed := time.Since(start).Milliseconds()

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimeout
		}
		done(outcome)
		return common.ProviderResult{
			Provider:   p.Name(),
			Priority:   p.Priority(),
			Entities:   []common.ContextEntity{},
			Summary:    "failed: " + err.Error(),
			Error:      err.Error(),
			DurationMs: elapsed,
		}, err
	}
	done(metrics.OutcomeOK)

	res.Provider = p.Name()
	res.Priority = p.Priority()
	res.Count = len(res.Entities)
	res.DurationMs = elapsed
	return res, nil
}

// summaries lists provider contributions in descending priority.
func summaries(results []common.ProviderResult) []common.ProviderSummary {
	out := make([]common.ProviderSummary, len(results))
	for i, r := range results {
		out[i] = common.ProviderSummary{
			Provider:   r.Provider,
			Priority:   r.Priority,
			Count:      r.Count,
			Summary:    r.Summary,
			Error:      r.Error,
			DurationMs: r.DurationMs,
		}
	}
	slices.SortStableFunc(out, func(a, b common.ProviderSummary) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
	return out
}

func contextIDs(entities []common.ContextEntity) []string {
	ids := make([]string, len(entities))
	for i, ce := range entities {
		ids[i] = ce.ID()
	}
	return ids
}
