package assembler

import (
	"slices"
	"sort"
	"sync"
)

type TraceEventKind string

const (
	TraceEventConsideredEntityIDs TraceEventKind = "considered_entity_ids"
	TraceEventUsedEntityIDs       TraceEventKind = "used_entity_ids"
	TraceEventDroppedEntityIDs    TraceEventKind = "dropped_entity_ids"
	TraceEventProviderRun         TraceEventKind = "provider_run"
)

// TraceEvent is an extensible event envelope for assembly tracing.
type TraceEvent struct {
	Kind TraceEventKind

	AssemblyID string
	EntityIDs  []string

	Provider   string
	Count      int
	DurationMs int64
	Error      string
}

// Tracer is a sink for assembly tracing events. Record may be called from
// several goroutines at once.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fans events out to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func recordIDs(t Tracer, kind TraceEventKind, assemblyID string, ids []string) {
	if t == nil || len(ids) == 0 {
		return
	}
	t.Record(TraceEvent{Kind: kind, AssemblyID: assemblyID, EntityIDs: ids})
}

// ProviderRun is one provider's line in a trace snapshot.
type ProviderRun struct {
	Provider   string
	Count      int
	DurationMs int64
	Error      string
}

// AssemblyTrace collects what an assembly considered, used and dropped.
// It is safe for concurrent use.
type AssemblyTrace struct {
	mu sync.Mutex

	considered map[string]struct{}
	used       map[string]struct{}
	dropped    map[string]struct{}
	runs       []ProviderRun
}

type AssemblyTraceSnapshot struct {
	ConsideredEntityIDs []string
	UsedEntityIDs       []string
	DroppedEntityIDs    []string
	ProviderRuns        []ProviderRun
}

func NewAssemblyTrace() *AssemblyTrace {
	return &AssemblyTrace{
		considered: make(map[string]struct{}),
		used:       make(map[string]struct{}),
		dropped:    make(map[string]struct{}),
	}
}

func (t *AssemblyTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var into map[string]struct{}
	switch event.Kind {
	case TraceEventConsideredEntityIDs:
		into = t.considered
	case TraceEventUsedEntityIDs:
		into = t.used
	case TraceEventDroppedEntityIDs:
		into = t.dropped
	case TraceEventProviderRun:
		t.runs = append(t.runs, ProviderRun{
			Provider:   event.Provider,
			Count:      event.Count,
			DurationMs: event.DurationMs,
			Error:      event.Error,
		})
		return
	default:
		return
	}
	for _, id := range event.EntityIDs {
		if id == "" {
			continue
		}
		into[id] = struct{}{}
	}
}

func (t *AssemblyTrace) Snapshot() AssemblyTraceSnapshot {
	if t == nil {
		return AssemblyTraceSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	keys := func(m map[string]struct{}) []string {
		out := make([]string, 0, len(m))
		for id := range m {
			out = append(out, id)
		}
		sort.Strings(out)
		return out
	}
	runs := slices.Clone(t.runs)
	slices.SortFunc(runs, func(a, b ProviderRun) int {
		switch {
		case a.Provider < b.Provider:
			return -1
		case a.Provider > b.Provider:
			return 1
		}
		return 0
	})
	return AssemblyTraceSnapshot{
		ConsideredEntityIDs: keys(t.considered),
		UsedEntityIDs:       keys(t.used),
		DroppedEntityIDs:    keys(t.dropped),
		ProviderRuns:        runs,
	}
}
