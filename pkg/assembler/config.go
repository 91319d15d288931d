package assembler

import (
	"fmt"
	"time"

	"github.com/alchemy-game-studios/game-planner/internal/util"
	"github.com/alchemy-game-studios/game-planner/pkg/provider"
	"github.com/alchemy-game-studios/game-planner/pkg/resolver"
)

// Config bounds and tunes an assembly.
type Config struct {
	// MaxTotalContext caps the number of entities in the output.
	MaxTotalContext int
	// MinRelevanceScore drops entities scoring below it.
	MinRelevanceScore float64
	CacheTTL          time.Duration
	MaxHierarchyDepth int
	Limits            provider.Limits
	// MaxDescriptionLength truncates free text in serializers; 0 disables.
	MaxDescriptionLength int
	// MaxTokens drops the lowest ranked entities until the serialized output
	// fits; 0 disables the budget.
	MaxTokens       int
	ProviderTimeout time.Duration
	// FailFast aborts the assembly on the first provider failure instead of
	// recording it and continuing.
	FailFast        bool
	RelevanceMatrix resolver.RelevanceMatrix
}

func DefaultConfig() Config {
	return Config{
		MaxTotalContext:      50,
		MinRelevanceScore:    0.3,
		CacheTTL:             60 * time.Second,
		MaxHierarchyDepth:    10,
		Limits:               provider.DefaultLimits(),
		MaxDescriptionLength: 600,
		ProviderTimeout:      5 * time.Second,
		RelevanceMatrix:      resolver.DefaultRelevanceMatrix(),
	}
}

// ConfigFromEnv starts from DefaultConfig and applies CONTEXT_* variables.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.MaxTotalContext = util.GetEnvInt("CONTEXT_MAX_TOTAL", cfg.MaxTotalContext)
	cfg.MinRelevanceScore = util.GetEnvNumeric("CONTEXT_MIN_RELEVANCE", cfg.MinRelevanceScore)
	cfg.CacheTTL = util.GetEnvDuration("CONTEXT_CACHE_TTL", cfg.CacheTTL)
	cfg.MaxHierarchyDepth = util.GetEnvInt("CONTEXT_MAX_DEPTH", cfg.MaxHierarchyDepth)
	cfg.Limits.TagLimit = util.GetEnvInt("CONTEXT_TAG_LIMIT", cfg.Limits.TagLimit)
	cfg.Limits.SiblingLimit = util.GetEnvInt("CONTEXT_SIBLING_LIMIT", cfg.Limits.SiblingLimit)
	cfg.Limits.EventLimit = util.GetEnvInt("CONTEXT_EVENT_LIMIT", cfg.Limits.EventLimit)
	cfg.Limits.CoParticipantLimit = util.GetEnvInt("CONTEXT_CO_PARTICIPANT_LIMIT", cfg.Limits.CoParticipantLimit)
	cfg.Limits.LocationLimit = util.GetEnvInt("CONTEXT_LOCATION_LIMIT", cfg.Limits.LocationLimit)
	cfg.Limits.ProductLimit = util.GetEnvInt("CONTEXT_PRODUCT_LIMIT", cfg.Limits.ProductLimit)
	cfg.Limits.AdaptationLimit = util.GetEnvInt("CONTEXT_ADAPTATION_LIMIT", cfg.Limits.AdaptationLimit)
	cfg.MaxDescriptionLength = util.GetEnvInt("CONTEXT_MAX_DESCRIPTION", cfg.MaxDescriptionLength)
	cfg.MaxTokens = util.GetEnvInt("CONTEXT_MAX_TOKENS", cfg.MaxTokens)
	cfg.ProviderTimeout = util.GetEnvDuration("CONTEXT_PROVIDER_TIMEOUT", cfg.ProviderTimeout)
	cfg.FailFast = util.GetEnvBool("CONTEXT_FAIL_FAST", cfg.FailFast)
	return cfg
}

// Validate rejects configurations that cannot produce a bounded output.
func (c Config) Validate() error {
	if c.MaxTotalContext <= 0 {
		return fmt.Errorf("max total context must be positive, got %d", c.MaxTotalContext)
	}
	if c.MinRelevanceScore < 0 || c.MinRelevanceScore > 1 {
		return fmt.Errorf("min relevance score must be within [0,1], got %v", c.MinRelevanceScore)
	}
	if c.MaxHierarchyDepth <= 0 {
		return fmt.Errorf("max hierarchy depth must be positive, got %d", c.MaxHierarchyDepth)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max tokens must not be negative, got %d", c.MaxTokens)
	}
	return nil
}

// ResolverOptions derives the resolver settings from c.
func (c Config) ResolverOptions() resolver.Options {
	return resolver.Options{
		CacheTTL: c.CacheTTL,
		MaxDepth: c.MaxHierarchyDepth,
		Matrix:   c.RelevanceMatrix,
	}
}
