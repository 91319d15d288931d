package store

import (
	"cmp"
	"slices"
	"strings"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
)

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize items.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DedupeStrings drops blanks and repeats, keeping first occurrences in order.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// CompareEntities orders by case-insensitive name, then id.
func CompareEntities(a, b common.Entity) int {
	if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// SortEntities sorts in place using CompareEntities.
func SortEntities(entities []common.Entity) {
	slices.SortStableFunc(entities, CompareEntities)
}

// SortTagUsage orders by count descending, then by tag name and id.
func SortTagUsage(usage []TagUsage) {
	slices.SortStableFunc(usage, func(a, b TagUsage) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return CompareEntities(a.Tag, b.Tag)
	})
}

// Limit truncates s to n items; n <= 0 means no limit.
func Limit[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
