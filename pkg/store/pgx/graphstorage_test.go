package pgx

import (
	"testing"

	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/stretchr/testify/assert"
)

func entities(ids ...string) []common.Entity {
	out := make([]common.Entity, len(ids))
	for i, id := range ids {
		out[i] = common.Entity{ID: id, Name: id}
	}
	return out
}

func entityIDs(es []common.Entity) []string {
	if es == nil {
		return nil
	}
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestOrderByIDs(t *testing.T) {
	found := entities("c", "a", "b")
	got := orderByIDs(found, []string{"a", "missing", "b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, entityIDs(got))
	assert.Empty(t, orderByIDs(nil, []string{"a"}))
}

func TestTrimPath(t *testing.T) {
	tests := []struct {
		name  string
		chain []common.Entity
		want  []string
	}{
		{"full chain", entities("u", "p", "c"), []string{"u", "p", "c"}},
		{"entity without container", entities("c"), nil},
		{"unknown entity", nil, nil},
		{"containment cycle", entities("b", "a", "c", "b", "a", "c"), []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, entityIDs(trimPath(tt.chain)))
		})
	}
}

func TestOptions(t *testing.T) {
	s := NewGraphDBStorageWithConnection(nil, WithBatchSize(25), nil)
	assert.Equal(t, 25, s.batchSize)

	s = NewGraphDBStorageWithConnection(nil, WithBatchSize(-1))
	assert.Equal(t, defaultBatchSize, s.batchSize)
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain utf8", "Brightwater", "Brightwater"},
		{"contains null byte", "Bright\x00water", "Brightwater"},
		{"contains invalid utf8", string([]byte{'a', 0xff, 'b'}), "ab"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeText(tt.input))
		})
	}
}
