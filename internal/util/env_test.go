package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_NUM", "0.25")
	t.Setenv("TEST_BAD_NUM", "many")
	t.Setenv("TEST_BOOL", "YES")
	t.Setenv("TEST_EMPTY", "")

	assert.Equal(t, 0.25, GetEnvNumeric("TEST_NUM", 1))
	assert.Equal(t, 7.0, GetEnvNumeric("TEST_BAD_NUM", 7))
	assert.Equal(t, 3, GetEnvInt("TEST_UNSET_INT", 3))
	assert.True(t, GetEnvBool("TEST_BOOL", false))
	assert.Equal(t, "fallback", GetEnvString("TEST_EMPTY", "fallback"))
	assert.Equal(t, "", GetEnv("TEST_UNSET"))
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "90s", 90 * time.Second},
		{"bare seconds", "60", time.Minute},
		{"fractional seconds", "0.5", 500 * time.Millisecond},
		{"invalid", "soon", 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			assert.Equal(t, tt.want, GetEnvDuration("TEST_DURATION", 5*time.Second))
		})
	}
}
