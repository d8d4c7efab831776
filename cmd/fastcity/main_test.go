package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/fastcity/internal/ai"
	"github.com/udisondev/fastcity/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestNewPolicy(t *testing.T) {
	cfg := config.Default().Fleet

	cfg.Policy = config.PolicyReactive
	assert.IsType(t, &ai.ReactivePolicy{}, newPolicy(&cfg))

	cfg.Policy = config.PolicyGoal
	assert.IsType(t, &ai.GoalPolicy{}, newPolicy(&cfg))
}
