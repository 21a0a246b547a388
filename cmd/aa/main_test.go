package main

import (
	"testing"

	"github.com/bkyoung/automaton-auditor/internal/adapter/observability"
	"github.com/bkyoung/automaton-auditor/internal/config"
)

func TestBuildLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ObservabilityConfig
		want bool
	}{
		{
			name: "disabled logging returns nil",
			cfg:  config.ObservabilityConfig{Logging: config.LoggingConfig{Enabled: false}},
			want: false,
		},
		{
			name: "enabled logging returns logger",
			cfg:  config.ObservabilityConfig{Logging: config.LoggingConfig{Enabled: true, Level: "info", Format: "human"}},
			want: true,
		},
		{
			name: "json format accepted",
			cfg:  config.ObservabilityConfig{Logging: config.LoggingConfig{Enabled: true, Level: "debug", Format: "json"}},
			want: true,
		},
		{
			name: "unknown level falls back to info",
			cfg:  config.ObservabilityConfig{Logging: config.LoggingConfig{Enabled: true, Level: "verbose", Format: "human"}},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := buildLogger(tt.cfg)
			if tt.want && logger == nil {
				t.Fatal("expected a logger, got nil")
			}
			if !tt.want && logger != nil {
				t.Fatal("expected nil logger")
			}
			var _ *observability.Logger = logger
		})
	}
}

func TestDefaultConfigPaths(t *testing.T) {
	paths := defaultConfigPaths()
	if len(paths) == 0 {
		t.Fatal("expected at least the current directory")
	}
	if paths[0] != "." {
		t.Fatalf("expected current directory first, got %s", paths[0])
	}
}
