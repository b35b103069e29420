package main

import (
	"path/filepath"
	"testing"
)

// TestRunReportsStartupErrors checks that startup failures come back as a
// non-zero exit code instead of terminating the process.
func TestRunReportsStartupErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing config file", args: []string{"--config", filepath.Join(t.TempDir(), "missing.toml")}},
		{name: "unknown log level", args: []string{"--log-level", "loud", "--websocket-addr", ""}},
		{name: "unbindable host", args: []string{"--host", "256.0.0.1", "--websocket-addr", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := run(tt.args); code != 1 {
				t.Errorf("run(%v) = %d, want 1", tt.args, code)
			}
		})
	}
}
