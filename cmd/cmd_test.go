package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sgaunet/s3ingest/pkg/ledger"
)

func TestClearScope(t *testing.T) {
	tests := []struct {
		files, dirs bool
		want        ledger.Scope
	}{
		{false, false, ledger.ScopeAll},
		{true, false, ledger.ScopeFiles},
		{false, true, ledger.ScopeDirectories},
		{true, true, ledger.ScopeAll},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clearScope(tt.files, tt.dirs))
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"}, {"migrate"}, {"test-connection"}, {"inspect"},
		{"scan", "start"}, {"scan", "batch"}, {"scan", "run"}, {"scan", "progress"},
		{"scan", "cancel"}, {"scan", "pause"}, {"scan", "resume"}, {"scan", "full"},
		{"scan", "dead-letters"}, {"ledger", "clear"},
	} {
		c, _, err := rootCmd.Find(path)
		assert.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], c.Name())
	}
}
