package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyPatterns(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"progress", ProgressKey("r1"), "warren:r1:progress"},
		{"ghost", GhostKey("r1"), "warren:r1:ghost"},
		{"pool seed", PoolSeedKey("r1"), "warren:r1:poolseed"},
		{"rows", RowsKey("r1", "resp_followups_v1", 32), "warren:r1:rows:resp_followups_v1_32"},
		{"rows default storage", RowsKey("r1", "", 32), "warren:r1:rows:resp_followups_v1_32"},
		{"finish code", FinishCodeKey("r1", "custom", 1), "warren:r1:rows:custom_1_finish_code"},
		{"admin channel", AdminChannel("r1"), "warren:r1:admin_commands"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestRowsKeyChangesWithScenarioCount(t *testing.T) {
	assert.NotEqual(t, RowsKey("r1", "s", 32), RowsKey("r1", "s", 1))
}
