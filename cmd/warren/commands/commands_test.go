package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/warren/internal/admin"
	"github.com/dyluth/warren/internal/rows"
	"github.com/dyluth/warren/internal/session"
	"github.com/dyluth/warren/pkg/kv"
	"github.com/dyluth/warren/pkg/scenario"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warren.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func sqliteConfig(t *testing.T) string {
	db := filepath.Join(t.TempDir(), "warren.db")
	return writeConfig(t, fmt.Sprintf(`version: "1.0"
storage:
  backend: sqlite
  path: %s
`, db))
}

func TestGroupsCommand(t *testing.T) {
	output, err := execute(t, "groups")
	require.NoError(t, err)
	for _, g := range []string{"Group A", "Group B", "Group C"} {
		assert.Contains(t, output, g)
	}
}

func TestFlowCommand(t *testing.T) {
	t.Run("table with check", func(t *testing.T) {
		output, err := execute(t, "flow", "--seed", "12345", "--group", "B", "--order", "6,0", "--check")
		require.NoError(t, err)
		assert.Contains(t, output, `Flow for seed "12345"`)
		assert.Contains(t, output, "group B, block order [6 0], 32 screens")
		assert.Contains(t, output, "SCN_001")
		assert.Contains(t, output, "flow is valid")
	})

	t.Run("json", func(t *testing.T) {
		output, err := execute(t, "flow", "--seed", "abc", "-o", "json")
		require.NoError(t, err)

		var flow scenario.Flow
		require.NoError(t, json.Unmarshal([]byte(output), &flow))
		assert.Equal(t, 32, flow.Len())
		assert.Equal(t, "abc", flow.Meta.Seed)
	})

	t.Run("same seed same flow", func(t *testing.T) {
		first, err := execute(t, "flow", "--seed", "repeat")
		require.NoError(t, err)
		second, err := execute(t, "flow", "--seed", "repeat")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("invalid group", func(t *testing.T) {
		_, err := execute(t, "flow", "--seed", "1", "--group", "Z")
		require.Error(t, err)
		assert.Equal(t, "failed to build flow", err.Error())
	})

	t.Run("invalid order length", func(t *testing.T) {
		_, err := execute(t, "flow", "--seed", "1", "--order", "6")
		require.Error(t, err)
		assert.Equal(t, "invalid block order", err.Error())
	})

	t.Run("seed is required", func(t *testing.T) {
		flowCmd.Flags().Lookup("seed").Changed = false
		_, err := execute(t, "flow")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "seed")
	})
}

func TestSimulateCommand(t *testing.T) {
	t.Run("memory backend json", func(t *testing.T) {
		output, err := execute(t, "simulate", "--seed", "12345", "--value", "30", "-o", "json")
		require.NoError(t, err)

		var res struct {
			Session        string `json:"session"`
			Seed           string `json:"seed"`
			Rows           int    `json:"rows"`
			Finished       bool   `json:"finished"`
			CompletionCode string `json:"completion_code"`
		}
		require.NoError(t, json.Unmarshal([]byte(output), &res))
		assert.NotEmpty(t, res.Session)
		assert.Equal(t, "12345", res.Seed)
		assert.Equal(t, 32, res.Rows)
		assert.True(t, res.Finished)
		assert.True(t, strings.HasPrefix(res.CompletionCode, "JMP-"))
	})

	t.Run("invalid strategy", func(t *testing.T) {
		_, err := execute(t, "simulate", "--strategy", "greedy")
		require.Error(t, err)
		assert.Equal(t, "invalid strategy", err.Error())
	})

	t.Run("invalid output", func(t *testing.T) {
		_, err := execute(t, "simulate", "-o", "xml")
		require.Error(t, err)
		assert.Equal(t, "invalid output format", err.Error())
	})

	t.Run("show renders screens", func(t *testing.T) {
		output, err := execute(t, "simulate", "--seed", "9", "--strategy", "risk-neutral", "--show")
		require.NoError(t, err)
		assert.NotEmpty(t, output)
	})
}

func TestSimulateThenInspectRows(t *testing.T) {
	cfg := sqliteConfig(t)

	_, err := execute(t, "simulate", "-c", cfg, "--id", "resp-1", "--seed", "12345", "--strategy", "random")
	require.NoError(t, err)

	t.Run("jsonl lists every row", func(t *testing.T) {
		output, err := execute(t, "rows", "-c", cfg, "--session", "resp-1", "-o", "jsonl")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(output), "\n")
		require.Len(t, lines, 32)

		var first rows.AnswerRow
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
		assert.Equal(t, 1, first.Order)
		assert.Equal(t, scenario.TagBase, first.Tag)
		assert.Equal(t, "warren-simulate", first.UA)
	})

	t.Run("tag filter", func(t *testing.T) {
		output, err := execute(t, "rows", "-c", cfg, "--session", "resp-1", "--tag", "SANITY", "-o", "jsonl")
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(output), "\n"), 2)
	})

	t.Run("table", func(t *testing.T) {
		output, err := execute(t, "rows", "-c", cfg, "--session", "resp-1", "--followup-only")
		require.NoError(t, err)
		assert.Contains(t, output, "Answers for session 'resp-1'")
		assert.Contains(t, output, "It felt like the right balance.")
	})

	t.Run("get mode", func(t *testing.T) {
		output, err := execute(t, "rows", "1", "-c", cfg, "--session", "resp-1")
		require.NoError(t, err)
		var r rows.AnswerRow
		require.NoError(t, json.Unmarshal([]byte(output), &r))
		assert.Equal(t, "SCN_001", r.ScenarioID)
		require.NotNil(t, r.ReasonText)
	})

	t.Run("get mode missing order", func(t *testing.T) {
		_, err := execute(t, "rows", "99", "-c", cfg, "--session", "resp-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no answer with order 99")
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := execute(t, "rows", "-c", cfg, "--session", "nobody")
		require.Error(t, err)
		assert.Equal(t, "no answers for session 'nobody'", err.Error())
	})

	t.Run("bad time filter", func(t *testing.T) {
		_, err := execute(t, "rows", "-c", cfg, "--session", "resp-1", "--since", "yesterday")
		require.Error(t, err)
		assert.Equal(t, "invalid time filter", err.Error())
	})

	t.Run("session prefix", func(t *testing.T) {
		_, err := execute(t, "simulate", "-c", cfg, "--id", "7a1b2c3d-0000-4000-8000-000000000000", "--seed", "1")
		require.NoError(t, err)
		output, err := execute(t, "rows", "-c", cfg, "--session", "7a1b2c", "-o", "jsonl")
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(output), "\n"), 32)
	})

	t.Run("sessions", func(t *testing.T) {
		output, err := execute(t, "sessions", "-c", cfg)
		require.NoError(t, err)
		assert.Equal(t, "7a1b2c3d-0000-4000-8000-000000000000\nresp-1\n", output)
	})

	t.Run("resume keeps rows", func(t *testing.T) {
		_, err := execute(t, "simulate", "-c", cfg, "--id", "resp-1", "--strategy", "random")
		require.NoError(t, err)
		output, err := execute(t, "rows", "-c", cfg, "--session", "resp-1", "-o", "jsonl")
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(output), "\n"), 32)
	})
}

func TestRowsNeedsPersistentBackend(t *testing.T) {
	_, err := execute(t, "rows", "--session", "x")
	require.Error(t, err)
	assert.Equal(t, "nothing to inspect", err.Error())

	_, err = execute(t, "sessions")
	require.Error(t, err)
	assert.Equal(t, "nothing to list", err.Error())
}

func TestParseAdminCommand(t *testing.T) {
	tests := []struct {
		args    []string
		want    admin.Command
		wantErr string
	}{
		{args: []string{"prev"}, want: admin.Command{Type: admin.CommandPrev}},
		{args: []string{"next"}, want: admin.Command{Type: admin.CommandNext}},
		{args: []string{"finish"}, want: admin.Command{Type: admin.CommandFinish}},
		{args: []string{"jump", "15"}, want: admin.Jump(14)},
		{args: []string{"ghost", "on"}, want: admin.Ghost(true)},
		{args: []string{"ghost", "off"}, want: admin.Ghost(false)},
		{args: []string{"rewind"}, wantErr: "invalid command type"},
		{args: []string{"jump"}, wantErr: "requires a screen number"},
		{args: []string{"jump", "0"}, wantErr: "invalid screen number"},
		{args: []string{"jump", "x"}, wantErr: "invalid screen number"},
		{args: []string{"ghost", "maybe"}, wantErr: "on or off"},
		{args: []string{"next", "2"}, wantErr: "takes no argument"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got, err := parseAdminCommand(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdminCommand(t *testing.T) {
	t.Run("memory backend is rejected", func(t *testing.T) {
		_, err := execute(t, "admin", "next", "--session", "s1")
		require.Error(t, err)
		assert.Equal(t, "admin commands need Redis", err.Error())
	})

	t.Run("sqlite backend is rejected", func(t *testing.T) {
		_, err := execute(t, "admin", "next", "-c", sqliteConfig(t), "--session", "s1")
		require.Error(t, err)
		assert.Equal(t, "admin commands need Redis", err.Error())
	})

	t.Run("publishes over redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := writeConfig(t, fmt.Sprintf(`version: "1.0"
storage:
  backend: redis
  redis_addr: %s
`, mr.Addr()))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer rdb.Close()

		// no listener is not an error
		_, err := execute(t, "admin", "finish", "-c", cfg, "--session", "live")
		require.NoError(t, err)

		sub, err := admin.Subscribe(ctx, rdb, "live")
		require.NoError(t, err)
		defer sub.Close()

		_, err = execute(t, "admin", "jump", "15", "-c", cfg, "--session", "live")
		require.NoError(t, err)

		select {
		case cmd := <-sub.Events():
			assert.Equal(t, admin.Jump(14), cmd)
		case <-ctx.Done():
			t.Fatal("timed out waiting for admin command")
		}
	})
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	output, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully initialized warren project")

	_, err = execute(t, "init", dir)
	require.Error(t, err)
	assert.Equal(t, "initialization failed", err.Error())

	_, err = execute(t, "init", dir, "--force")
	require.NoError(t, err)

	output, err = execute(t, "flow", "-c", filepath.Join(dir, "warren.yml"), "--seed", "1")
	require.NoError(t, err)
	assert.Contains(t, output, "32 screens")
}

func TestAdminWaitsForLiveSession(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, fmt.Sprintf(`version: "1.0"
storage:
  backend: redis
  redis_addr: %s
`, mr.Addr()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := kv.NewRedisStore(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	s, err := session.New(ctx, session.Config{ID: "live-session", Seed: "1"}, session.WithStore(store))
	require.NoError(t, err)

	sub, err := admin.Subscribe(ctx, store.Client(), "live-session")
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for cmd := range sub.Events() {
			s.HandleCommand(cmd)
		}
	}()
	defer func() {
		sub.Close()
		<-done
	}()

	_, err = execute(t, "admin", "jump", "10", "-c", cfg, "--session", "live-session", "--wait", "5s")
	require.NoError(t, err)

	_, err = execute(t, "admin", "ghost", "on", "-c", cfg, "--session", "live-ses", "--wait", "5s")
	require.NoError(t, err)
}

