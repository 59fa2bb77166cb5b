package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Versifine/laneshift/internal/config"
	"github.com/Versifine/laneshift/internal/event"
	"github.com/Versifine/laneshift/internal/logger"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "laneshift", cmd.Use)
	assert.Contains(t, cmd.Long, "lane-change intent")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"run", "simulate", "lanes"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	cfgFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfgFlag)
	assert.Equal(t, "c", cfgFlag.Shorthand)
	assert.Equal(t, defaultConfigPath, cfgFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))

	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)
	watch := run.Flags().Lookup("watch")
	require.NotNil(t, watch)
	assert.Equal(t, "true", watch.DefValue)
}

// TestLanesCommand 测试 lanes 命令输出车道位置
func TestLanesCommand(t *testing.T) {
	path := writeConfig(t, "motion:\n  lane_count: 5\n  lane_width: 2\n  initial_lane: 0\n")

	out, err := execute(t, "lanes", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "lane 0: -4.000  (initial)")
	assert.Contains(t, out, "lane 4: +4.000")
	assert.Contains(t, out, "bounds: [-4.000, +4.000]")
}

func TestLanesCommandJSON(t *testing.T) {
	path := writeConfig(t, "motion:\n  lane_count: 3\n  lane_width: 3\n")

	out, err := execute(t, "lanes", "--json", "-c", path)
	require.NoError(t, err)

	var rep lanesReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, []float64{-3, 0, 3}, rep.Lanes)
	assert.Equal(t, 1, rep.InitialLane)
	assert.Equal(t, 12.0, rep.MaxSpeed)
}

func TestLanesDefaultsWithoutConfigFile(t *testing.T) {
	out, err := execute(t, "lanes")
	require.NoError(t, err)
	assert.Contains(t, out, "lane 1: +0.000  (initial)")
}

func TestExplicitMissingConfig(t *testing.T) {
	_, err := execute(t, "lanes", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestSimulateCommand(t *testing.T) {
	script := filepath.Join("..", "scenario", "testdata", "lane_change.yaml")
	out, err := execute(t, "simulate", script)
	require.NoError(t, err)
	assert.Contains(t, out, "# keyboard then touch")
	assert.Contains(t, out, "lane   1 -> 0 x=-3.00")

	_, err = execute(t, "simulate")
	assert.Error(t, err)

	_, err = execute(t, "simulate", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load script")
}

func TestCoreApply(t *testing.T) {
	cfg := config.DefaultConfig()
	c := newCore(cfg, -1, logger.Discard())
	defer c.source.Dispose()

	var reloaded []string
	c.bus.Subscribe(event.EventConfigReloaded, func(raw any) {
		reloaded = append(reloaded, raw.(event.ConfigReloadedEvent).Path)
	})

	next := config.DefaultConfig()
	next.Motion.MaxHorizontalSpeed = 20
	next.Motion.VelocityBlend = 4
	next.Input.SwipeThreshold = 60
	next.Input.LeftKeys = []string{"j"}
	c.apply("cfg.yaml", next, logger.Discard())

	speed, blend := c.ctrl.Tuning()
	assert.Equal(t, 20.0, speed)
	assert.Equal(t, 4.0, blend)
	assert.Equal(t, 60.0, c.source.Options().SwipeThreshold)
	assert.Equal(t, []string{"cfg.yaml"}, reloaded)

	c.terminal.KeyDown("j")
	assert.True(t, c.source.GetState().Left)
}
