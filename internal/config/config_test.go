package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validYAML = `
trigger:
  stabilize_samps: 100
  power_trig: 0.05
  pkt_spacing: 64
monitor:
  num_repeats: 10
  duty_cycle: 0.5
sts: sts.txt
lts: lts.txt
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", validYAML)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(100), cfg.Trigger.StabilizeSamps)
	require.InDelta(t, 0.05, cfg.Trigger.PowerTrig, 1e-9)
	require.Equal(t, uint64(64), cfg.Trigger.PktSpacing)
	require.Equal(t, uint64(10), cfg.Monitor.NumRepeats)
	require.InDelta(t, 0.5, cfg.Monitor.DutyCycle, 1e-9)
}

func TestLoad_RejectsMissingSTS(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
monitor:
  num_repeats: 1
  duty_cycle: 1.0
lts: lts.txt
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsOutOfRangeDutyCycle(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
sts: sts.txt
lts: lts.txt
monitor:
  duty_cycle: 1.5
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestBuildStore_LoadsTrainingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sts.txt", "1\n0\n0\n1\n")
	writeFile(t, dir, "lts.txt", "1\n0\n0\n1\n-1\n0\n0\n-1\n")
	path := writeFile(t, dir, "config.yaml", `
trigger:
  stabilize_samps: 0
  power_trig: 0.1
  pkt_spacing: 8
monitor:
  num_repeats: 1
  duty_cycle: 1.0
sts: `+filepath.Join(dir, "sts.txt")+`
lts: `+filepath.Join(dir, "lts.txt")+`
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	store, err := cfg.BuildStore()
	require.NoError(t, err)
	require.Len(t, store.STS, 2)
	require.Len(t, store.LTS, 4)
}
