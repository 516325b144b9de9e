package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchedule(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadSchedules(t *testing.T) {
	dir := t.TempDir()
	writeSchedule(t, dir, "dockmaster.yaml", `
npc_id: dockmaster-orin
bindings:
  - room: fish-market
    start: "08:00"
    end: "18:00"
  - room: pier-3
    start: "18:00"
    end: "22:00"
`)

	schedules, err := LoadSchedules(dir)
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	bindings := schedules["dockmaster-orin"]
	require.Len(t, bindings, 2)
	assert.Equal(t, Binding{Start: 480, End: 1080, RoomID: "fish-market"}, bindings[0])
	assert.Equal(t, Binding{Start: 1080, End: 1320, RoomID: "pier-3"}, bindings[1])
}

func TestLoadSchedules_BadClock(t *testing.T) {
	dir := t.TempDir()
	writeSchedule(t, dir, "bad.yaml", `
npc_id: dockmaster-orin
bindings:
  - room: fish-market
    start: "25:00"
    end: "18:00"
`)

	_, err := LoadSchedules(dir)
	assert.Error(t, err)
}

func TestLoadSchedules_MissingNPCID(t *testing.T) {
	dir := t.TempDir()
	writeSchedule(t, dir, "bad.yaml", `
bindings:
  - room: fish-market
    start: "08:00"
    end: "18:00"
`)

	_, err := LoadSchedules(dir)
	assert.Error(t, err)
}

func TestLoadSchedules_IgnoresNonYAML(t *testing.T) {
	dir := t.TempDir()
	writeSchedule(t, dir, "notes.txt", "not yaml")

	schedules, err := LoadSchedules(dir)
	require.NoError(t, err)
	assert.Empty(t, schedules)
}
