package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawFeed = `id,vendor_id,pickup_datetime,dropoff_datetime,passenger_count,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,store_and_fwd_flag,trip_duration
id1,2,2016-03-14 17:24:55,2016-03-14 17:32:30,1,-73.982155,40.767937,-73.964630,40.765602,N,455
id2,1,2016-03-14 17:24:55,2016-03-14 17:32:30,2,-73.982155,40.767937,-73.964630,40.765602,N,455
id3,1,2016-03-14 17:24:55,2016-03-14 17:32:30,9,-73.982155,40.767937,-73.964630,40.765602,N,455
`

type workspace struct {
	raw, cleaned, log string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		raw:     filepath.Join(dir, "train.csv"),
		cleaned: filepath.Join(dir, "cleaned_data.csv"),
		log:     filepath.Join(dir, "cleaning_log.txt"),
	}
	require.NoError(t, os.WriteFile(ws.raw, []byte(rawFeed), 0o644))

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CLEANING_POLICY", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(dir, "taxi.db"))
	return ws
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd(t *testing.T) {
	cmd := newRootCmd()

	assert.Equal(t, "taxictl", cmd.Use)
	require.NotNil(t, cmd.PersistentFlags().Lookup("output"))
	assert.Equal(t, "o", cmd.PersistentFlags().Lookup("output").Shorthand)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"profile", "clean", "load", "verify", "run"} {
		assert.Contains(t, names, want)
	}
}

func TestProfileCommand(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "profile", "--raw", ws.raw)
	require.NoError(t, err)
	assert.Contains(t, out, "rows: 3\n")
	assert.Contains(t, out, "above_six: 1\n")
}

func TestCleanAndVerifyCommands(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "clean", "--raw", ws.raw, "--cleaned", ws.cleaned, "--log", ws.log, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"rows_in": 3`)
	assert.Contains(t, out, `"rows_out": 2`)
	assert.FileExists(t, ws.cleaned)
	assert.FileExists(t, ws.log)

	out, err = execute(t, "verify", "--cleaned", ws.cleaned)
	require.NoError(t, err)
	assert.Contains(t, out, "violations: []")
}

func TestVerifyCommandFailsOnViolations(t *testing.T) {
	ws := newWorkspace(t)
	_, err := execute(t, "clean", "--raw", ws.raw, "--cleaned", ws.cleaned, "--log", ws.log)
	require.NoError(t, err)

	data, err := os.ReadFile(ws.cleaned)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), ",evening,", ",night,", 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(ws.cleaned, []byte(tampered), 0o644))

	out, err := execute(t, "verify", "--cleaned", ws.cleaned)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 rule violations")
	assert.Contains(t, out, "field: time_of_day")
}

func TestRunAndLoadCommands(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, "run", "--raw", ws.raw, "--cleaned", ws.cleaned, "--log", ws.log)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded: 2\n")

	out, err = execute(t, "load", "--cleaned", ws.cleaned)
	require.NoError(t, err)
	assert.Equal(t, "Loaded 2 trips\n", out)
}

func TestMissingInput(t *testing.T) {
	ws := newWorkspace(t)

	_, err := execute(t, "clean", "--raw", ws.raw+".missing", "--cleaned", ws.cleaned, "--log", ws.log)
	assert.Error(t, err)
}
