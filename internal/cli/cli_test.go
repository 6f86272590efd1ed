package cli

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/optlang/internal/app"
)

func TestParse_PositionalModelPath(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, shouldExit, err := Parse([]string{"plan.mod"}, &out)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "plan.mod", cfg.ModelPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParse_ModelFlagWinsOverPositional(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, _, err := Parse([]string{"-model", "a.mod", "b.mod"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "a.mod", cfg.ModelPath)

	cfg, _, err = Parse([]string{"-m", "short.mod"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "short.mod", cfg.ModelPath)
}

func TestParse_RepeatedDataFlags(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, _, err := Parse([]string{"-data", "a.dat", "-data", "dir", "plan.mod"}, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.dat", "dir"}, cfg.DataPaths)
}

func TestParse_AllOptions(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, _, err := Parse([]string{
		"-data", "plan.dat",
		"-output", "plan.mps",
		"-name", "plan",
		"-log-format", "TEXT",
		"-log-level", "DEBUG",
		"plan.mod",
	}, &out)
	require.NoError(t, err)

	want := &app.Config{
		ModelPath:  "plan.mod",
		DataPaths:  []string{"plan.dat"},
		OutputPath: "plan.mps",
		Name:       "plan",
		LogFormat:  "text",
		LogLevel:   "debug",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse() config mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RunManifestWithoutModelPath(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, shouldExit, err := Parse([]string{"-run", "run.hcl"}, &out)
	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "run.hcl", cfg.RunManifest)
	assert.Empty(t, cfg.ModelPath)
}

func TestParse_NoArgsPrintsUsage(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, shouldExit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_Help(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer

	cfg, shouldExit, err := Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_InvalidFlagValues(t *testing.T) {
	t.Parallel()

	t.Run("log format", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-format", "xml", "plan.mod"}, &out)
		require.Error(t, err)
		exitErr, ok := err.(*ExitError)
		require.True(t, ok)
		assert.Equal(t, 2, exitErr.Code)
		assert.Contains(t, exitErr.Message, "invalid log-format")
	})

	t.Run("log level", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-level", "loud", "plan.mod"}, &out)
		require.Error(t, err)
		exitErr, ok := err.(*ExitError)
		require.True(t, ok)
		assert.Equal(t, 2, exitErr.Code)
		assert.Contains(t, exitErr.Message, "invalid log-level")
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		_, _, err := Parse([]string{"--nope"}, &out)
		require.Error(t, err)
		exitErr, ok := err.(*ExitError)
		require.True(t, ok)
		assert.Equal(t, 2, exitErr.Code)
	})
}
