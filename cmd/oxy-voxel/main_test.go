package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/engine/config"
	"github.com/Carmen-Shannon/oxy-voxel/engine/dvs"
	"github.com/Carmen-Shannon/oxy-voxel/engine/pointcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{"-i", "scene.obj", "-config", "oxy.toml"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, options{input: "scene.obj", configPath: "oxy.toml"}, opts)
}

func TestMissingInputExitsWithUsage(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(nil, &stderr))
	assert.Contains(t, stderr.String(), "missing required flag -i")
	assert.Contains(t, stderr.String(), "-config")
}

func TestUnknownFlagExitsWithUsage(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitUsage, run([]string{"-x"}, &stderr))
}

func TestBadConfigExitsWithFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[voxel]\nresolution = 100\n"), 0o644))

	var stderr bytes.Buffer
	assert.Equal(t, exitFailure, run([]string{"-i", "scene.obj", "-config", path}, &stderr))
	assert.Contains(t, stderr.String(), "invalid config")
}

func TestNewRenderDeviceByExtension(t *testing.T) {
	cfg := config.Default()

	_, ok := newRenderDevice("scan.E57", cfg).(*pointcloud.PointCloudRenderer)
	assert.True(t, ok)

	_, ok = newRenderDevice("scene.obj", cfg).(*dvs.DeferredVoxelShading)
	assert.True(t, ok)
}

func TestEngineOptions(t *testing.T) {
	cfg := config.Default()
	assert.Len(t, engineOptions(cfg), 5)
}
