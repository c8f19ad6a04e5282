package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLimitsMaxStyle(t *testing.T) {
	supported := wgpu.Limits{MaxBindGroups: 4, MaxTextureDimension3D: 2048}

	assert.NoError(t, CheckLimits(supported, wgpu.Limits{MaxBindGroups: 4, MaxTextureDimension3D: 256}))

	err := CheckLimits(supported, wgpu.Limits{MaxBindGroups: 8})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxBindGroups: need >= 8, adapter supports 4")
}

func TestCheckLimitsAlignment(t *testing.T) {
	supported := wgpu.Limits{MinUniformBufferOffsetAlignment: 256}

	assert.NoError(t, CheckLimits(supported, wgpu.Limits{MinUniformBufferOffsetAlignment: 256}))
	assert.NoError(t, CheckLimits(wgpu.Limits{MinUniformBufferOffsetAlignment: 64}, wgpu.Limits{MinUniformBufferOffsetAlignment: 256}))

	err := CheckLimits(supported, wgpu.Limits{MinUniformBufferOffsetAlignment: 64})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MinUniformBufferOffsetAlignment: need <= 64, adapter requires 256")
}

func TestCheckLimitsIgnoresZeroAndListsAll(t *testing.T) {
	assert.NoError(t, CheckLimits(wgpu.Limits{}, wgpu.Limits{}))

	err := CheckLimits(wgpu.Limits{}, wgpu.Limits{MaxBindGroups: 4, MaxStorageTexturesPerShaderStage: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxBindGroups")
	assert.Contains(t, err.Error(), "MaxStorageTexturesPerShaderStage")
}

func TestCheckFeatures(t *testing.T) {
	supported := wgpu.FeatureName(1)
	missing := wgpu.FeatureName(2)
	has := func(f wgpu.FeatureName) bool { return f == supported }

	assert.NoError(t, CheckFeatures(has, nil))
	assert.NoError(t, CheckFeatures(has, []wgpu.FeatureName{supported}))

	err := CheckFeatures(has, []wgpu.FeatureName{supported, missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported features")
}

func TestRaiseLimits(t *testing.T) {
	base := wgpu.Limits{MaxBindGroups: 4, MaxTextureDimension3D: 2048, MinUniformBufferOffsetAlignment: 256}

	out := RaiseLimits(base, wgpu.Limits{
		MaxBindGroups:                   6,
		MaxTextureDimension3D:           256,
		MinUniformBufferOffsetAlignment: 64,
	})
	assert.Equal(t, uint32(6), out.MaxBindGroups)
	assert.Equal(t, uint32(2048), out.MaxTextureDimension3D, "limits are never lowered")
	assert.Equal(t, uint32(64), out.MinUniformBufferOffsetAlignment)

	assert.Equal(t, base, RaiseLimits(base, wgpu.Limits{}))
}
