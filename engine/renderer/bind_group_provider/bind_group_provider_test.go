package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBindGroupProviderOptions(t *testing.T) {
	buf := new(wgpu.Buffer)
	view := new(wgpu.TextureView)
	layout := new(wgpu.BindGroupLayout)

	p := NewBindGroupProvider("voxel_global",
		WithBindGroupLayout(layout),
		WithBuffer(0, buf),
		WithTextureView(2, view),
	)

	assert.Equal(t, "voxel_global", p.Label())
	assert.Same(t, layout, p.BindGroupLayout())
	assert.Same(t, buf, p.Buffer(0))
	assert.Same(t, view, p.TextureView(2))
	assert.False(t, p.Owns(0))
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Buffer(1))
}

func TestBindGroupProviderOwnership(t *testing.T) {
	p := NewBindGroupProvider("mesh")
	shared := new(wgpu.Buffer)
	created := new(wgpu.Buffer)

	p.SetBuffer(0, shared)
	p.SetOwnedBuffer(1, created)
	assert.False(t, p.Owns(0))
	assert.True(t, p.Owns(1))
	require.Len(t, p.Buffers(), 2)

	// rebinding a slot from outside drops ownership of it
	p.SetBuffer(1, shared)
	assert.False(t, p.Owns(1))
}

func TestBindGroupProviderReleaseKeepsBorrowedResources(t *testing.T) {
	p := NewBindGroupProvider("debug")
	p.SetBuffer(0, new(wgpu.Buffer))
	p.SetTextureView(1, new(wgpu.TextureView))

	p.Release()

	assert.Empty(t, p.Buffers())
	assert.Empty(t, p.TextureViews())
	assert.Nil(t, p.BindGroup())
}
