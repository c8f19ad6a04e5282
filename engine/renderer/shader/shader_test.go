package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertexStruct = `
struct Vertex {
	position: array<f32, 3>,
	normal: array<f32, 3>,
	uv: array<f32, 2>,
}
`

const testComputeSource = `
//!include Vertex

struct Params {
	triangle_count: u32,
	vertex_count: u32,
	mesh_index: u32,
	axis_hint: u32,
	_pad: vec4<u32>,
}

struct Projected {
	position: vec4<f32>,
	world: vec4<f32>,
	normal: vec4<f32>,
}

@group(0) @binding(0) var<uniform> params: Params;
@group(1) @binding(0) var<storage, read> vertices: array<Vertex>;
@group(1) @binding(1) var<storage, read> indices: array<u32>;
@group(1) @binding(2) var<storage, read_write> projected: array<Projected>;
@group(1) @binding(3) var albedo: texture_storage_3d<rgba8unorm, write>;

// @compute fn commented_out() {}
/* nested /* block */ comment */

@compute @workgroup_size(64)
fn cs_main(@builtin(global_invocation_id) id: vec3<u32>) {
	if (id.x >= params.triangle_count) {
		return;
	}
}
`

const testRasterSource = `
struct VertexIn {
	@location(0) position: vec4<f32>,
	@location(1) world: vec4<f32>,
	@location(2) normal: vec4<f32>,
}

struct VertexOut {
	@builtin(position) clip: vec4<f32>,
	@location(0) world: vec4<f32>,
}

@group(0) @binding(0) var voxels: texture_3d<f32>;

@vertex
fn vs_main(in: VertexIn) -> VertexOut {
	var out: VertexOut;
	out.clip = in.position;
	out.world = in.world;
	return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
	return in.world;
}
`

func newComputeShader(t *testing.T) Shader {
	t.Helper()
	s, err := NewShader("test_compute", testComputeSource, WithInclude("Vertex", testVertexStruct))
	require.NoError(t, err)
	return s
}

func TestNewShaderReflectsComputeEntryPoint(t *testing.T) {
	s := newComputeShader(t)

	assert.Equal(t, "cs_main", s.EntryPoint(ShaderTypeCompute))
	assert.Empty(t, s.EntryPoint(ShaderTypeVertex))
	assert.Equal(t, wgpu.ShaderStageCompute, s.Visibility())
	assert.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())
	assert.Contains(t, s.Source(), "struct Vertex")
	require.NotNil(t, s.Module())
	require.NotNil(t, s.Module().WGSLDescriptor)
	assert.Equal(t, s.Source(), s.Module().WGSLDescriptor.Code)
}

func TestNewShaderStructLayouts(t *testing.T) {
	s := newComputeShader(t)

	cases := map[string]uint64{
		"Vertex":    32,
		"Params":    32,
		"Projected": 48,
	}
	for name, size := range cases {
		l, ok := s.StructLayout(name)
		require.True(t, ok, name)
		assert.Equal(t, size, l.Size, name)
	}
}

func TestNewShaderBindGroupLayouts(t *testing.T) {
	s := newComputeShader(t)

	global := s.BindGroupLayoutDescriptor(0)
	require.Len(t, global.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, global.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(32), global.Entries[0].Buffer.MinBindingSize)

	mesh := s.BindGroupLayoutDescriptor(1)
	require.Len(t, mesh.Entries, 4)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, mesh.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(32), mesh.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(4), mesh.Entries[1].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, mesh.Entries[2].Buffer.Type)
	assert.Equal(t, uint64(48), mesh.Entries[2].Buffer.MinBindingSize)

	tex := mesh.Entries[3].StorageTexture
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, tex.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, tex.Access)
	assert.Equal(t, wgpu.TextureViewDimension3D, tex.ViewDimension)

	assert.Equal(t, "projected", s.BindGroupVarName(1, 2))
	binding, ok := s.BindGroupFromVarName(1, "albedo")
	assert.True(t, ok)
	assert.Equal(t, 3, binding)
	_, ok = s.BindGroupFromVarName(1, "missing")
	assert.False(t, ok)
}

func TestNewShaderRasterStages(t *testing.T) {
	s, err := NewShader("test_raster", testRasterSource)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", s.EntryPoint(ShaderTypeVertex))
	assert.Equal(t, "fs_main", s.EntryPoint(ShaderTypeFragment))
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, s.Visibility())

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(48), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 3)
	assert.Equal(t, uint64(16), layouts[0].Attributes[1].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layouts[0].Attributes[2].Format)

	entry := s.BindGroupLayoutDescriptor(0).Entries[0]
	assert.Equal(t, wgpu.TextureViewDimension3D, entry.Texture.ViewDimension)
}

func TestNewShaderWithoutEntryPoint(t *testing.T) {
	_, err := NewShader("empty", "struct A { x: f32, }")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestNewShaderUnknownInclude(t *testing.T) {
	_, err := NewShader("bad", "//!include Missing\n@compute @workgroup_size(1) fn main() {}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestPreProcessorIncludesOnce(t *testing.T) {
	pp := NewPreProcessor()
	pp.Register("Common", "const SCALE: f32 = 2.0;")

	out, err := pp.Process("//!include Common\n//!include Common\nfn f() {}")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "const SCALE"))
}

func TestValidateLayoutAcceptsMatchingHost(t *testing.T) {
	s := newComputeShader(t)

	host := wgpu.BindGroupLayoutDescriptor{
		Label: "params",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 32},
			},
		},
	}
	assert.NoError(t, ValidateLayout(host, s, 0))
}

func TestValidateLayoutReportsMismatches(t *testing.T) {
	s := newComputeShader(t)

	host := wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: 16}},
			{Binding: 1, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: 4}},
			{Binding: 2, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: 48}},
			{Binding: 7, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}},
		},
	}
	err := ValidateLayout(host, s, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	msg := err.Error()
	assert.Contains(t, msg, "group 1")
	assert.Contains(t, msg, "binding 0 (vertices): min binding size 16, shader wants 32")
	assert.Contains(t, msg, "binding 2 (projected): buffer type")
	assert.Contains(t, msg, "binding 3 (albedo) missing from host layout")
	assert.Contains(t, msg, "binding 7 not declared by shader")
}
