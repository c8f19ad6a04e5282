package dvs

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// VoxelFormat is the texel format of both voxel textures.
const VoxelFormat = wgpu.TextureFormatRGBA8Unorm

// Black Board names of the textures the voxelization pass publishes.
const (
	AlbedoTextureName = "voxel_albedo"
	NormalTextureName = "voxel_normal"
)

func uniformEntry(binding uint32, visibility wgpu.ShaderStage, size int) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
		Buffer: wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: uint64(size),
		},
	}
}

func storageEntry(binding uint32, readOnly bool, stride int) wgpu.BindGroupLayoutEntry {
	t := wgpu.BufferBindingTypeStorage
	if readOnly {
		t = wgpu.BufferBindingTypeReadOnlyStorage
	}
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageCompute,
		Buffer: wgpu.BufferBindingLayout{
			Type:           t,
			MinBindingSize: uint64(stride),
		},
	}
}

func voxelStorageEntry(binding uint32, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
		StorageTexture: wgpu.StorageTextureBindingLayout{
			Access:        wgpu.StorageTextureAccessWriteOnly,
			Format:        VoxelFormat,
			ViewDimension: wgpu.TextureViewDimension3D,
		},
	}
}

// ProjectionGlobalLayout is group 0 of the axis projection stage.
func ProjectionGlobalLayout() wgpu.BindGroupLayoutDescriptor {
	var view VoxelViewUniform
	var grid GridUniform
	return wgpu.BindGroupLayoutDescriptor{
		Label: "voxel projection global",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageCompute, view.Size()),
			uniformEntry(1, wgpu.ShaderStageCompute, grid.Size()),
		},
	}
}

// ProjectionMeshLayout is group 1 of the axis projection stage, bound once per mesh.
func ProjectionMeshLayout() wgpu.BindGroupLayoutDescriptor {
	var vertex scene.VertexPod
	var projected ProjectedVertex
	var params MeshParams
	return wgpu.BindGroupLayoutDescriptor{
		Label: "voxel projection mesh",
		Entries: []wgpu.BindGroupLayoutEntry{
			storageEntry(0, true, vertex.Size()),
			storageEntry(1, true, 4),
			storageEntry(2, false, projected.Size()),
			storageEntry(3, false, 4),
			uniformEntry(4, wgpu.ShaderStageCompute, params.Size()),
		},
	}
}

// RasterGlobalLayout is group 0 of the voxelization stage.
func RasterGlobalLayout() wgpu.BindGroupLayoutDescriptor {
	var view VoxelViewUniform
	var grid GridUniform
	vf := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	return wgpu.BindGroupLayoutDescriptor{
		Label: "voxelization global",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, vf, view.Size()),
			uniformEntry(1, vf, grid.Size()),
			voxelStorageEntry(2, wgpu.ShaderStageFragment),
			voxelStorageEntry(3, wgpu.ShaderStageFragment),
		},
	}
}

// RasterMeshLayout is group 1 of the voxelization stage, bound once per mesh.
func RasterMeshLayout() wgpu.BindGroupLayoutDescriptor {
	var material scene.MaterialPod
	return wgpu.BindGroupLayoutDescriptor{
		Label: "voxelization mesh",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageFragment, material.Size()),
		},
	}
}

// ClearLayout is the only group of the clear stage.
func ClearLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "voxel clear",
		Entries: []wgpu.BindGroupLayoutEntry{
			voxelStorageEntry(0, wgpu.ShaderStageCompute),
			voxelStorageEntry(1, wgpu.ShaderStageCompute),
		},
	}
}

// DebugViewLayout is group 0 of the debug pass.
func DebugViewLayout() wgpu.BindGroupLayoutDescriptor {
	var view DebugViewUniform
	var grid GridUniform
	return wgpu.BindGroupLayoutDescriptor{
		Label: "voxel debug view",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageFragment, view.Size()),
			uniformEntry(1, wgpu.ShaderStageFragment, grid.Size()),
		},
	}
}

// DebugTextureLayout is group 1 of the debug pass. It is rebuilt whenever the albedo texture
// on the Black Board changes.
func DebugTextureLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "voxel debug texture",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension3D,
				},
			},
		},
	}
}

// ProjectedVertexLayout is vertex buffer 0 of the voxelization stage: the projected buffer read
// as three vec4 attributes.
func ProjectedVertexLayout() wgpu.VertexBufferLayout {
	var p ProjectedVertex
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(p.Size()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 2},
		},
	}
}
