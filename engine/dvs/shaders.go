package dvs

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/voxel_clear.wgsl
var voxelClearSource string

//go:embed assets/voxel_axis_projection.wgsl
var voxelAxisProjectionSource string

//go:embed assets/voxelization.wgsl
var voxelizationSource string

//go:embed assets/voxel_debug.wgsl
var voxelDebugSource string

// Workgroup sizes of the compute stages. They must match the @workgroup_size attributes.
const (
	clearWorkgroupSize      = 4
	projectionWorkgroupSize = 64
)

// TargetFormat is the format of the color attachment the voxelization stage renders into.
// Nothing is written to it; it only sets the raster size.
const TargetFormat = wgpu.TextureFormatR8Unorm

func shaderIncludes() []shader.ShaderBuilderOption {
	return []shader.ShaderBuilderOption{
		shader.WithInclude("VertexPod", scene.VertexPodSource),
		shader.WithInclude("MaterialPod", scene.MaterialPodSource),
		shader.WithInclude("ProjectedVertex", ProjectedVertexSource),
		shader.WithInclude("MeshParams", MeshParamsSource),
		shader.WithInclude("VoxelViewUniform", VoxelViewUniformSource),
		shader.WithInclude("GridUniform", GridUniformSource),
		shader.WithInclude("DebugViewUniform", DebugViewUniformSource),
	}
}

// newClearPipeline describes the stage that zeroes both voxel textures.
func newClearPipeline() (pipeline.Pipeline, error) {
	s, err := shader.NewShader("voxel_clear", voxelClearSource, shaderIncludes()...)
	if err != nil {
		return nil, err
	}
	p := pipeline.NewPipeline("voxel_clear", pipeline.PipelineTypeCompute,
		pipeline.WithShader(s),
		pipeline.WithBindGroupLayouts(ClearLayout()),
	)
	return p, p.Validate()
}

// newProjectionPipeline describes the stage that projects every triangle along its dominant axis.
func newProjectionPipeline() (pipeline.Pipeline, error) {
	s, err := shader.NewShader("voxel_axis_projection", voxelAxisProjectionSource, shaderIncludes()...)
	if err != nil {
		return nil, err
	}
	p := pipeline.NewPipeline("voxel_axis_projection", pipeline.PipelineTypeCompute,
		pipeline.WithShader(s),
		pipeline.WithBindGroupLayouts(ProjectionGlobalLayout(), ProjectionMeshLayout()),
	)
	return p, p.Validate()
}

// newRasterPipeline describes the stage that rasterizes projected triangles into the voxel
// textures. Color writes are off; the fragment stage only writes storage textures.
func newRasterPipeline() (pipeline.Pipeline, error) {
	s, err := shader.NewShader("voxelization", voxelizationSource, shaderIncludes()...)
	if err != nil {
		return nil, err
	}
	p := pipeline.NewPipeline("voxelization", pipeline.PipelineTypeRender,
		pipeline.WithShader(s),
		pipeline.WithBindGroupLayouts(RasterGlobalLayout(), RasterMeshLayout()),
		pipeline.WithVertexBuffers(ProjectedVertexLayout()),
		pipeline.WithColorFormat(TargetFormat),
		pipeline.WithWriteMask(wgpu.ColorWriteMask(0)),
		pipeline.WithCullMode(wgpu.CullModeNone),
	)
	return p, p.Validate()
}

// newDebugPipeline describes the fullscreen ray marcher that draws the albedo texture.
func newDebugPipeline(colorFormat wgpu.TextureFormat) (pipeline.Pipeline, error) {
	s, err := shader.NewShader("voxel_debug", voxelDebugSource, shaderIncludes()...)
	if err != nil {
		return nil, err
	}
	p := pipeline.NewPipeline("voxel_debug", pipeline.PipelineTypeRender,
		pipeline.WithShader(s),
		pipeline.WithBindGroupLayouts(DebugViewLayout(), DebugTextureLayout()),
		pipeline.WithColorFormat(colorFormat),
	)
	return p, p.Validate()
}
