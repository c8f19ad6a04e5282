package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

var (
	// ErrNoShader is returned by Validate when no shader was attached.
	ErrNoShader = errors.New("pipeline has no shader")
	// ErrMissingEntryPoint is returned by Validate when the shader lacks a stage the pipeline type needs.
	ErrMissingEntryPoint = errors.New("shader is missing a required entry point")
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string

	// shader is a single module holding every entry point the pipeline uses.
	shader shader.Shader

	// bindGroupLayouts are declared by the host, indexed by @group. They are validated
	// against the shader before any GPU object is created.
	bindGroupLayouts []wgpu.BindGroupLayoutDescriptor
	// gpuLayouts holds the created layouts once the pipeline is registered.
	gpuLayouts []*wgpu.BindGroupLayout

	vertexBuffers []wgpu.VertexBufferLayout

	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	// The following are only used for render pipelines.

	colorFormat       wgpu.TextureFormat
	depthFormat       wgpu.TextureFormat
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline defines the interface for a GPU pipeline, encapsulating either a render pipeline
// (vertex + fragment entry points) or a compute pipeline (compute entry point). It holds the
// host-declared bind group layouts and all state required for pipeline creation.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for labels and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the shader module the pipeline is built from.
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if not set
	Shader() shader.Shader

	// BindGroupLayouts returns the host-declared bind group layout descriptors, indexed by group.
	//
	// Returns:
	//   - []wgpu.BindGroupLayoutDescriptor: the layout descriptors in group order
	BindGroupLayouts() []wgpu.BindGroupLayoutDescriptor

	// BindGroupLayout returns the created GPU layout for a group. It is nil until the pipeline is registered.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the created layout, or nil
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// SetBindGroupLayouts stores the GPU layouts created from BindGroupLayouts.
	//
	// Parameters:
	//   - layouts: the created layouts in group order
	SetBindGroupLayouts(layouts []*wgpu.BindGroupLayout)

	// VertexBuffers returns the vertex buffer layouts bound to a render pipeline.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts, empty for pipelines that pull vertices themselves
	VertexBuffers() []wgpu.VertexBufferLayout

	// Validate checks the pipeline against its shader: the required entry points must exist,
	// every host layout must match the reflected layout of its group, and the shader must not
	// use a group the host did not declare.
	//
	// Returns:
	//   - error: the first problem found, or nil
	Validate() error

	// Pipeline returns the underlying pipeline object, either *wgpu.RenderPipeline or *wgpu.ComputePipeline
	// Note: The caller is responsible for type asserting the returned value as either pipeline type.
	//
	// Returns:
	//   - any: the underlying pipeline object.
	Pipeline() any

	// ColorFormat returns the format of the single color target of a render pipeline.
	//
	// Returns:
	//   - wgpu.TextureFormat: the color target format
	ColorFormat() wgpu.TextureFormat

	// DepthFormat returns the depth attachment format, or wgpu.TextureFormatUndefined when the
	// pipeline has no depth attachment.
	//
	// Returns:
	//   - wgpu.TextureFormat: the depth format
	DepthFormat() wgpu.TextureFormat

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison function.
	//
	// Returns:
	//   - wgpu.CompareFunction: the depth comparison function
	DepthCompare() wgpu.CompareFunction

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack)
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline (e.g., wgpu.PrimitiveTopologyTriangleList)
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline (e.g., wgpu.FrontFaceCCW, wgpu.FrontFaceCW)
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline (e.g., wgpu.ColorWriteMaskAll)
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state for this pipeline, or nil if blending is not enabled
	BlendState() *wgpu.BlendState

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// SetComputePipeline sets the compute pipeline
	//
	// Parameters:
	//   - p: the WebGPU compute pipeline to set
	SetComputePipeline(p *wgpu.ComputePipeline)

	// Release frees the GPU pipeline and its bind group layouts.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface. A PipelineType must be specified and provided upon creation.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		pipelineType: pipelineType,
		colorFormat:  wgpu.TextureFormatBGRA8Unorm,
		depthFormat:  wgpu.TextureFormatUndefined,
		depthCompare: wgpu.CompareFunctionLess,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) BindGroupLayouts() []wgpu.BindGroupLayoutDescriptor {
	return p.bindGroupLayouts
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.gpuLayouts) {
		return nil
	}
	return p.gpuLayouts[group]
}

func (p *pipeline) SetBindGroupLayouts(layouts []*wgpu.BindGroupLayout) {
	p.gpuLayouts = layouts
}

func (p *pipeline) VertexBuffers() []wgpu.VertexBufferLayout {
	return p.vertexBuffers
}

func (p *pipeline) Validate() error {
	if p.shader == nil {
		return fmt.Errorf("pipeline %s: %w", p.pipelineKey, ErrNoShader)
	}

	switch p.pipelineType {
	case PipelineTypeCompute:
		if p.shader.EntryPoint(shader.ShaderTypeCompute) == "" {
			return fmt.Errorf("pipeline %s: %w: compute", p.pipelineKey, ErrMissingEntryPoint)
		}
	case PipelineTypeRender:
		if p.shader.EntryPoint(shader.ShaderTypeVertex) == "" {
			return fmt.Errorf("pipeline %s: %w: vertex", p.pipelineKey, ErrMissingEntryPoint)
		}
		if p.shader.EntryPoint(shader.ShaderTypeFragment) == "" {
			return fmt.Errorf("pipeline %s: %w: fragment", p.pipelineKey, ErrMissingEntryPoint)
		}
	}

	for group, desc := range p.bindGroupLayouts {
		if err := shader.ValidateLayout(desc, p.shader, group); err != nil {
			return fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
		}
	}
	for group := range p.shader.BindGroupLayoutDescriptors() {
		if group >= len(p.bindGroupLayouts) {
			return fmt.Errorf("pipeline %s: %w: shader uses group %d but the host declares %d groups",
				p.pipelineKey, shader.ErrLayoutMismatch, group, len(p.bindGroupLayouts))
		}
	}

	for i, vb := range p.vertexBuffers {
		reflected := p.shader.VertexLayouts()
		if i >= len(reflected) {
			break
		}
		if reflected[i].ArrayStride != vb.ArrayStride {
			return fmt.Errorf("pipeline %s: %w: vertex buffer %d stride %d, shader input wants %d",
				p.pipelineKey, shader.ErrLayoutMismatch, i, vb.ArrayStride, reflected[i].ArrayStride)
		}
	}
	return nil
}

func (p *pipeline) Pipeline() any {
	switch p.pipelineType {
	case PipelineTypeRender:
		return p.renderPipeline
	case PipelineTypeCompute:
		return p.computePipeline
	default:
		return nil
	}
}

func (p *pipeline) ColorFormat() wgpu.TextureFormat {
	return p.colorFormat
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.computePipeline = cp
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	for _, l := range p.gpuLayouts {
		if l != nil {
			l.Release()
		}
	}
	p.gpuLayouts = nil
}
