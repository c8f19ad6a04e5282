package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies a shader stage.
type ShaderType int

const (
	// ShaderTypeCompute is a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is a @vertex entry point.
	ShaderTypeVertex

	// ShaderTypeFragment is a @fragment entry point.
	ShaderTypeFragment
)

// ErrNoEntryPoint is returned when a shader source declares no entry point.
var ErrNoEntryPoint = errors.New("shader has no entry point")

type shader struct {
	key    string
	source string

	entryPoints                map[ShaderType]string
	visibility                 wgpu.ShaderStage
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	structLayouts              map[string]TypeLayout
	vertexLayouts              []wgpu.VertexBufferLayout
	workGroupSize              [3]uint32
	module                     *wgpu.ShaderModuleDescriptor

	pp PreProcessor
}

// Shader is a pre-processed WGSL module together with the layout information reflected from it.
// One module may hold several entry points, for example a vertex and a fragment stage.
type Shader interface {
	// Key retrieves the unique identifier for this shader, also used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL source after include expansion.
	//
	// Returns:
	//   - string: the expanded WGSL source
	Source() string

	// Module returns the descriptor used to create the GPU shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor holding the expanded source and label
	Module() *wgpu.ShaderModuleDescriptor

	// EntryPoint returns the entry point name for a stage.
	//
	// Parameters:
	//   - stage: the stage to look up
	//
	// Returns:
	//   - string: the function name, or "" if the module has no entry point for the stage
	EntryPoint(stage ShaderType) string

	// Visibility returns the union of the stages the module declares.
	//
	// Returns:
	//   - wgpu.ShaderStage: the stage flags
	Visibility() wgpu.ShaderStage

	// WorkgroupSize returns the @workgroup_size of the compute entry point.
	// Returns [0, 0, 0] for modules without a compute stage.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// BindGroupLayoutDescriptor retrieves the reflected layout for one group.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the reflected layout, or an empty descriptor if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves every reflected layout keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: the layouts
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or "" if nothing is declared there
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index of a named variable.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayouts retrieves the vertex buffer layouts reflected from vertex input structs.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts in source order
	VertexLayouts() []wgpu.VertexBufferLayout

	// StructLayout retrieves the host-shareable size and alignment of a struct declared in the module.
	//
	// Parameters:
	//   - name: the struct name
	//
	// Returns:
	//   - TypeLayout: the size and alignment
	//   - bool: true if the struct exists and every member resolved
	StructLayout(name string) (TypeLayout, bool)
}

var _ Shader = &shader{}

// NewShader expands includes in source and reflects its entry points and layouts.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - source: the WGSL source, usually an embedded asset
//   - options: functional options such as WithInclude
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if an include is unknown or the module has no entry point
func NewShader(key, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key: key,
		pp:  NewPreProcessor(),
	}
	for _, opt := range options {
		opt(s)
	}

	expanded, err := s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	if err := s.reflect(expanded); err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) EntryPoint(stage ShaderType) string {
	return s.entryPoints[stage]
}

func (s *shader) Visibility() wgpu.ShaderStage {
	return s.visibility
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) StructLayout(name string) (TypeLayout, bool) {
	l, ok := s.structLayouts[name]
	return l, ok
}

// reflect stores the expanded source and fills every reflected field from it.
func (s *shader) reflect(source string) error {
	s.source = source
	cleaned := stripComments(source)

	s.entryPoints = parseEntryPoints(cleaned)
	if len(s.entryPoints) == 0 {
		return ErrNoEntryPoint
	}
	for stage := range s.entryPoints {
		switch stage {
		case ShaderTypeVertex:
			s.visibility |= wgpu.ShaderStageVertex
		case ShaderTypeFragment:
			s.visibility |= wgpu.ShaderStageFragment
		case ShaderTypeCompute:
			s.visibility |= wgpu.ShaderStageCompute
		}
	}
	if _, ok := s.entryPoints[ShaderTypeCompute]; ok {
		s.workGroupSize = parseWorkgroupSize(cleaned)
	}

	structs := parseStructBlocks(cleaned)
	s.structLayouts = computeStructSizes(structs)
	s.bindGroupLayoutDescriptors, s.bindingVarNames = buildBindGroupLayouts(parseBindings(cleaned), s.structLayouts, s.visibility)
	if _, ok := s.entryPoints[ShaderTypeVertex]; ok {
		s.vertexLayouts = parseVertexLayouts(structs)
	}

	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	return nil
}
