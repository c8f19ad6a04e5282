package dvs

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/pass"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrInvalidAxisHint is returned for an axis hint other than AxisAuto, 0, 1 or 2.
var ErrInvalidAxisHint = errors.New("invalid axis hint")

// VoxelizationPass turns the scene's triangles into two 3D textures every frame: material
// albedo and encoded surface normal. A frame runs three stages in one encoder: the voxel
// textures are cleared, a compute stage projects every triangle along its dominant axis, and
// a raster stage writes each covered voxel from the fragment shader.
type VoxelizationPass interface {
	pass.RenderPass

	// Grid returns the voxel grid, fixed at construction.
	//
	// Returns:
	//   - Grid: the grid
	Grid() Grid

	// Albedo returns the albedo voxel texture, also published to the Black Board as
	// AlbedoTextureName.
	//
	// Returns:
	//   - *texture.Texture: the albedo texture
	Albedo() *texture.Texture

	// Normal returns the normal voxel texture, also published to the Black Board as
	// NormalTextureName.
	//
	// Returns:
	//   - *texture.Texture: the normal texture
	Normal() *texture.Texture

	// Release frees every GPU object the pass created. Scene object buffers are not released.
	Release()
}

// meshBindings holds the per-mesh state of both stages.
type meshBindings struct {
	name       string
	triangles  uint32
	projection bind_group_provider.BindGroupProvider
	raster     bind_group_provider.BindGroupProvider
}

type voxelizationPass struct {
	resolution uint32
	padding    float32
	axisHint   uint32

	grid Grid
	view VoxelViewUniform

	clearPipeline      pipeline.Pipeline
	projectionPipeline pipeline.Pipeline
	rasterPipeline     pipeline.Pipeline

	viewBuffer *wgpu.Buffer
	gridBuffer *wgpu.Buffer

	clearGroup      bind_group_provider.BindGroupProvider
	projectionGroup bind_group_provider.BindGroupProvider
	rasterGroup     bind_group_provider.BindGroupProvider
	meshes          []meshBindings

	albedo *texture.Texture
	normal *texture.Texture
	target *texture.Texture
}

var _ VoxelizationPass = &voxelizationPass{}

// NewVoxelizationPass builds the pipelines, voxel textures and bind groups for a set of scene
// objects. The grid encloses the union of the objects' bounds.
//
// Parameters:
//   - dc: the device context
//   - objects: the scene objects to voxelize every frame
//   - options: functional options to configure the pass
//
// Returns:
//   - VoxelizationPass: the pass
//   - error: a layout validation or GPU creation error
func NewVoxelizationPass(dc renderer.DeviceContext, objects []scene.SceneObject, options ...VoxelizationPassBuilderOption) (VoxelizationPass, error) {
	vp := &voxelizationPass{
		resolution: 128,
		padding:    0.05,
		axisHint:   AxisAuto,
	}
	for _, opt := range options {
		opt(vp)
	}

	if !validAxisHint(vp.axisHint) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAxisHint, vp.axisHint)
	}
	if maxDim := dc.Limits().MaxTextureDimension3D; maxDim != 0 && vp.resolution > maxDim {
		return nil, fmt.Errorf("voxel resolution %d exceeds the device 3D texture limit %d", vp.resolution, maxDim)
	}

	vp.grid = FitGrid(scene.SceneBounds(objects), vp.resolution, vp.padding)
	vp.view.AxisViewProj = vp.grid.AxisViewProjections()

	if err := vp.build(dc, objects); err != nil {
		vp.Release()
		return nil, err
	}

	common.Logger().Info("voxelization pass ready",
		"resolution", vp.grid.Resolution,
		"extent", vp.grid.Extent,
		"min", vp.grid.Min,
		"meshes", len(vp.meshes),
	)
	return vp, nil
}

func validAxisHint(hint uint32) bool {
	return hint == AxisAuto || hint <= 2
}

func (vp *voxelizationPass) build(dc renderer.DeviceContext, objects []scene.SceneObject) error {
	var err error
	if vp.clearPipeline, err = newClearPipeline(); err != nil {
		return err
	}
	if vp.projectionPipeline, err = newProjectionPipeline(); err != nil {
		return err
	}
	if vp.rasterPipeline, err = newRasterPipeline(); err != nil {
		return err
	}
	if err := dc.RegisterComputePipeline(vp.clearPipeline); err != nil {
		return err
	}
	if err := dc.RegisterComputePipeline(vp.projectionPipeline); err != nil {
		return err
	}
	if err := dc.RegisterRenderPipeline(vp.rasterPipeline); err != nil {
		return err
	}

	if err := vp.createTextures(dc); err != nil {
		return err
	}

	gridUniform := vp.grid.Uniform()
	if vp.viewBuffer, err = dc.CreateBufferInit("voxel view", wgpu.BufferUsageUniform, vp.view.Marshal()); err != nil {
		return err
	}
	if vp.gridBuffer, err = dc.CreateBufferInit("voxel grid", wgpu.BufferUsageUniform, gridUniform.Marshal()); err != nil {
		return err
	}

	vp.clearGroup = bind_group_provider.NewBindGroupProvider("voxel clear",
		bind_group_provider.WithBindGroupLayout(vp.clearPipeline.BindGroupLayout(0)),
		bind_group_provider.WithTextureView(0, vp.albedo.View(0)),
		bind_group_provider.WithTextureView(1, vp.normal.View(0)),
	)
	if err := dc.InitBindGroup(vp.clearGroup, ClearLayout(), nil); err != nil {
		return err
	}

	vp.projectionGroup = bind_group_provider.NewBindGroupProvider("voxel projection global",
		bind_group_provider.WithBindGroupLayout(vp.projectionPipeline.BindGroupLayout(0)),
		bind_group_provider.WithBuffer(0, vp.viewBuffer),
		bind_group_provider.WithBuffer(1, vp.gridBuffer),
	)
	if err := dc.InitBindGroup(vp.projectionGroup, ProjectionGlobalLayout(), nil); err != nil {
		return err
	}

	vp.rasterGroup = bind_group_provider.NewBindGroupProvider("voxelization global",
		bind_group_provider.WithBindGroupLayout(vp.rasterPipeline.BindGroupLayout(0)),
		bind_group_provider.WithBuffer(0, vp.viewBuffer),
		bind_group_provider.WithBuffer(1, vp.gridBuffer),
		bind_group_provider.WithTextureView(2, vp.albedo.View(0)),
		bind_group_provider.WithTextureView(3, vp.normal.View(0)),
	)
	if err := dc.InitBindGroup(vp.rasterGroup, RasterGlobalLayout(), nil); err != nil {
		return err
	}

	for i := range objects {
		mb, err := vp.bindMesh(dc, i, &objects[i])
		if err != nil {
			return err
		}
		vp.meshes = append(vp.meshes, mb)
	}
	return nil
}

func (vp *voxelizationPass) createTextures(dc renderer.DeviceContext) error {
	res := vp.grid.Resolution
	volume := func(label string) wgpu.TextureDescriptor {
		return wgpu.TextureDescriptor{
			Label:         label,
			Size:          wgpu.Extent3D{Width: res, Height: res, DepthOrArrayLayers: res},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension3D,
			Format:        VoxelFormat,
			Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
		}
	}

	var err error
	if vp.albedo, err = texture.NewTexture(dc.Device(), volume(AlbedoTextureName)); err != nil {
		return err
	}
	if vp.normal, err = texture.NewTexture(dc.Device(), volume(NormalTextureName)); err != nil {
		return err
	}
	vp.target, err = texture.NewTexture(dc.Device(), wgpu.TextureDescriptor{
		Label:         "voxelization target",
		Size:          wgpu.Extent3D{Width: res, Height: res, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        TargetFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	return err
}

// bindMesh creates the projected vertex buffer, the axis buffer and the parameter block of one
// mesh. Meshes without triangles still get one-record buffers so their bind groups are valid.
func (vp *voxelizationPass) bindMesh(dc renderer.DeviceContext, index int, obj *scene.SceneObject) (meshBindings, error) {
	mb := meshBindings{
		name:      obj.Name,
		triangles: uint32(obj.TriangleCount()),
	}
	records := max(mb.triangles, 1)

	var projected ProjectedVertex
	projectedBuf, err := dc.Device().CreateBuffer(&wgpu.BufferDescriptor{
		Label: obj.Name + " projected",
		Size:  renderer.PaddedBufferSize(int(3 * records * uint32(projected.Size()))),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageVertex,
	})
	if err != nil {
		return mb, fmt.Errorf("mesh %q: failed to create projected buffer: %w", obj.Name, err)
	}

	params := MeshParams{
		TriangleCount: mb.triangles,
		VertexCount:   uint32(obj.VertexCount),
		MeshIndex:     uint32(index),
		AxisHint:      vp.axisHint,
	}
	paramsBuf, err := dc.CreateBufferInit(obj.Name+" mesh params", wgpu.BufferUsageUniform, params.Marshal())
	if err != nil {
		projectedBuf.Release()
		return mb, err
	}

	mb.projection = bind_group_provider.NewBindGroupProvider(obj.Name+" projection",
		bind_group_provider.WithBindGroupLayout(vp.projectionPipeline.BindGroupLayout(1)),
		bind_group_provider.WithBuffer(0, obj.VertexBuffer),
		bind_group_provider.WithBuffer(1, obj.IndexBuffer),
	)
	mb.projection.SetOwnedBuffer(2, projectedBuf)
	mb.projection.SetOwnedBuffer(4, paramsBuf)
	if err := dc.InitBindGroup(mb.projection, ProjectionMeshLayout(), map[int]uint64{3: uint64(records) * 4}); err != nil {
		mb.projection.Release()
		return mb, err
	}

	mb.raster = bind_group_provider.NewBindGroupProvider(obj.Name+" voxelization",
		bind_group_provider.WithBindGroupLayout(vp.rasterPipeline.BindGroupLayout(1)),
		bind_group_provider.WithBuffer(0, obj.MaterialBuffer),
	)
	if err := dc.InitBindGroup(mb.raster, RasterMeshLayout(), nil); err != nil {
		mb.projection.Release()
		mb.raster.Release()
		return mb, err
	}
	return mb, nil
}

func (vp *voxelizationPass) Grid() Grid {
	return vp.grid
}

func (vp *voxelizationPass) Albedo() *texture.Texture {
	return vp.albedo
}

func (vp *voxelizationPass) Normal() *texture.Texture {
	return vp.normal
}

func (vp *voxelizationPass) OnResized(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext) {}

func (vp *voxelizationPass) ProcessEvent(ev window.Event) {}

func (vp *voxelizationPass) UpdateRender(dc renderer.DeviceContext, rc *pass.RenderContext, bb *pass.BlackBoard) {
	vp.view.ViewProj = rc.ViewProj
	dc.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: vp.projectionGroup, Binding: 0, Data: vp.view.Marshal()},
	})

	bb.Insert(AlbedoTextureName, vp.albedo)
	bb.Insert(NormalTextureName, vp.normal)
}

func (vp *voxelizationPass) Render(backBuffer *wgpu.TextureView, encoder *wgpu.CommandEncoder, dc renderer.DeviceContext, rc *pass.RenderContext, bb *pass.BlackBoard) {
	vp.recordClear(encoder)
	vp.recordProjection(encoder)
	vp.recordRaster(encoder)
}

func (vp *voxelizationPass) recordClear(encoder *wgpu.CommandEncoder) {
	groups := WorkgroupCount(vp.grid.Resolution, clearWorkgroupSize)

	cp := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "voxel clear"})
	cp.SetPipeline(vp.clearPipeline.Pipeline().(*wgpu.ComputePipeline))
	cp.SetBindGroup(0, vp.clearGroup.BindGroup(), nil)
	cp.DispatchWorkgroups(groups, groups, groups)
	cp.End()
	cp.Release()
}

func (vp *voxelizationPass) recordProjection(encoder *wgpu.CommandEncoder) {
	cp := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "voxel axis projection"})
	cp.SetPipeline(vp.projectionPipeline.Pipeline().(*wgpu.ComputePipeline))
	cp.SetBindGroup(0, vp.projectionGroup.BindGroup(), nil)
	for _, mb := range vp.meshes {
		cp.SetBindGroup(1, mb.projection.BindGroup(), nil)
		cp.DispatchWorkgroups(WorkgroupCount(mb.triangles, projectionWorkgroupSize), 1, 1)
	}
	cp.End()
	cp.Release()
}

func (vp *voxelizationPass) recordRaster(encoder *wgpu.CommandEncoder) {
	rp := vp.rasterPipeline.Pipeline().(*wgpu.RenderPipeline)
	for _, mb := range vp.meshes {
		rpass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: mb.name + " voxelization",
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:    vp.target.View(0),
					LoadOp:  wgpu.LoadOpClear,
					StoreOp: wgpu.StoreOpDiscard,
				},
			},
		})
		rpass.SetPipeline(rp)
		rpass.SetBindGroup(0, vp.rasterGroup.BindGroup(), nil)
		rpass.SetBindGroup(1, mb.raster.BindGroup(), nil)
		rpass.SetVertexBuffer(0, mb.projection.Buffer(2), 0, wgpu.WholeSize)
		if mb.triangles > 0 {
			rpass.Draw(3*mb.triangles, 1, 0, 0)
		}
		rpass.End()
		rpass.Release()
	}
}

func (vp *voxelizationPass) Release() {
	for _, mb := range vp.meshes {
		if mb.projection != nil {
			mb.projection.Release()
		}
		if mb.raster != nil {
			mb.raster.Release()
		}
	}
	vp.meshes = nil

	for _, g := range []bind_group_provider.BindGroupProvider{vp.clearGroup, vp.projectionGroup, vp.rasterGroup} {
		if g != nil {
			g.Release()
		}
	}
	vp.clearGroup, vp.projectionGroup, vp.rasterGroup = nil, nil, nil

	for _, buf := range []*wgpu.Buffer{vp.viewBuffer, vp.gridBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	vp.viewBuffer, vp.gridBuffer = nil, nil

	for _, tex := range []*texture.Texture{vp.albedo, vp.normal, vp.target} {
		if tex != nil {
			tex.Release()
		}
	}
	vp.albedo, vp.normal, vp.target = nil, nil, nil

	for _, p := range []pipeline.Pipeline{vp.clearPipeline, vp.projectionPipeline, vp.rasterPipeline} {
		if p != nil {
			p.Release()
		}
	}
	vp.clearPipeline, vp.projectionPipeline, vp.rasterPipeline = nil, nil, nil
}

