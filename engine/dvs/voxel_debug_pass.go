package dvs

import (
	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/pass"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// debugClearColor is the back buffer color where no voxel is hit.
var debugClearColor = wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0}

// VoxelDebugPass draws the albedo voxel texture by ray marching the grid from the camera. It
// reads the texture from the Black Board; while the texture is absent it only clears the back
// buffer.
type VoxelDebugPass interface {
	pass.RenderPass

	// Release frees every GPU object the pass created.
	Release()
}

// textureTracker remembers which Black Board texture a bind group was built for.
type textureTracker struct {
	bound *texture.Texture
}

// changed reports whether tex differs from the texture the bind group was built for.
func (t *textureTracker) changed(tex *texture.Texture) bool {
	return tex != t.bound
}

type voxelDebugPass struct {
	grid Grid
	view DebugViewUniform

	pipeline     pipeline.Pipeline
	viewGroup    bind_group_provider.BindGroupProvider
	textureGroup bind_group_provider.BindGroupProvider
	tracker      textureTracker
}

var _ VoxelDebugPass = &voxelDebugPass{}

// NewVoxelDebugPass builds the debug pipeline for a grid.
//
// Parameters:
//   - dc: the device context
//   - grid: the grid the voxel textures cover
//   - colorFormat: the back buffer format
//
// Returns:
//   - VoxelDebugPass: the pass
//   - error: a layout validation or GPU creation error
func NewVoxelDebugPass(dc renderer.DeviceContext, grid Grid, colorFormat wgpu.TextureFormat) (VoxelDebugPass, error) {
	dp := &voxelDebugPass{grid: grid}

	var err error
	if dp.pipeline, err = newDebugPipeline(colorFormat); err != nil {
		return nil, err
	}
	if err := dc.RegisterRenderPipeline(dp.pipeline); err != nil {
		dp.Release()
		return nil, err
	}

	dp.viewGroup = bind_group_provider.NewBindGroupProvider("voxel debug view",
		bind_group_provider.WithBindGroupLayout(dp.pipeline.BindGroupLayout(0)),
	)
	if err := dc.InitBindGroup(dp.viewGroup, DebugViewLayout(), nil); err != nil {
		dp.Release()
		return nil, err
	}

	gridUniform := grid.Uniform()
	dc.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: dp.viewGroup, Binding: 1, Data: gridUniform.Marshal()},
	})
	return dp, nil
}

func (dp *voxelDebugPass) OnResized(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext) {}

func (dp *voxelDebugPass) ProcessEvent(ev window.Event) {}

func (dp *voxelDebugPass) UpdateRender(dc renderer.DeviceContext, rc *pass.RenderContext, bb *pass.BlackBoard) {
	dp.view = DebugViewUniform{
		InvViewProj: rc.InvViewProj,
		Eye:         rc.Eye.Vec4(1),
	}
	dc.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: dp.viewGroup, Binding: 0, Data: dp.view.Marshal()},
	})

	albedo, _ := bb.Get(AlbedoTextureName)
	if !dp.tracker.changed(albedo) {
		return
	}
	dp.rebuildTextureGroup(dc, albedo)
}

// rebuildTextureGroup replaces the texture bind group. A nil texture leaves the pass without one.
func (dp *voxelDebugPass) rebuildTextureGroup(dc renderer.DeviceContext, albedo *texture.Texture) {
	if dp.textureGroup != nil {
		dp.textureGroup.Release()
		dp.textureGroup = nil
	}
	dp.tracker.bound = albedo
	if albedo == nil {
		return
	}

	group := bind_group_provider.NewBindGroupProvider("voxel debug texture",
		bind_group_provider.WithBindGroupLayout(dp.pipeline.BindGroupLayout(1)),
		bind_group_provider.WithTextureView(0, albedo.View(0)),
	)
	if err := dc.InitBindGroup(group, DebugTextureLayout(), nil); err != nil {
		common.Logger().Error("failed to bind voxel texture", "texture", albedo.Label(), "error", err)
		group.Release()
		return
	}
	dp.textureGroup = group
	common.Logger().Debug("voxel debug texture bound", "texture", albedo.Label())
}

func (dp *voxelDebugPass) Render(backBuffer *wgpu.TextureView, encoder *wgpu.CommandEncoder, dc renderer.DeviceContext, rc *pass.RenderContext, bb *pass.BlackBoard) {
	rpass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "voxel debug",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       backBuffer,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: debugClearColor,
			},
		},
	})
	if dp.textureGroup != nil {
		rpass.SetPipeline(dp.pipeline.Pipeline().(*wgpu.RenderPipeline))
		rpass.SetBindGroup(0, dp.viewGroup.BindGroup(), nil)
		rpass.SetBindGroup(1, dp.textureGroup.BindGroup(), nil)
		rpass.Draw(3, 1, 0, 0)
	}
	rpass.End()
	rpass.Release()
}

func (dp *voxelDebugPass) Release() {
	if dp.textureGroup != nil {
		dp.textureGroup.Release()
		dp.textureGroup = nil
	}
	if dp.viewGroup != nil {
		dp.viewGroup.Release()
		dp.viewGroup = nil
	}
	if dp.pipeline != nil {
		dp.pipeline.Release()
		dp.pipeline = nil
	}
	dp.tracker.bound = nil
}
