package dvs

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine"
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/pass"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrAlreadyInitialized is returned by a second Init call.
var ErrAlreadyInitialized = errors.New("render device already initialized")

// DeferredVoxelShading renders an OBJ scene by voxelizing it every frame and ray marching the
// voxel grid. It owns the camera, the Black Board and the ordered pass list.
type DeferredVoxelShading struct {
	objPath string

	resolution uint32
	padding    float32
	axisHint   uint32
	workers    int
	fovDeg     float32
	near       float32
	far        float32

	passes        []pass.RenderPass
	camera        camera.Camera
	controller    camera.CameraController
	blackBoard    *pass.BlackBoard
	renderContext pass.RenderContext

	objects      []scene.SceneObject
	voxelization VoxelizationPass
	debug        VoxelDebugPass
	initialized  bool
}

var _ engine.RenderDevice = &DeferredVoxelShading{}

// NewDeferredVoxelShading creates an uninitialized render device for an OBJ file. Nothing is
// loaded until Init.
//
// Parameters:
//   - objPath: the OBJ file to voxelize
//   - options: functional options to configure the grid, loader and camera
//
// Returns:
//   - *DeferredVoxelShading: the render device
func NewDeferredVoxelShading(objPath string, options ...DeferredVoxelShadingOption) *DeferredVoxelShading {
	cam := camera.DefaultCamera()
	ds := &DeferredVoxelShading{
		objPath:    objPath,
		resolution: 128,
		padding:    0.05,
		axisHint:   AxisAuto,
		workers:    4,
		fovDeg:     cam.FovDeg,
		near:       cam.Near,
		far:        cam.Far,
		camera:     cam,
		blackBoard: pass.NewBlackBoard(),
	}
	for _, opt := range options {
		opt(ds)
	}
	if ds.controller == nil {
		ds.controller = camera.NewCameraController()
	}
	return ds
}

func (ds *DeferredVoxelShading) Name() string {
	return "deferred voxel shading"
}

func (ds *DeferredVoxelShading) RequiredFeatures() []wgpu.FeatureName {
	return nil
}

func (ds *DeferredVoxelShading) RequiredLimits() wgpu.Limits {
	return wgpu.Limits{
		MaxBindGroups:                     4,
		MaxTextureDimension3D:             256,
		MaxStorageBuffersPerShaderStage:   4,
		MaxStorageTexturesPerShaderStage:  2,
		MaxComputeInvocationsPerWorkgroup: 64,
		MaxComputeWorkgroupSizeX:          64,
		MinUniformBufferOffsetAlignment:   256,
	}
}

func (ds *DeferredVoxelShading) Init(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext) error {
	if ds.initialized {
		return ErrAlreadyInitialized
	}

	objects, err := scene.LoadSceneObjects(dc, ds.objPath, scene.WithWorkers(ds.workers))
	if err != nil {
		return fmt.Errorf("failed to load scene: %w", err)
	}
	ds.objects = objects

	ds.voxelization, err = NewVoxelizationPass(dc, objects,
		WithResolution(ds.resolution),
		WithPadding(ds.padding),
		WithAxisHint(ds.axisHint),
	)
	if err != nil {
		ds.Release()
		return err
	}
	ds.debug, err = NewVoxelDebugPass(dc, ds.voxelization.Grid(), config.Format)
	if err != nil {
		ds.Release()
		return err
	}
	ds.passes = []pass.RenderPass{ds.voxelization, ds.debug}

	ds.camera = camera.NewCamera(
		camera.WithEye(0, 0, -3),
		camera.WithDir(0, 0, 1),
		camera.WithUp(0, 1, 0),
		camera.WithAspect(aspect(config)),
		camera.WithFov(ds.fovDeg),
		camera.WithPlanes(ds.near, ds.far),
	)
	ds.initialized = true
	return nil
}

func aspect(config *wgpu.SurfaceConfiguration) float32 {
	if config == nil || config.Height == 0 {
		return 1
	}
	return float32(config.Width) / float32(config.Height)
}

func (ds *DeferredVoxelShading) Resize(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext) {
	ds.camera.Aspect = aspect(config)
	for _, p := range ds.passes {
		p.OnResized(config, dc)
	}
}

func (ds *DeferredVoxelShading) ProcessEvent(ev window.Event) {
	ds.controller.ProcessEvent(ev)
	for _, p := range ds.passes {
		p.ProcessEvent(ev)
	}
}

func (ds *DeferredVoxelShading) UpdateRender(dc renderer.DeviceContext, dt float32) {
	ds.controller.UpdateCamera(&ds.camera)
	ds.renderContext.Snapshot(dt, ds.camera.BuildViewProjMatrix(), ds.camera.Eye)
	for _, p := range ds.passes {
		p.UpdateRender(dc, &ds.renderContext, ds.blackBoard)
	}
}

func (ds *DeferredVoxelShading) Render(backBuffer *wgpu.TextureView, dc renderer.DeviceContext) {
	encoder, err := dc.Device().CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "deferred voxel shading frame"})
	if err != nil {
		common.Logger().Error("failed to create frame encoder", "error", err)
		return
	}
	defer encoder.Release()

	for _, p := range ds.passes {
		p.Render(backBuffer, encoder, dc, &ds.renderContext, ds.blackBoard)
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		common.Logger().Error("failed to finish frame encoder", "error", err)
		return
	}
	dc.Queue().Submit(commandBuffer)
	commandBuffer.Release()
}

func (ds *DeferredVoxelShading) Release() {
	if ds.debug != nil {
		ds.debug.Release()
		ds.debug = nil
	}
	if ds.voxelization != nil {
		ds.voxelization.Release()
		ds.voxelization = nil
	}
	for i := range ds.objects {
		ds.objects[i].Release()
	}
	ds.objects = nil
	ds.passes = nil
}

// Camera returns a copy of the camera.
func (ds *DeferredVoxelShading) Camera() camera.Camera {
	return ds.camera
}

// RenderContext returns a copy of the current frame's context.
func (ds *DeferredVoxelShading) RenderContext() pass.RenderContext {
	return ds.renderContext
}

// BlackBoard returns the render device's Black Board.
func (ds *DeferredVoxelShading) BlackBoard() *pass.BlackBoard {
	return ds.blackBoard
}
