package pointcloud

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine"
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/point_cloud.wgsl
var pointCloudSource string

// ErrAlreadyInitialized is returned by a second Init.
var ErrAlreadyInitialized = errors.New("point cloud renderer already initialized")

var pointClearColor = wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0}

// PointCloudRenderer draws an E57 scan as a point list seen through a controllable camera.
type PointCloudRenderer struct {
	path    string
	workers int

	fovDeg float32
	near   float32
	far    float32

	camera     camera.Camera
	controller camera.CameraController

	cloud        *PointCloud
	pipeline     pipeline.Pipeline
	cameraGroup  bind_group_provider.BindGroupProvider
	vertexBuffer *wgpu.Buffer
	uniform      camera.GPUCameraUniform

	initialized bool
}

var _ engine.RenderDevice = &PointCloudRenderer{}

// NewPointCloudRenderer creates an uninitialized renderer for an E57 file.
//
// Parameters:
//   - path: the E57 file
//   - options: functional options to configure the renderer
//
// Returns:
//   - *PointCloudRenderer: the renderer
func NewPointCloudRenderer(path string, options ...PointCloudRendererOption) *PointCloudRenderer {
	cam := camera.DefaultCamera()
	r := &PointCloudRenderer{
		path:    path,
		workers: 4,
		fovDeg:  cam.FovDeg,
		near:    cam.Near,
		far:     cam.Far,
		camera:  cam,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.controller == nil {
		r.controller = camera.NewCameraController()
	}
	return r
}

func newPointPipeline(colorFormat wgpu.TextureFormat) (pipeline.Pipeline, error) {
	s, err := shader.NewShader("point_cloud", pointCloudSource,
		shader.WithInclude("CameraUniform", camera.GPUCameraUniformSource),
	)
	if err != nil {
		return nil, err
	}
	p := pipeline.NewPipeline("point_cloud", pipeline.PipelineTypeRender,
		pipeline.WithShader(s),
		pipeline.WithBindGroupLayouts(CameraLayout()),
		pipeline.WithVertexBuffers(PointVertexLayout()),
		pipeline.WithColorFormat(colorFormat),
		pipeline.WithTopology(wgpu.PrimitiveTopologyPointList),
		pipeline.WithCullMode(wgpu.CullModeNone),
	)
	return p, p.Validate()
}

// CameraLayout is the bind group layout holding the camera uniform.
func CameraLayout() wgpu.BindGroupLayoutDescriptor {
	var u camera.GPUCameraUniform
	return wgpu.BindGroupLayoutDescriptor{
		Label: "point cloud camera",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(u.Size()),
				},
			},
		},
	}
}

// FrameCamera places a camera on the -z side of the bounds, looking along +z, far enough back
// that the bounding sphere of the box fits the vertical field of view. Empty bounds give the
// camera at (0, 0, -3).
//
// Parameters:
//   - bounds: the region to frame
//   - aspect: the viewport aspect ratio
//   - fovDeg: the vertical field of view in degrees
//   - near, far: the clip planes; far is pushed out to contain the bounds
//
// Returns:
//   - camera.Camera: the framed camera
func FrameCamera(bounds scene.Bounds, aspect, fovDeg, near, far float32) camera.Camera {
	eye := mgl32.Vec3{0, 0, -3}
	if !bounds.IsEmpty() {
		radius := max(bounds.Size().Len()/2, 1e-3)
		dist := radius / math32.Sin(mgl32.DegToRad(fovDeg)/2)
		eye = bounds.Center().Sub(mgl32.Vec3{0, 0, dist})
		far = max(far, dist+2*radius)
	}
	return camera.NewCamera(
		camera.WithEye(eye.X(), eye.Y(), eye.Z()),
		camera.WithDir(0, 0, 1),
		camera.WithUp(0, 1, 0),
		camera.WithAspect(aspect),
		camera.WithFov(fovDeg),
		camera.WithPlanes(near, far),
	)
}

func (r *PointCloudRenderer) Name() string {
	return "point cloud"
}

func (r *PointCloudRenderer) RequiredFeatures() []wgpu.FeatureName {
	return nil
}

func (r *PointCloudRenderer) RequiredLimits() wgpu.Limits {
	return wgpu.Limits{
		MaxTextureDimension2D:           2048,
		MaxBindGroups:                   1,
		MaxUniformBuffersPerShaderStage: 1,
		MinUniformBufferOffsetAlignment: 256,
	}
}

func (r *PointCloudRenderer) Init(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext) error {
	if r.initialized {
		return ErrAlreadyInitialized
	}

	r.cloud = NewPointCloud(r.path, r.workers)

	var err error
	if r.pipeline, err = newPointPipeline(config.Format); err != nil {
		return err
	}
	if err := dc.RegisterRenderPipeline(r.pipeline); err != nil {
		r.Release()
		return err
	}

	r.cameraGroup = bind_group_provider.NewBindGroupProvider("point cloud camera",
		bind_group_provider.WithBindGroupLayout(r.pipeline.BindGroupLayout(0)),
	)
	if err := dc.InitBindGroup(r.cameraGroup, CameraLayout(), nil); err != nil {
		r.Release()
		return err
	}

	r.vertexBuffer, err = dc.CreateBufferInit("point cloud vertices", wgpu.BufferUsageVertex, r.cloud.Pack())
	if err != nil {
		r.Release()
		return fmt.Errorf("failed to upload points: %w", err)
	}

	r.camera = FrameCamera(r.cloud.Bounds, aspectOf(config), r.fovDeg, r.near, r.far)
	r.initialized = true
	common.Logger().Info("point cloud renderer ready", "points", r.cloud.Len())
	return nil
}

func aspectOf(config *wgpu.SurfaceConfiguration) float32 {
	if config == nil || config.Height == 0 {
		return 1
	}
	return float32(config.Width) / float32(config.Height)
}

func (r *PointCloudRenderer) Resize(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext) {
	r.camera.Aspect = aspectOf(config)
}

func (r *PointCloudRenderer) ProcessEvent(ev window.Event) {
	r.controller.ProcessEvent(ev)
}

func (r *PointCloudRenderer) UpdateRender(dc renderer.DeviceContext, dt float32) {
	r.controller.UpdateCamera(&r.camera)
	r.uniform = r.camera.Uniform()
	if r.cameraGroup == nil {
		return
	}
	dc.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: r.cameraGroup, Binding: 0, Data: r.uniform.Marshal()},
	})
}

func (r *PointCloudRenderer) Render(backBuffer *wgpu.TextureView, dc renderer.DeviceContext) {
	encoder, err := dc.Device().CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "point cloud frame"})
	if err != nil {
		common.Logger().Error("failed to create frame encoder", "error", err)
		return
	}
	defer encoder.Release()

	rpass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "point cloud",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       backBuffer,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: pointClearColor,
			},
		},
	})
	if r.cloud != nil && r.cloud.Len() > 0 {
		rpass.SetPipeline(r.pipeline.Pipeline().(*wgpu.RenderPipeline))
		rpass.SetBindGroup(0, r.cameraGroup.BindGroup(), nil)
		rpass.SetVertexBuffer(0, r.vertexBuffer, 0, wgpu.WholeSize)
		rpass.Draw(uint32(r.cloud.Len()), 1, 0, 0)
	}
	rpass.End()
	rpass.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		common.Logger().Error("failed to finish frame encoder", "error", err)
		return
	}
	dc.Queue().Submit(commandBuffer)
	commandBuffer.Release()
}

func (r *PointCloudRenderer) Release() {
	if r.vertexBuffer != nil {
		r.vertexBuffer.Release()
		r.vertexBuffer = nil
	}
	if r.cameraGroup != nil {
		r.cameraGroup.Release()
		r.cameraGroup = nil
	}
	if r.pipeline != nil {
		r.pipeline.Release()
		r.pipeline = nil
	}
}

// Camera returns a copy of the camera.
func (r *PointCloudRenderer) Camera() camera.Camera {
	return r.camera
}

// Cloud returns the loaded point cloud, or nil before Init.
func (r *PointCloudRenderer) Cloud() *PointCloud {
	return r.cloud
}
