package dvs

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/engine/pass"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-voxel/engine/scene"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUTypeSizes(t *testing.T) {
	var pv ProjectedVertex
	var mp MeshParams
	var vv VoxelViewUniform
	var gu GridUniform
	var dv DebugViewUniform

	assert.Equal(t, 48, pv.Size())
	assert.Equal(t, 32, mp.Size())
	assert.Equal(t, 256, vv.Size())
	assert.Equal(t, 64, gu.Size())
	assert.Equal(t, 80, dv.Size())
}

func TestPipelinesValidateAgainstShaders(t *testing.T) {
	clear, err := newClearPipeline()
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{clearWorkgroupSize, clearWorkgroupSize, clearWorkgroupSize}, clear.Shader().WorkgroupSize())

	projection, err := newProjectionPipeline()
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{projectionWorkgroupSize, 1, 1}, projection.Shader().WorkgroupSize())
	assert.Len(t, projection.BindGroupLayouts(), 2)

	raster, err := newRasterPipeline()
	require.NoError(t, err)
	assert.Equal(t, wgpu.ColorWriteMask(0), raster.WriteMask())
	assert.Equal(t, TargetFormat, raster.ColorFormat())
	assert.Len(t, raster.BindGroupLayouts(), 2)

	debug, err := newDebugPipeline(wgpu.TextureFormatBGRA8Unorm)
	require.NoError(t, err)
	assert.Empty(t, debug.VertexBuffers())
}

func TestHostLayoutsMatchGoStructSizes(t *testing.T) {
	s, err := shader.NewShader("voxel_axis_projection", voxelAxisProjectionSource, shaderIncludes()...)
	require.NoError(t, err)

	var vv VoxelViewUniform
	var gu GridUniform
	var mp MeshParams
	var pv ProjectedVertex
	var vp scene.VertexPod

	global := s.BindGroupLayoutDescriptor(0).Entries
	require.Len(t, global, 2)
	assert.Equal(t, uint64(vv.Size()), global[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(gu.Size()), global[1].Buffer.MinBindingSize)

	mesh := s.BindGroupLayoutDescriptor(1).Entries
	require.Len(t, mesh, 5)
	assert.Equal(t, uint64(vp.Size()), mesh[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(pv.Size()), mesh[2].Buffer.MinBindingSize)
	assert.Equal(t, uint64(mp.Size()), mesh[4].Buffer.MinBindingSize)

	assert.NoError(t, shader.ValidateLayout(ProjectionGlobalLayout(), s, 0))
	assert.NoError(t, shader.ValidateLayout(ProjectionMeshLayout(), s, 1))
}

func TestRasterShaderVertexInputMatchesProjectedVertex(t *testing.T) {
	s, err := shader.NewShader("voxelization", voxelizationSource, shaderIncludes()...)
	require.NoError(t, err)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, ProjectedVertexLayout().ArrayStride, layouts[0].ArrayStride)
	assert.Equal(t, ProjectedVertexLayout().Attributes, layouts[0].Attributes)

	var material scene.MaterialPod
	entry := s.BindGroupLayoutDescriptor(1).Entries[0]
	assert.Equal(t, uint64(material.Size()), entry.Buffer.MinBindingSize)
}

func TestMismatchedHostLayoutIsRejected(t *testing.T) {
	s, err := shader.NewShader("voxel_axis_projection", voxelAxisProjectionSource, shaderIncludes()...)
	require.NoError(t, err)

	bad := ProjectionMeshLayout()
	bad.Entries[4].Buffer.MinBindingSize = 16
	err = shader.ValidateLayout(bad, s, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, shader.ErrLayoutMismatch)
	assert.Contains(t, err.Error(), "binding 4 (params)")
}

func TestMeshParamsMarshal(t *testing.T) {
	mp := MeshParams{TriangleCount: 7, VertexCount: 21, MeshIndex: 2, AxisHint: AxisAuto}
	buf := mp.Marshal()
	require.Len(t, buf, 32)
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[0:]))
	assert.Equal(t, uint32(21), binary.LittleEndian.Uint32(buf[4:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[8:]))
	assert.Equal(t, AxisAuto, binary.LittleEndian.Uint32(buf[12:]))
	for off := 16; off < 32; off += 4 {
		assert.Zero(t, binary.LittleEndian.Uint32(buf[off:]))
	}
}

func TestWorkgroupCount(t *testing.T) {
	cases := []struct {
		n, size, want uint32
	}{
		{0, 64, 1},
		{1, 64, 1},
		{64, 64, 1},
		{65, 64, 2},
		{128, 64, 2},
		{1000, 64, 16},
		{128, 4, 32},
		{5, 0, 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, WorkgroupCount(c.n, c.size), "n=%d size=%d", c.n, c.size)
	}
}

func TestDominantAxis(t *testing.T) {
	// Triangle in the yz plane: normal along x.
	assert.Equal(t, uint32(0), DominantAxis(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, AxisAuto))
	// Triangle in the xz plane: normal along y.
	assert.Equal(t, uint32(1), DominantAxis(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, AxisAuto))
	// Triangle in the xy plane: normal along z.
	assert.Equal(t, uint32(2), DominantAxis(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, AxisAuto))
	// Normal (1, 1, 0): tie goes to x.
	assert.Equal(t, uint32(0), DominantAxis(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, -1, 0}, AxisAuto))
	// Degenerate triangle resolves to x.
	assert.Equal(t, uint32(0), DominantAxis(mgl32.Vec3{}, mgl32.Vec3{}, mgl32.Vec3{}, AxisAuto))
	// A hint wins.
	assert.Equal(t, uint32(2), DominantAxis(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, 2))
}

func boundsOf(min, max mgl32.Vec3) scene.Bounds {
	return scene.EmptyBounds().Extend(min).Extend(max)
}

func TestFitGrid(t *testing.T) {
	g := FitGrid(boundsOf(mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{1, 1, 0.5}), 64, 0)
	assert.Equal(t, float32(2), g.Extent)
	assert.Equal(t, mgl32.Vec3{-1, -0.5, -0.75}, g.Min)
	assert.Equal(t, uint32(64), g.Resolution)
	assert.InDelta(t, 2.0/64, g.VoxelSize(), 1e-7)

	padded := FitGrid(boundsOf(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}), 32, 0.25)
	assert.Equal(t, float32(1.5), padded.Extent)
	assert.Equal(t, mgl32.Vec3{-0.25, -0.25, -0.25}, padded.Min)

	empty := FitGrid(scene.EmptyBounds(), 16, 0.1)
	assert.Equal(t, float32(1), empty.Extent)
	assert.Equal(t, mgl32.Vec3{-0.5, -0.5, -0.5}, empty.Min)

	point := FitGrid(boundsOf(mgl32.Vec3{2, 2, 2}, mgl32.Vec3{2, 2, 2}), 8, 0)
	assert.Equal(t, float32(1), point.Extent)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, point.Center())
}

func TestGridUniformAndVoxelCoord(t *testing.T) {
	g := Grid{Min: mgl32.Vec3{-1, -1, -1}, Extent: 2, Resolution: 4}
	u := g.Uniform()
	assert.Equal(t, mgl32.Vec4{-1, -1, -1, 0.5}, u.Min)
	assert.Equal(t, float32(2), u.Extent.X())
	assert.Equal(t, uint32(4), u.Resolution[0])

	buf := u.Marshal()
	require.Len(t, buf, 64)
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(buf[32:]))

	c, ok := g.VoxelCoord(mgl32.Vec3{-0.9, 0.1, 0.99})
	assert.True(t, ok)
	assert.Equal(t, [3]int{0, 2, 3}, c)

	c, ok = g.VoxelCoord(mgl32.Vec3{-1.1, 0, 0})
	assert.False(t, ok)
	assert.Equal(t, -1, c[0])

	_, ok = g.VoxelCoord(mgl32.Vec3{1, 0, 0})
	assert.False(t, ok)
}

func TestAxisViewProjectionsCoverGrid(t *testing.T) {
	g := Grid{Min: mgl32.Vec3{1, -2, 3}, Extent: 4, Resolution: 32}
	mats := g.AxisViewProjections()

	for axis, m := range mats {
		for i := range 8 {
			corner := g.Min.Add(mgl32.Vec3{
				float32(i&1) * g.Extent,
				float32((i>>1)&1) * g.Extent,
				float32((i>>2)&1) * g.Extent,
			})
			clip := m.Mul4x1(corner.Vec4(1))
			assert.InDelta(t, 1, clip.W(), 1e-5, "axis %d", axis)
			assert.InDelta(t, 1, abs(clip.X()), 1e-4, "axis %d corner %d", axis, i)
			assert.InDelta(t, 1, abs(clip.Y()), 1e-4, "axis %d corner %d", axis, i)
			assert.GreaterOrEqual(t, clip.Z(), float32(-1e-5))
			assert.LessOrEqual(t, clip.Z(), float32(1+1e-5))
		}
		center := m.Mul4x1(g.Center().Vec4(1))
		assert.InDelta(t, 0, center.X(), 1e-5)
		assert.InDelta(t, 0, center.Y(), 1e-5)
		assert.InDelta(t, 0.5, center.Z(), 1e-5)
	}

	again := g.AxisViewProjections()
	assert.Equal(t, mats, again)
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestTextureTracker(t *testing.T) {
	var tr textureTracker
	a := &texture.Texture{}
	b := &texture.Texture{}

	assert.False(t, tr.changed(nil))
	assert.True(t, tr.changed(a))
	tr.bound = a
	assert.False(t, tr.changed(a))
	assert.True(t, tr.changed(b))
	assert.True(t, tr.changed(nil))
}

// recordingPass logs every call so tests can check ordering.
type recordingPass struct {
	name    string
	log     *[]string
	resized int
	events  []window.Event
	lastRC  pass.RenderContext
}

func (p *recordingPass) OnResized(config *wgpu.SurfaceConfiguration, dc renderer.DeviceContext) {
	p.resized++
	*p.log = append(*p.log, p.name+".resize")
}

func (p *recordingPass) ProcessEvent(ev window.Event) {
	p.events = append(p.events, ev)
	*p.log = append(*p.log, p.name+".event")
}

func (p *recordingPass) UpdateRender(dc renderer.DeviceContext, rc *pass.RenderContext, bb *pass.BlackBoard) {
	p.lastRC = *rc
	*p.log = append(*p.log, p.name+".update")
}

func (p *recordingPass) Render(backBuffer *wgpu.TextureView, encoder *wgpu.CommandEncoder, dc renderer.DeviceContext, rc *pass.RenderContext, bb *pass.BlackBoard) {
	*p.log = append(*p.log, p.name+".render")
}

func newRecordingDevice() (*DeferredVoxelShading, []*recordingPass, *[]string) {
	log := &[]string{}
	a := &recordingPass{name: "a", log: log}
	b := &recordingPass{name: "b", log: log}
	ds := NewDeferredVoxelShading("scene.obj")
	ds.passes = []pass.RenderPass{a, b}
	return ds, []*recordingPass{a, b}, log
}

func TestResizeSetsAspectAndNotifiesPassesOnce(t *testing.T) {
	ds, passes, log := newRecordingDevice()

	ds.Resize(&wgpu.SurfaceConfiguration{Width: 800, Height: 600}, nil)
	assert.Equal(t, float32(800)/float32(600), ds.Camera().Aspect)
	for _, p := range passes {
		p.resized = 0
	}
	*log = (*log)[:0]

	ds.Resize(&wgpu.SurfaceConfiguration{Width: 1920, Height: 1080}, nil)
	assert.Equal(t, float32(1920)/float32(1080), ds.Camera().Aspect)
	for _, p := range passes {
		assert.Equal(t, 1, p.resized)
	}
	assert.Equal(t, []string{"a.resize", "b.resize"}, *log)
}

func TestAxisHintValidation(t *testing.T) {
	for _, hint := range []uint32{0, 1, 2, AxisAuto} {
		assert.True(t, validAxisHint(hint), hint)
	}
	for _, hint := range []uint32{3, 7, AxisAuto - 1} {
		assert.False(t, validAxisHint(hint), hint)
	}
}

func TestNewVoxelizationPassRejectsAxisHint(t *testing.T) {
	_, err := NewVoxelizationPass(nil, nil, WithAxisHint(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAxisHint)
	assert.Contains(t, err.Error(), "3")
}

func TestProcessEventReachesEveryPass(t *testing.T) {
	ds, passes, log := newRecordingDevice()

	ev := window.KeyDown(87)
	ds.ProcessEvent(ev)
	for _, p := range passes {
		require.Len(t, p.events, 1)
		assert.Equal(t, ev, p.events[0])
	}
	assert.Equal(t, []string{"a.event", "b.event"}, *log)
}

func TestUpdateRenderSnapshotsCamera(t *testing.T) {
	ds, passes, log := newRecordingDevice()

	ds.UpdateRender(nil, 0.016)
	first := ds.RenderContext()
	assert.Equal(t, uint64(1), first.FrameIndex)
	assert.Equal(t, float32(0.016), first.DeltaTime)
	assert.Equal(t, ds.Camera().BuildViewProjMatrix(), first.ViewProj)
	assert.Equal(t, ds.Camera().Eye, first.Eye)
	for _, p := range passes {
		assert.Equal(t, first, p.lastRC)
	}

	ds.UpdateRender(nil, 0.016)
	second := ds.RenderContext()
	assert.Equal(t, uint64(2), second.FrameIndex)
	assert.Equal(t, first.ViewProj, second.ViewProj)

	assert.Equal(t, []string{"a.update", "b.update", "a.update", "b.update"}, *log)
}

func TestInitTwiceFails(t *testing.T) {
	ds := NewDeferredVoxelShading("scene.obj")
	ds.initialized = true
	err := ds.Init(&wgpu.SurfaceConfiguration{Width: 1, Height: 1}, nil)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestRequiredLimits(t *testing.T) {
	ds := NewDeferredVoxelShading("scene.obj")
	limits := ds.RequiredLimits()
	assert.Equal(t, uint32(4), limits.MaxBindGroups)
	assert.Equal(t, uint32(256), limits.MaxTextureDimension3D)
	assert.Equal(t, uint32(64), limits.MaxComputeWorkgroupSizeX)
	assert.Empty(t, ds.RequiredFeatures())

	supported := limits
	supported.MaxTextureDimension3D = 2048
	assert.NoError(t, renderer.CheckLimits(supported, limits))
}

func TestOptions(t *testing.T) {
	ds := NewDeferredVoxelShading("scene.obj",
		WithGridResolution(64),
		WithGridPadding(0.2),
		WithProjectionAxis(1),
		WithLoadWorkers(8),
		WithLens(45, 0.5, 50),
	)
	assert.Equal(t, uint32(64), ds.resolution)
	assert.Equal(t, float32(0.2), ds.padding)
	assert.Equal(t, uint32(1), ds.axisHint)
	assert.Equal(t, 8, ds.workers)
	assert.Equal(t, float32(45), ds.fovDeg)
	assert.NotNil(t, ds.controller)
	assert.NotNil(t, ds.BlackBoard())
	assert.Equal(t, "deferred voxel shading", ds.Name())
}
