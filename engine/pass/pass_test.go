package pass

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/texture"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackBoardGetAbsent(t *testing.T) {
	bb := NewBlackBoard()

	tex, ok := bb.Get("voxel_albedo")
	assert.False(t, ok)
	assert.Nil(t, tex)
	assert.Empty(t, bb.Names())
}

func TestBlackBoardInsertOverwrites(t *testing.T) {
	bb := NewBlackBoard()
	first := &texture.Texture{}
	second := &texture.Texture{}

	bb.Insert("voxel_albedo", first)
	bb.Insert("voxel_albedo", second)

	got, ok := bb.Get("voxel_albedo")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestBlackBoardNamesSorted(t *testing.T) {
	var bb BlackBoard
	bb.Insert("voxel_normal", &texture.Texture{})
	bb.Insert("voxel_albedo", &texture.Texture{})

	assert.Equal(t, []string{"voxel_albedo", "voxel_normal"}, bb.Names())
}

func TestBlackBoardsAreIndependent(t *testing.T) {
	a, b := NewBlackBoard(), NewBlackBoard()
	a.Insert("x", &texture.Texture{})

	_, ok := b.Get("x")
	assert.False(t, ok)
}

func TestRenderContextSnapshotCopies(t *testing.T) {
	var rc RenderContext
	vp := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	eye := mgl32.Vec3{1, 2, 3}

	rc.Snapshot(0.016, vp, eye)
	vp[0] = 42
	eye[0] = 42

	assert.Equal(t, uint64(1), rc.FrameIndex)
	assert.Equal(t, float32(0.016), rc.DeltaTime)
	assert.NotEqual(t, float32(42), rc.ViewProj[0])
	assert.Equal(t, float32(1), rc.Eye[0])
	assert.True(t, rc.ViewProj.Mul4(rc.InvViewProj).ApproxEqualThreshold(mgl32.Ident4(), 1e-4))

	rc.Snapshot(0.016, vp, eye)
	assert.Equal(t, uint64(2), rc.FrameIndex)
}
