package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/stretchr/testify/assert"
)

func TestEventConstructors(t *testing.T) {
	assert.Equal(t, Event{Type: EventKeyDown, Key: common.KeyW}, KeyDown(common.KeyW))
	assert.Equal(t, Event{Type: EventKeyUp, Key: common.KeyA}, KeyUp(common.KeyA))
	assert.Equal(t, Event{Type: EventMouseButtonDown, Button: common.MouseButtonRight, X: 3, Y: 4},
		MouseButtonDown(common.MouseButtonRight, 3, 4))
	assert.Equal(t, Event{Type: EventMouseButtonUp, Button: common.MouseButtonLeft, X: 1, Y: 2},
		MouseButtonUp(common.MouseButtonLeft, 1, 2))
	assert.Equal(t, Event{Type: EventMouseMove, X: 10, Y: 20}, MouseMove(10, 20))
}

func TestEmitForwardsInOrder(t *testing.T) {
	w := &engineWindow{}
	w.emit(KeyDown(common.KeyS)) // no callback yet, must not panic

	var got []Event
	w.SetEventCallback(func(ev Event) { got = append(got, ev) })
	w.emit(KeyDown(common.KeyS))
	w.emit(MouseMove(1, 1))
	w.emit(KeyUp(common.KeyS))

	assert.Equal(t, []Event{KeyDown(common.KeyS), MouseMove(1, 1), KeyUp(common.KeyS)}, got)
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720}
	for _, opt := range []WindowBuilderOption{
		WithTitle("voxels"),
		WithSize(0, 600),
		WithSizeLimits(100, 100, 2000, 1000),
	} {
		opt(w)
	}
	assert.Equal(t, "voxels", w.title)
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 600, w.Height())
	assert.Equal(t, [4]int{100, 100, 2000, 1000}, [4]int{w.minWidth, w.minHeight, w.maxWidth, w.maxHeight})
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}
