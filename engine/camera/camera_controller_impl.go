package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraControllerImpl struct {
	mu *sync.Mutex

	speed       float32
	sensitivity float32

	// move is the strafe (x) and forward (y) intent; -1, 0 or 1 on each axis.
	// Forward is -y so W reads as "up" on the screen.
	move mgl32.Vec2

	rotating  bool
	hasCursor bool
	cursor    [2]float64

	// pendingRotation accumulates yaw (x) and pitch (y) in radians until UpdateCamera.
	pendingRotation mgl32.Vec2
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a first-person controller with speed 0.01 and sensitivity 8e-3.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		speed:       0.01,
		sensitivity: 8e-3,
	}
	for _, opt := range options {
		opt(cc)
	}
	return cc
}

func (cc *cameraControllerImpl) ProcessEvent(ev window.Event) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	switch ev.Type {
	case window.EventKeyDown:
		switch ev.Key {
		case common.KeyW:
			cc.move[1] = -1
		case common.KeyS:
			cc.move[1] = 1
		case common.KeyA:
			cc.move[0] = -1
		case common.KeyD:
			cc.move[0] = 1
		default:
			return false
		}
		return true

	case window.EventKeyUp:
		switch ev.Key {
		case common.KeyW, common.KeyS:
			cc.move[1] = 0
		case common.KeyA, common.KeyD:
			cc.move[0] = 0
		default:
			return false
		}
		return true

	case window.EventMouseButtonDown, window.EventMouseButtonUp:
		if ev.Button != common.MouseButtonRight {
			return false
		}
		cc.rotating = ev.Type == window.EventMouseButtonDown
		cc.cursor = [2]float64{ev.X, ev.Y}
		cc.hasCursor = true
		return true

	case window.EventMouseMove:
		consumed := false
		if cc.rotating && cc.hasCursor {
			dx := float32(cc.cursor[0] - ev.X)
			dy := float32(cc.cursor[1] - ev.Y)
			cc.pendingRotation = cc.pendingRotation.Add(mgl32.Vec2{dx, dy}.Mul(cc.sensitivity))
			consumed = true
		}
		cc.cursor = [2]float64{ev.X, ev.Y}
		cc.hasCursor = true
		return consumed
	}
	return false
}

func (cc *cameraControllerImpl) UpdateCamera(cam *Camera) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.pendingRotation[0] != 0 || cc.pendingRotation[1] != 0 {
		yaw, pitch := cc.pendingRotation[0], cc.pendingRotation[1]
		cam.Dir = mgl32.QuatRotate(yaw, cam.Up).Rotate(cam.Dir)

		// Pitching past the up vector would flip the view; skip the pitch when dir is parallel to up.
		right := cam.Dir.Cross(cam.Up)
		if right.Len() > 1e-6 {
			cam.Dir = mgl32.QuatRotate(pitch, right.Normalize()).Rotate(cam.Dir)
		}
		cam.Dir = cam.Dir.Normalize()
		cc.pendingRotation = mgl32.Vec2{}
	}

	if cc.move[0] == 0 && cc.move[1] == 0 {
		return
	}
	right := cam.Dir.Cross(cam.Up)
	if l := right.Len(); l > 1e-6 {
		right = right.Mul(1 / l)
	}
	step := cam.Dir.Mul(-cc.move[1]).Add(right.Mul(cc.move[0]))
	cam.Eye = cam.Eye.Add(step.Mul(cc.speed))
}

func (cc *cameraControllerImpl) Speed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speed
}

func (cc *cameraControllerImpl) SetSpeed(speed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.speed = speed
}

func (cc *cameraControllerImpl) Sensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.sensitivity
}

func (cc *cameraControllerImpl) Rotating() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.rotating
}
