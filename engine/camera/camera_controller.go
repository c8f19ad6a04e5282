package camera

import "github.com/Carmen-Shannon/oxy-voxel/engine/window"

// CameraController translates input events into camera motion.
// Events only record intent; the camera is modified in UpdateCamera, once per frame.
type CameraController interface {
	// ProcessEvent records the effect of an input event.
	// W and S move along the view direction, A and D strafe. Holding the right mouse
	// button turns cursor motion into yaw and pitch.
	//
	// Parameters:
	//   - ev: the input event
	//
	// Returns:
	//   - bool: true if the controller consumed the event
	ProcessEvent(ev window.Event) bool

	// UpdateCamera applies pending rotation and the current movement to the camera.
	// The controller does not keep the pointer past this call.
	//
	// Parameters:
	//   - cam: the camera to modify
	UpdateCamera(cam *Camera)

	// Speed returns the movement step in world units per frame.
	//
	// Returns:
	//   - float32: the movement speed
	Speed() float32

	// SetSpeed sets the movement step in world units per frame.
	//
	// Parameters:
	//   - speed: the movement speed
	SetSpeed(speed float32)

	// Sensitivity returns the radians of rotation per pixel of cursor motion.
	//
	// Returns:
	//   - float32: the mouse sensitivity
	Sensitivity() float32

	// Rotating reports whether cursor motion currently rotates the camera.
	//
	// Returns:
	//   - bool: true while the right mouse button is held
	Rotating() bool
}
