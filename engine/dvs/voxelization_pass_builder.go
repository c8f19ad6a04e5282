package dvs

// VoxelizationPassBuilderOption is a functional option used to configure a VoxelizationPass during construction.
type VoxelizationPassBuilderOption func(*voxelizationPass)

// WithResolution sets the number of voxels along each edge of the grid.
//
// Parameters:
//   - resolution: voxels per edge
//
// Returns:
//   - VoxelizationPassBuilderOption: a function that sets the grid resolution
func WithResolution(resolution uint32) VoxelizationPassBuilderOption {
	return func(vp *voxelizationPass) {
		vp.resolution = resolution
	}
}

// WithPadding grows the scene bounds on each side by a fraction of their largest extent before
// the grid is fitted.
//
// Parameters:
//   - padding: the fraction to add on each side
//
// Returns:
//   - VoxelizationPassBuilderOption: a function that sets the grid padding
func WithPadding(padding float32) VoxelizationPassBuilderOption {
	return func(vp *voxelizationPass) {
		vp.padding = padding
	}
}

// WithAxisHint forces every triangle to be projected along one axis. AxisAuto, the default,
// picks the dominant axis per triangle.
//
// Parameters:
//   - axis: AxisAuto, or 0, 1, 2 for x, y, z
//
// Returns:
//   - VoxelizationPassBuilderOption: a function that sets the axis hint
func WithAxisHint(axis uint32) VoxelizationPassBuilderOption {
	return func(vp *voxelizationPass) {
		vp.axisHint = axis
	}
}
