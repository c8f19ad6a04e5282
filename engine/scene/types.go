// Package scene loads triangle meshes and their materials and packs them into GPU buffers.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NoMaterial marks a mesh without a material; it is drawn with DefaultMaterial.
const NoMaterial = -1

// StaticMesh is a CPU-side indexed triangle mesh. Normals and TexCoords are either empty or
// parallel to Positions.
type StaticMesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Indices   []uint32
	// MaterialID indexes the material list returned with the mesh, or is NoMaterial.
	MaterialID int
}

// TriangleCount returns the number of whole triangles in Indices.
func (m *StaticMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Material is a Phong-style surface description.
type Material struct {
	Name      string
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
}

// DefaultMaterial returns the material used for meshes that have none.
func DefaultMaterial() Material {
	return Material{
		Name:      "default",
		Ambient:   mgl32.Vec3{0.8, 0.8, 0.8},
		Diffuse:   mgl32.Vec3{0.8, 0.8, 0.8},
		Specular:  mgl32.Vec3{1, 1, 1},
		Shininess: 0.5,
	}
}

// Bounds is an axis-aligned bounding box. The zero value is not empty; use EmptyBounds.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyBounds returns a box that any Extend call replaces.
func EmptyBounds() Bounds {
	inf := float32(3.4028235e38)
	return Bounds{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no point.
func (b Bounds) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}

// Extend grows the box to contain p.
func (b Bounds) Extend(p mgl32.Vec3) Bounds {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

// Union grows the box to contain o. Empty boxes are ignored.
func (b Bounds) Union(o Bounds) Bounds {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Size returns the edge lengths of the box.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}
