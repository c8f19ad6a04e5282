package scene

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexPodSource is the WGSL definition of the VertexPod struct.
// Fields are scalar arrays so the storage-buffer stride stays 32 bytes.
//
//go:embed assets/vertex_pod.wgsl
var VertexPodSource string

// MaterialPodSource is the WGSL definition of the MaterialPod struct (64 bytes, uniform layout).
//
//go:embed assets/material_pod.wgsl
var MaterialPodSource string

// VertexPod is one packed vertex. Size: 32 bytes.
type VertexPod struct {
	Position [3]float32 // offset  0
	Normal   [3]float32 // offset 12
	TexCoord [2]float32 // offset 24
}

// Size returns the size of the VertexPod struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (v *VertexPod) Size() int {
	return int(unsafe.Sizeof(*v))
}

// MarshalTo writes the vertex into buf, which must hold at least Size() bytes.
//
// Parameters:
//   - buf: the destination slice
func (v *VertexPod) MarshalTo(buf []byte) {
	putFloats(buf[0:], v.Position[:]...)
	putFloats(buf[12:], v.Normal[:]...)
	putFloats(buf[24:], v.TexCoord[:]...)
}

// Marshal serializes the vertex for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (v *VertexPod) Marshal() []byte {
	buf := make([]byte, v.Size())
	v.MarshalTo(buf)
	return buf
}

// MaterialPod is the GPU-aligned material block. Each vec3 starts on a 16-byte boundary.
// Size: 64 bytes.
type MaterialPod struct {
	Ambient   mgl32.Vec3 // offset  0
	_         float32    // offset 12
	Diffuse   mgl32.Vec3 // offset 16
	_         float32    // offset 28
	Specular  mgl32.Vec3 // offset 32
	Shininess float32    // offset 44
	_         [4]float32 // offset 48: padding to 64 bytes
}

// NewMaterialPod packs a Material.
//
// Parameters:
//   - m: the material to pack
//
// Returns:
//   - MaterialPod: the packed material
func NewMaterialPod(m Material) MaterialPod {
	return MaterialPod{
		Ambient:   m.Ambient,
		Diffuse:   m.Diffuse,
		Specular:  m.Specular,
		Shininess: m.Shininess,
	}
}

// Size returns the size of the MaterialPod struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (p *MaterialPod) Size() int {
	return int(unsafe.Sizeof(*p))
}

// Marshal serializes the material for GPU upload. Padding bytes are zero.
//
// Returns:
//   - []byte: the serialized byte buffer
func (p *MaterialPod) Marshal() []byte {
	buf := make([]byte, p.Size())
	putFloats(buf[0:], p.Ambient[:]...)
	putFloats(buf[16:], p.Diffuse[:]...)
	putFloats(buf[32:], p.Specular[:]...)
	putFloats(buf[44:], p.Shininess)
	return buf
}

func putFloats(buf []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
