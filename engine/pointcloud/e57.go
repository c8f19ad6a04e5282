// Package pointcloud reads E57 scans and draws them as point lists.
package pointcloud

import (
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
)

// E57 container constants.
const (
	e57Signature      = "ASTM-E57"
	e57HeaderSize     = 48
	e57ChecksumSize   = 4
	sectionHeaderSize = 32
	packetHeaderSize  = 6

	sectionCompressedVector = 1

	packetIndex = 0
	packetData  = 1
	packetEmpty = 2
)

var (
	// ErrNotE57 is returned when a file does not start with the E57 signature.
	ErrNotE57 = errors.New("not an E57 file")
	// ErrChecksum is returned when a page fails its CRC-32C check.
	ErrChecksum = errors.New("E57 page checksum mismatch")
	// ErrUnsupportedField is returned for coordinate fields that are not Float.
	ErrUnsupportedField = errors.New("unsupported E57 coordinate field")
	// ErrMalformedPacket is returned when a packet is too short for the fields it declares.
	ErrMalformedPacket = errors.New("malformed E57 packet")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// E57Header is the fixed header at the start of every E57 file.
type E57Header struct {
	Major              uint32
	Minor              uint32
	FilePhysicalLength uint64
	XMLPhysicalOffset  uint64
	XMLLogicalLength   uint64
	PageSize           uint64
}

// ParseE57Header decodes the 48-byte file header.
//
// Parameters:
//   - buf: at least 48 bytes from the start of the file
//
// Returns:
//   - E57Header: the decoded header
//   - error: ErrNotE57 on a bad signature, or an error for an unusable page size
func ParseE57Header(buf []byte) (E57Header, error) {
	if len(buf) < e57HeaderSize || string(buf[:8]) != e57Signature {
		return E57Header{}, ErrNotE57
	}
	h := E57Header{
		Major:              binary.LittleEndian.Uint32(buf[8:]),
		Minor:              binary.LittleEndian.Uint32(buf[12:]),
		FilePhysicalLength: binary.LittleEndian.Uint64(buf[16:]),
		XMLPhysicalOffset:  binary.LittleEndian.Uint64(buf[24:]),
		XMLLogicalLength:   binary.LittleEndian.Uint64(buf[32:]),
		PageSize:           binary.LittleEndian.Uint64(buf[40:]),
	}
	if h.PageSize <= e57ChecksumSize {
		return E57Header{}, fmt.Errorf("invalid E57 page size %d", h.PageSize)
	}
	return h, nil
}

// pagedReader reads the logical byte stream of an E57 file. Every physical page ends with a
// big-endian CRC-32C of the bytes before it, which is verified and stripped.
type pagedReader struct {
	r        io.ReaderAt
	pageSize uint64
	length   uint64
}

func (p *pagedReader) payloadSize() uint64 {
	return p.pageSize - e57ChecksumSize
}

// readPage returns the verified payload of one page.
func (p *pagedReader) readPage(page uint64) ([]byte, error) {
	buf := make([]byte, p.pageSize)
	if _, err := p.r.ReadAt(buf, int64(page*p.pageSize)); err != nil {
		return nil, fmt.Errorf("failed to read E57 page %d: %w", page, err)
	}
	payload := buf[:p.payloadSize()]
	want := binary.BigEndian.Uint32(buf[p.payloadSize():])
	if got := crc32.Checksum(payload, castagnoli); got != want {
		return nil, fmt.Errorf("%w: page %d", ErrChecksum, page)
	}
	return payload, nil
}

// read returns n logical bytes starting at a physical offset.
func (p *pagedReader) read(physical uint64, n uint64) ([]byte, error) {
	if physical%p.pageSize >= p.payloadSize() {
		return nil, fmt.Errorf("E57 offset %d points into a page checksum", physical)
	}
	out := make([]byte, 0, n)
	page := physical / p.pageSize
	skip := physical % p.pageSize
	for uint64(len(out)) < n {
		if page*p.pageSize >= p.length {
			return nil, fmt.Errorf("E57 read of %d bytes at %d: %w", n, physical, io.ErrUnexpectedEOF)
		}
		payload, err := p.readPage(page)
		if err != nil {
			return nil, err
		}
		chunk := payload[skip:]
		if rem := n - uint64(len(out)); uint64(len(chunk)) > rem {
			chunk = chunk[:rem]
		}
		out = append(out, chunk...)
		page++
		skip = 0
	}
	return out, nil
}

// advance returns the physical offset n logical bytes after physical.
func (p *pagedReader) advance(physical, n uint64) uint64 {
	page := physical / p.pageSize
	logical := page*p.payloadSize() + physical%p.pageSize + n
	return (logical/p.payloadSize())*p.pageSize + logical%p.payloadSize()
}

// e57Node is one element of the E57 XML tree.
type e57Node struct {
	XMLName     xml.Name
	Type        string    `xml:"type,attr"`
	Precision   string    `xml:"precision,attr"`
	FileOffset  uint64    `xml:"fileOffset,attr"`
	RecordCount uint64    `xml:"recordCount,attr"`
	Text        string    `xml:",chardata"`
	Children    []e57Node `xml:",any"`
}

func (n *e57Node) child(name string) *e57Node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

func (n *e57Node) float(name string, fallback float64) float64 {
	c := n.child(name)
	if c == nil {
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
	if err != nil {
		return fallback
	}
	return v
}

// coordinateStream locates one coordinate field inside a compressed vector's packets.
type coordinateStream struct {
	index int
	width int
}

// Scan describes one data3D entry: where its points live and how to place them in the world.
type Scan struct {
	Name        string
	FileOffset  uint64
	RecordCount uint64
	Rotation    mgl32.Quat
	Translation mgl32.Vec3

	streams [3]coordinateStream
	fields  int
}

// parseScans reads every data3D child that carries cartesian coordinates.
func parseScans(doc []byte) ([]Scan, error) {
	var root e57Node
	if err := xml.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("failed to parse E57 XML: %w", err)
	}
	data3D := root.child("data3D")
	if data3D == nil {
		return nil, nil
	}

	scans := make([]Scan, 0, len(data3D.Children))
	for i := range data3D.Children {
		entry := &data3D.Children[i]
		points := entry.child("points")
		if points == nil || points.Type != "CompressedVector" {
			continue
		}
		prototype := points.child("prototype")
		if prototype == nil {
			return nil, fmt.Errorf("data3D %d has no prototype", i)
		}

		scan := Scan{
			Name:        fmt.Sprintf("scan%d", i),
			FileOffset:  points.FileOffset,
			RecordCount: points.RecordCount,
			Rotation:    mgl32.QuatIdent(),
			fields:      len(prototype.Children),
		}
		if name := entry.child("name"); name != nil {
			scan.Name = strings.TrimSpace(name.Text)
		}
		if pose := entry.child("pose"); pose != nil {
			if rot := pose.child("rotation"); rot != nil {
				scan.Rotation = mgl32.Quat{
					W: float32(rot.float("w", 1)),
					V: mgl32.Vec3{float32(rot.float("x", 0)), float32(rot.float("y", 0)), float32(rot.float("z", 0))},
				}.Normalize()
			}
			if tr := pose.child("translation"); tr != nil {
				scan.Translation = mgl32.Vec3{float32(tr.float("x", 0)), float32(tr.float("y", 0)), float32(tr.float("z", 0))}
			}
		}

		found := 0
		for axis, name := range [3]string{"cartesianX", "cartesianY", "cartesianZ"} {
			for f := range prototype.Children {
				field := &prototype.Children[f]
				if field.XMLName.Local != name {
					continue
				}
				if field.Type != "Float" {
					return nil, fmt.Errorf("%w: %s is %s", ErrUnsupportedField, name, field.Type)
				}
				width := 8
				if field.Precision == "single" {
					width = 4
				}
				scan.streams[axis] = coordinateStream{index: f, width: width}
				found++
			}
		}
		if found != 3 {
			continue
		}
		scans = append(scans, scan)
	}
	return scans, nil
}

// E57File is an opened E57 container.
type E57File struct {
	Header E57Header
	Scans  []Scan

	pages *pagedReader
}

// OpenE57 reads the header and XML section of an E57 container.
//
// Parameters:
//   - r: the file contents
//   - size: the file length in bytes
//
// Returns:
//   - *E57File: the parsed container
//   - error: an error if the header, a page checksum or the XML is invalid
func OpenE57(r io.ReaderAt, size int64) (*E57File, error) {
	buf := make([]byte, e57HeaderSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, fmt.Errorf("failed to read E57 header: %w", err)
	}
	header, err := ParseE57Header(buf)
	if err != nil {
		return nil, err
	}

	pages := &pagedReader{r: r, pageSize: header.PageSize, length: uint64(size)}
	doc, err := pages.read(header.XMLPhysicalOffset, header.XMLLogicalLength)
	if err != nil {
		return nil, fmt.Errorf("failed to read E57 XML section: %w", err)
	}
	scans, err := parseScans(doc)
	if err != nil {
		return nil, err
	}
	return &E57File{Header: header, Scans: scans, pages: pages}, nil
}

// ReadScan decodes the world-space positions of one scan.
//
// Parameters:
//   - scan: a scan from Scans
//
// Returns:
//   - []mgl32.Vec3: the points with the scan pose applied
//   - error: an error if the binary section is malformed
func (f *E57File) ReadScan(scan Scan) ([]mgl32.Vec3, error) {
	section, err := f.pages.read(scan.FileOffset, sectionHeaderSize)
	if err != nil {
		return nil, err
	}
	if section[0] != sectionCompressedVector {
		return nil, fmt.Errorf("scan %q: section id %d is not a compressed vector", scan.Name, section[0])
	}
	offset := binary.LittleEndian.Uint64(section[16:])

	var want [3]uint64
	var streams [3][]byte
	for axis, s := range scan.streams {
		want[axis] = scan.RecordCount * uint64(s.width)
		streams[axis] = make([]byte, 0, want[axis])
	}
	complete := func() bool {
		for axis := range streams {
			if uint64(len(streams[axis])) < want[axis] {
				return false
			}
		}
		return true
	}

	for !complete() {
		head, err := f.pages.read(offset, 4)
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", scan.Name, err)
		}
		length := uint64(binary.LittleEndian.Uint16(head[2:])) + 1
		packet, err := f.pages.read(offset, length)
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", scan.Name, err)
		}
		offset = f.pages.advance(offset, length)

		switch packet[0] {
		case packetData:
		case packetIndex, packetEmpty:
			continue
		default:
			return nil, fmt.Errorf("scan %q: unknown packet type %d", scan.Name, packet[0])
		}

		if len(packet) < packetHeaderSize {
			return nil, fmt.Errorf("scan %q: %w: data packet of %d bytes is shorter than its header", scan.Name, ErrMalformedPacket, len(packet))
		}
		count := int(binary.LittleEndian.Uint16(packet[4:]))
		if count != scan.fields {
			return nil, fmt.Errorf("scan %q: packet has %d bytestreams, prototype has %d fields", scan.Name, count, scan.fields)
		}
		if len(packet) < packetHeaderSize+2*count {
			return nil, fmt.Errorf("scan %q: %w: bytestream length table overruns its packet", scan.Name, ErrMalformedPacket)
		}
		lengths := make([]int, count)
		pos := packetHeaderSize
		for i := range lengths {
			lengths[i] = int(binary.LittleEndian.Uint16(packet[pos:]))
			pos += 2
		}
		for i, n := range lengths {
			if pos+n > len(packet) {
				return nil, fmt.Errorf("scan %q: %w: bytestream %d overruns its packet", scan.Name, ErrMalformedPacket, i)
			}
			for axis, s := range scan.streams {
				if s.index == i {
					streams[axis] = append(streams[axis], packet[pos:pos+n]...)
				}
			}
			pos += n
		}
	}

	m := scan.Rotation.Mat4()
	m.SetCol(3, scan.Translation.Vec4(1))
	points := make([]mgl32.Vec3, scan.RecordCount)
	for i := range points {
		var p mgl32.Vec3
		for axis, s := range scan.streams {
			p[axis] = decodeFloat(streams[axis][i*s.width:], s.width)
		}
		points[i] = mgl32.TransformCoordinate(p, m)
	}
	return points, nil
}

func decodeFloat(b []byte, width int) float32 {
	if width == 4 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
	return float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
}

// ReadE57 reads every scan of an E57 file. Scans are decoded on a worker pool and concatenated
// in file order.
//
// Parameters:
//   - path: the E57 file
//   - workers: the number of pool workers, at least 1
//
// Returns:
//   - []mgl32.Vec3: every point in world space
//   - error: the first error in scan order
func ReadE57(path string, workers int) ([]mgl32.Vec3, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open E57 file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat E57 file: %w", err)
	}
	e57, err := OpenE57(file, info.Size())
	if err != nil {
		return nil, err
	}
	if len(e57.Scans) == 0 {
		return nil, nil
	}

	results := make([][]mgl32.Vec3, len(e57.Scans))
	errs := make([]error, len(e57.Scans))

	pool := worker.NewDynamicWorkerPool(max(workers, 1), 64, 1*time.Second)
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := range e57.Scans {
		wg.Add(1)
		id := i
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				results[id], errs[id] = e57.ReadScan(e57.Scans[id])
				return nil, nil
			},
		})
	}
	wg.Wait()

	var points []mgl32.Vec3
	for i := range results {
		if errs[i] != nil {
			return nil, errs[i]
		}
		points = append(points, results[i]...)
	}
	return points, nil
}
