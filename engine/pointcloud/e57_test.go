package pointcloud

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testScan is one scan written by buildE57.
type testScan struct {
	points      []mgl32.Vec3
	double      bool
	translation mgl32.Vec3
	// split is the number of points carried by the first data packet; 0 writes one packet.
	split int
	// lead replaces the empty packet written ahead of the data.
	lead []byte
}

// buildE57 writes a minimal E57 container. Every scan's prototype carries an intensity field
// ahead of the coordinates.
func buildE57(t *testing.T, pageSize int, scans []testScan) []byte {
	t.Helper()
	payload := pageSize - 4
	phys := func(logical int) int {
		return (logical/payload)*pageSize + logical%payload
	}

	logical := make([]byte, e57HeaderSize)
	offsets := make([]int, len(scans))
	for i, s := range scans {
		offsets[i] = len(logical)
		section := make([]byte, sectionHeaderSize)
		section[0] = sectionCompressedVector
		binary.LittleEndian.PutUint64(section[16:], uint64(phys(len(logical)+sectionHeaderSize)))
		logical = append(logical, section...)

		// An empty packet ahead of the data must be skipped.
		lead := []byte{packetEmpty, 0, 3, 0}
		if s.lead != nil {
			lead = s.lead
		}
		logical = append(logical, lead...)

		chunks := [][]mgl32.Vec3{s.points}
		if s.split > 0 {
			chunks = [][]mgl32.Vec3{s.points[:s.split], s.points[s.split:]}
		}
		for _, chunk := range chunks {
			logical = append(logical, dataPacket(chunk, s.double)...)
		}
	}

	var xml strings.Builder
	xml.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	xml.WriteString(`<e57Root type="Structure" xmlns="http://www.astm.org/COMMIT/E57/2010-e57-v1.0">`)
	xml.WriteString(`<formatName type="String"><![CDATA[ASTM E57 3D Imaging Data File]]></formatName>`)
	xml.WriteString(`<data3D type="Vector" allowHeterogeneousChildren="1">`)
	for i, s := range scans {
		precision := "single"
		if s.double {
			precision = "double"
		}
		fmt.Fprintf(&xml, `<vectorChild type="Structure"><name type="String"><![CDATA[scan %d]]></name>`, i)
		fmt.Fprintf(&xml, `<pose type="Structure"><rotation type="Structure"><w type="Float">1</w><x type="Float">0</x><y type="Float">0</y><z type="Float">0</z></rotation>`)
		fmt.Fprintf(&xml, `<translation type="Structure"><x type="Float">%g</x><y type="Float">%g</y><z type="Float">%g</z></translation></pose>`,
			s.translation.X(), s.translation.Y(), s.translation.Z())
		fmt.Fprintf(&xml, `<points type="CompressedVector" fileOffset="%d" recordCount="%d"><prototype type="Structure">`, phys(offsets[i]), len(s.points))
		xml.WriteString(`<intensity type="Float" precision="single"/>`)
		for _, axis := range []string{"X", "Y", "Z"} {
			fmt.Fprintf(&xml, `<cartesian%s type="Float" precision="%s"/>`, axis, precision)
		}
		xml.WriteString(`</prototype><codecs type="Vector" allowHeterogeneousChildren="1"></codecs></points></vectorChild>`)
	}
	xml.WriteString(`</data3D></e57Root>`)

	xmlOffset := len(logical)
	logical = append(logical, xml.String()...)

	var physical bytes.Buffer
	for start := 0; start < len(logical); start += payload {
		page := make([]byte, pageSize)
		copy(page, logical[start:min(start+payload, len(logical))])
		binary.BigEndian.PutUint32(page[payload:], crc32.Checksum(page[:payload], crc32.MakeTable(crc32.Castagnoli)))
		physical.Write(page)
	}

	out := physical.Bytes()
	header := make([]byte, e57HeaderSize)
	copy(header, e57Signature)
	binary.LittleEndian.PutUint32(header[8:], 1)
	binary.LittleEndian.PutUint64(header[16:], uint64(len(out)))
	binary.LittleEndian.PutUint64(header[24:], uint64(phys(xmlOffset)))
	binary.LittleEndian.PutUint64(header[32:], uint64(xml.Len()))
	binary.LittleEndian.PutUint64(header[40:], uint64(pageSize))
	copy(out, header)
	binary.BigEndian.PutUint32(out[payload:], crc32.Checksum(out[:payload], crc32.MakeTable(crc32.Castagnoli)))
	return out
}

func dataPacket(points []mgl32.Vec3, double bool) []byte {
	width := 4
	if double {
		width = 8
	}
	streams := make([][]byte, 4)
	streams[0] = make([]byte, len(points)*4)
	for axis := range 3 {
		streams[axis+1] = make([]byte, len(points)*width)
		for i, p := range points {
			if double {
				binary.LittleEndian.PutUint64(streams[axis+1][i*8:], math.Float64bits(float64(p[axis])))
			} else {
				binary.LittleEndian.PutUint32(streams[axis+1][i*4:], math.Float32bits(p[axis]))
			}
		}
	}

	packet := []byte{packetData, 0, 0, 0, byte(len(streams)), 0}
	for _, s := range streams {
		packet = binary.LittleEndian.AppendUint16(packet, uint16(len(s)))
	}
	for _, s := range streams {
		packet = append(packet, s...)
	}
	for len(packet)%4 != 0 {
		packet = append(packet, 0)
	}
	binary.LittleEndian.PutUint16(packet[2:], uint16(len(packet)-1))
	return packet
}

var squarePoints = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0.5}}

func TestParseE57HeaderRejectsBadSignature(t *testing.T) {
	_, err := ParseE57Header(make([]byte, e57HeaderSize))
	assert.ErrorIs(t, err, ErrNotE57)

	_, err = ParseE57Header([]byte("ASTM"))
	assert.ErrorIs(t, err, ErrNotE57)
}

func TestParseE57HeaderFields(t *testing.T) {
	data := buildE57(t, 1024, []testScan{{points: squarePoints}})
	h, err := ParseE57Header(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.Major)
	assert.Equal(t, uint64(1024), h.PageSize)
	assert.Equal(t, uint64(len(data)), h.FilePhysicalLength)
}

func TestPagedReaderStripsChecksums(t *testing.T) {
	logical := make([]byte, 100)
	for i := range logical {
		logical[i] = byte(i)
	}
	var physical []byte
	for start := 0; start < len(logical); start += 12 {
		page := make([]byte, 16)
		copy(page, logical[start:min(start+12, len(logical))])
		binary.BigEndian.PutUint32(page[12:], crc32.Checksum(page[:12], castagnoli))
		physical = append(physical, page...)
	}

	pr := &pagedReader{r: bytes.NewReader(physical), pageSize: 16, length: uint64(len(physical))}
	got, err := pr.read(5, 30)
	require.NoError(t, err)
	assert.Equal(t, logical[5:35], got)

	// Logical 5 + 30 = 35 lives on page 2 at byte 11.
	assert.Equal(t, uint64(2*16+11), pr.advance(5, 30))

	_, err = pr.read(13, 1)
	assert.Error(t, err)

	_, err = pr.read(0, 1000)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestPagedReaderDetectsCorruption(t *testing.T) {
	data := buildE57(t, 64, []testScan{{points: squarePoints}})
	// The last page holds the end of the XML section.
	data[len(data)-5] ^= 0xFF

	_, err := OpenE57(bytes.NewReader(data), int64(len(data)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestOpenE57ParsesScans(t *testing.T) {
	data := buildE57(t, 64, []testScan{
		{points: squarePoints},
		{points: squarePoints[:2], double: true},
	})
	f, err := OpenE57(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, f.Scans, 2)

	assert.Equal(t, "scan 0", f.Scans[0].Name)
	assert.Equal(t, uint64(4), f.Scans[0].RecordCount)
	assert.Equal(t, 4, f.Scans[0].fields)
	assert.Equal(t, coordinateStream{index: 1, width: 4}, f.Scans[0].streams[0])
	assert.Equal(t, coordinateStream{index: 3, width: 8}, f.Scans[1].streams[2])
}

func TestReadScanAcrossPagesAndPackets(t *testing.T) {
	data := buildE57(t, 64, []testScan{{points: squarePoints, split: 3}})
	f, err := OpenE57(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	points, err := f.ReadScan(f.Scans[0])
	require.NoError(t, err)
	assert.Equal(t, squarePoints, points)
}

func TestReadScanAppliesPose(t *testing.T) {
	data := buildE57(t, 1024, []testScan{{points: squarePoints, double: true, translation: mgl32.Vec3{1, 2, 3}}})
	f, err := OpenE57(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	points, err := f.ReadScan(f.Scans[0])
	require.NoError(t, err)
	require.Len(t, points, len(squarePoints))
	for i, p := range points {
		want := squarePoints[i].Add(mgl32.Vec3{1, 2, 3})
		assert.InDelta(t, want.X(), p.X(), 1e-5)
		assert.InDelta(t, want.Y(), p.Y(), 1e-5)
		assert.InDelta(t, want.Z(), p.Z(), 1e-5)
	}
}

func TestParseScansRejectsScaledIntegers(t *testing.T) {
	doc := `<e57Root type="Structure"><data3D type="Vector"><vectorChild type="Structure">
		<points type="CompressedVector" fileOffset="48" recordCount="1"><prototype type="Structure">
		<cartesianX type="ScaledInteger"/><cartesianY type="Float"/><cartesianZ type="Float"/>
		</prototype></points></vectorChild></data3D></e57Root>`
	_, err := parseScans([]byte(doc))
	assert.ErrorIs(t, err, ErrUnsupportedField)
}

func TestParseScansSkipsScansWithoutCartesian(t *testing.T) {
	doc := `<e57Root type="Structure"><data3D type="Vector"><vectorChild type="Structure">
		<points type="CompressedVector" fileOffset="48" recordCount="1"><prototype type="Structure">
		<sphericalRange type="Float"/><sphericalAzimuth type="Float"/><sphericalElevation type="Float"/>
		</prototype></points></vectorChild></data3D></e57Root>`
	scans, err := parseScans([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, scans)

	scans, err = parseScans([]byte(`<e57Root type="Structure"></e57Root>`))
	require.NoError(t, err)
	assert.Empty(t, scans)
}

func TestReadE57KeepsScanOrder(t *testing.T) {
	first := []mgl32.Vec3{{1, 1, 1}}
	second := []mgl32.Vec3{{2, 2, 2}, {3, 3, 3}}
	data := buildE57(t, 128, []testScan{{points: first}, {points: second}, {points: first, double: true}})

	path := filepath.Join(t.TempDir(), "scan.e57")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	points, err := ReadE57(path, 3)
	require.NoError(t, err)
	assert.Equal(t, []mgl32.Vec3{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}, {1, 1, 1}}, points)
}

func TestReadScanRejectsTruncatedPackets(t *testing.T) {
	cases := map[string][]byte{
		"shorter than header":  {packetData, 0, 3, 0},
		"length table overrun": {packetData, 0, 7, 0, 4, 0, 0, 0},
		"bytestream overrun":   {packetData, 0, 15, 0, 4, 0, 0xFF, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}
	for name, lead := range cases {
		t.Run(name, func(t *testing.T) {
			data := buildE57(t, 1024, []testScan{{points: squarePoints, lead: lead}})
			f, err := OpenE57(bytes.NewReader(data), int64(len(data)))
			require.NoError(t, err)
			require.Len(t, f.Scans, 1)

			_, err = f.ReadScan(f.Scans[0])
			assert.ErrorIs(t, err, ErrMalformedPacket)
		})
	}
}

func TestReadE57TruncatedPacketReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.e57")
	data := buildE57(t, 256, []testScan{{points: squarePoints, lead: []byte{packetData, 0, 3, 0}}})
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := ReadE57(path, 2)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestReadE57MissingFile(t *testing.T) {
	_, err := ReadE57(filepath.Join(t.TempDir(), "missing.e57"), 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
