package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/kdmesh/pkg/math"
	"github.com/Faultbox/kdmesh/pkg/mesh"
)

// KDMS format errors.
var (
	ErrInvalidKDMSMagic       = errors.New("invalid KDMS magic: expected 'KDMS'")
	ErrUnsupportedKDMSVersion = errors.New("unsupported KDMS version")
	ErrTruncatedKDMSData      = errors.New("truncated KDMS data")
	ErrKDMSIndexOverflow      = errors.New("index does not fit in uint32")
)

const (
	kdmsMagic      = "KDMS"
	kdmsHeaderSize = 4 + 2 + 3*4
)

// KDMSVersion represents a KDMS file version.
type KDMSVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v KDMSVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentKDMSVersion is the version written by EncodeKDMS. Files with the
// same major version are readable.
var CurrentKDMSVersion = KDMSVersion{Major: 1, Minor: 0}

// KDMS layout, all little-endian:
//
//	magic     [4]byte  "KDMS"
//	version   [2]uint8 major, minor
//	positions uint32   vertex count
//	normals   uint32   normal count (0 or vertex count)
//	indices   uint32   index count
//	          [positions][3]float32
//	          [normals][3]float32
//	          [indices]uint32

// ParseKDMS parses a KDMS file from raw bytes. The result is not
// validated beyond the header.
func ParseKDMS(data []byte) (mesh.RawMesh, error) {
	if len(data) < kdmsHeaderSize {
		return mesh.RawMesh{}, ErrTruncatedKDMSData
	}

	if string(data[0:4]) != kdmsMagic {
		return mesh.RawMesh{}, ErrInvalidKDMSMagic
	}

	version := KDMSVersion{Major: data[4], Minor: data[5]}
	if version.Major != CurrentKDMSVersion.Major {
		return mesh.RawMesh{}, fmt.Errorf("%w: %s", ErrUnsupportedKDMSVersion, version)
	}

	r := bytes.NewReader(data[6:])

	var counts [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &counts); err != nil {
		return mesh.RawMesh{}, fmt.Errorf("%w: reading counts", ErrTruncatedKDMSData)
	}
	nPos, nNorm, nIdx := counts[0], counts[1], counts[2]

	// Reject before allocating.
	need := (uint64(nPos)+uint64(nNorm))*12 + uint64(nIdx)*4
	if uint64(r.Len()) < need {
		return mesh.RawMesh{}, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedKDMSData, need, r.Len())
	}

	positions, err := readVec3s(r, nPos)
	if err != nil {
		return mesh.RawMesh{}, fmt.Errorf("%w: reading positions", ErrTruncatedKDMSData)
	}
	normals, err := readVec3s(r, nNorm)
	if err != nil {
		return mesh.RawMesh{}, fmt.Errorf("%w: reading normals", ErrTruncatedKDMSData)
	}

	idx := make([]uint32, nIdx)
	if err := binary.Read(r, binary.LittleEndian, idx); err != nil {
		return mesh.RawMesh{}, fmt.Errorf("%w: reading indices", ErrTruncatedKDMSData)
	}
	indices := make([]int, nIdx)
	for i, v := range idx {
		indices[i] = int(v)
	}

	return mesh.RawMesh{Positions: positions, Normals: normals, Indices: indices}, nil
}

func readVec3s(r *bytes.Reader, n uint32) ([]math.Vec3, error) {
	if n == 0 {
		return nil, nil
	}
	raw := make([][3]float32, n)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, err
	}
	out := make([]math.Vec3, n)
	for i, a := range raw {
		out[i] = math.FromArray(a)
	}
	return out, nil
}

// EncodeKDMS serializes raw in the KDMS layout.
func EncodeKDMS(raw mesh.RawMesh) ([]byte, error) {
	idx := make([]uint32, len(raw.Indices))
	for i, v := range raw.Indices {
		if v < 0 || uint64(v) > gomath.MaxUint32 {
			return nil, fmt.Errorf("%w: indices[%d] = %d", ErrKDMSIndexOverflow, i, v)
		}
		idx[i] = uint32(v)
	}

	buf := new(bytes.Buffer)
	buf.Grow(kdmsHeaderSize + (len(raw.Positions)+len(raw.Normals))*12 + len(idx)*4)

	buf.WriteString(kdmsMagic)
	buf.WriteByte(CurrentKDMSVersion.Major)
	buf.WriteByte(CurrentKDMSVersion.Minor)

	counts := [3]uint32{uint32(len(raw.Positions)), uint32(len(raw.Normals)), uint32(len(idx))}
	// Writes to a bytes.Buffer only fail on out-of-memory panics.
	_ = binary.Write(buf, binary.LittleEndian, counts)
	_ = binary.Write(buf, binary.LittleEndian, arrays(raw.Positions))
	_ = binary.Write(buf, binary.LittleEndian, arrays(raw.Normals))
	_ = binary.Write(buf, binary.LittleEndian, idx)

	return buf.Bytes(), nil
}

func arrays(vs []math.Vec3) [][3]float32 {
	out := make([][3]float32, len(vs))
	for i, v := range vs {
		out[i] = v.Array()
	}
	return out
}
