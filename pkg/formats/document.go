package formats

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/kdmesh/pkg/math"
	"github.com/Faultbox/kdmesh/pkg/mesh"
)

// ErrInvalidTransform is returned for malformed document transforms.
var ErrInvalidTransform = errors.New("invalid transform")

// Document is the YAML/JSON representation of a mesh.
type Document struct {
	Name      string       `yaml:"name,omitempty" json:"name,omitempty"`
	Positions [][3]float32 `yaml:"positions" json:"positions"`
	Normals   [][3]float32 `yaml:"normals,omitempty" json:"normals,omitempty"`
	Indices   []int        `yaml:"indices,flow" json:"indices"`
	Transform *Transform   `yaml:"transform,omitempty" json:"transform,omitempty"`
}

// Transform is applied to positions and normals at load time, in the order
// scale, rotate, translate.
type Transform struct {
	Translate [3]float32 `yaml:"translate,flow" json:"translate"`
	// Scale holds one uniform factor or one factor per axis. Empty means 1.
	Scale  []float32 `yaml:"scale,flow,omitempty" json:"scale,omitempty"`
	Rotate *Rotation `yaml:"rotate,omitempty" json:"rotate,omitempty"`
}

// Rotation is an axis-angle rotation.
type Rotation struct {
	Axis    [3]float32 `yaml:"axis,flow" json:"axis"`
	Degrees float32    `yaml:"degrees" json:"degrees"`
}

// Matrix returns the model matrix for t.
func (t *Transform) Matrix() (math.Mat4, error) {
	scale := math.Vec3{X: 1, Y: 1, Z: 1}
	switch len(t.Scale) {
	case 0:
	case 1:
		scale = math.Vec3{X: t.Scale[0], Y: t.Scale[0], Z: t.Scale[0]}
	case 3:
		scale = math.Vec3{X: t.Scale[0], Y: t.Scale[1], Z: t.Scale[2]}
	default:
		return math.Mat4{}, fmt.Errorf("%w: scale has %d components", ErrInvalidTransform, len(t.Scale))
	}

	rot := math.QuatIdentity()
	if t.Rotate != nil && t.Rotate.Degrees != 0 {
		axis := math.FromArray(t.Rotate.Axis)
		if axis.Length() == 0 {
			return math.Mat4{}, fmt.Errorf("%w: zero rotation axis", ErrInvalidTransform)
		}
		rot = math.QuatFromAxisAngle(axis.Normalize(), t.Rotate.Degrees*gomath.Pi/180)
	}

	return math.TRS(math.FromArray(t.Translate), rot, scale), nil
}

// NewDocument converts raw into a document.
func NewDocument(name string, raw mesh.RawMesh) *Document {
	doc := &Document{
		Name:      name,
		Positions: arrays(raw.Positions),
		Indices:   append([]int(nil), raw.Indices...),
	}
	if len(raw.Normals) > 0 {
		doc.Normals = arrays(raw.Normals)
	}
	return doc
}

// Mesh converts the document into a validated mesh with its transform
// applied.
func (d *Document) Mesh() (mesh.RawMesh, error) {
	raw := mesh.RawMesh{
		Positions: make([]math.Vec3, len(d.Positions)),
		Indices:   append([]int(nil), d.Indices...),
	}
	for i, p := range d.Positions {
		raw.Positions[i] = math.FromArray(p)
	}
	if len(d.Normals) > 0 {
		raw.Normals = make([]math.Vec3, len(d.Normals))
		for i, n := range d.Normals {
			raw.Normals[i] = math.FromArray(n)
		}
	}

	if err := raw.Validate(); err != nil {
		return mesh.RawMesh{}, err
	}

	if d.Transform != nil {
		xf, err := d.Transform.Matrix()
		if err != nil {
			return mesh.RawMesh{}, err
		}
		raw = raw.Transform(xf)
	}
	return raw, nil
}

// EncodeYAML serializes the document as YAML.
func (d *Document) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// EncodeJSON serializes the document as indented JSON.
func (d *Document) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// DecodeYAML parses a YAML mesh document.
func DecodeYAML(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML mesh: %w", err)
	}
	return &doc, nil
}

// DecodeJSON parses a JSON mesh document.
func DecodeJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON mesh: %w", err)
	}
	return &doc, nil
}

func decodeDocument(f Format, data []byte) (*Document, error) {
	if f == FormatJSON {
		return DecodeJSON(data)
	}
	return DecodeYAML(data)
}
