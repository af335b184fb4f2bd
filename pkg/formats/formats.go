// Package formats reads and writes mesh files.
//
// Three encodings are supported, chosen by file extension: YAML and JSON
// documents (.yaml, .yml, .json) meant to be written by hand, and the
// compact little-endian KDMS binary (.kdms).
package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/kdmesh/pkg/mesh"
)

// ErrUnknownMeshFormat is returned for unrecognized file extensions.
var ErrUnknownMeshFormat = errors.New("unknown mesh format")

// Format identifies a mesh file encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatKDMS
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatKDMS:
		return "kdms"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath returns the format implied by the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".kdms":
		return FormatKDMS, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMeshFormat, ext)
	}
}

// Decode parses data in format f into a validated mesh. Document
// transforms are applied.
func Decode(f Format, data []byte) (mesh.RawMesh, error) {
	var raw mesh.RawMesh
	switch f {
	case FormatYAML, FormatJSON:
		doc, err := decodeDocument(f, data)
		if err != nil {
			return mesh.RawMesh{}, err
		}
		if raw, err = doc.Mesh(); err != nil {
			return mesh.RawMesh{}, err
		}
	case FormatKDMS:
		var err error
		if raw, err = ParseKDMS(data); err != nil {
			return mesh.RawMesh{}, err
		}
	default:
		return mesh.RawMesh{}, fmt.Errorf("%w: %s", ErrUnknownMeshFormat, f)
	}

	if err := raw.Validate(); err != nil {
		return mesh.RawMesh{}, err
	}
	return raw, nil
}

// Encode serializes raw in format f. name is stored by the document
// formats and ignored by KDMS.
func Encode(f Format, name string, raw mesh.RawMesh) ([]byte, error) {
	switch f {
	case FormatYAML:
		return NewDocument(name, raw).EncodeYAML()
	case FormatJSON:
		return NewDocument(name, raw).EncodeJSON()
	case FormatKDMS:
		return EncodeKDMS(raw)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMeshFormat, f)
	}
}

// LoadMesh reads the mesh file at path.
func LoadMesh(path string) (mesh.RawMesh, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return mesh.RawMesh{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return mesh.RawMesh{}, fmt.Errorf("reading mesh file: %w", err)
	}

	raw, err := Decode(f, data)
	if err != nil {
		return mesh.RawMesh{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return raw, nil
}

// SaveMesh writes raw to path, creating parent directories as needed. The
// document name is taken from the file name.
func SaveMesh(path string, raw mesh.RawMesh) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := Encode(f, name, raw)
	if err != nil {
		return fmt.Errorf("encoding mesh: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating mesh directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing mesh file: %w", err)
	}
	return nil
}
