package reader

import (
	"fmt"

	"github.com/achilleasa/playground/asset"
	"github.com/achilleasa/playground/scene"
)

// The Reader interface is implemented by all mesh readers.
type Reader interface {
	// Read mesh data from a resource.
	Read(*asset.Resource) (*scene.Mesh, error)
}

// The MeshLoader selects a mesh reader based on the file extension. It
// satisfies the scene.MeshLoader interface used by the geometry catalog.
type MeshLoader struct{}

// Create a mesh loader.
func NewMeshLoader() *MeshLoader {
	return &MeshLoader{}
}

// Load mesh data from a local path or an http(s) URL.
func (l *MeshLoader) Load(path string) (*scene.Mesh, error) {
	return ReadMesh(path)
}

// Read mesh from file.
func ReadMesh(filename string) (*scene.Mesh, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	var reader Reader
	switch res.Ext() {
	case ".obj":
		reader = newWavefrontReader()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, res.Ext())
	}
	return reader.Read(res)
}
