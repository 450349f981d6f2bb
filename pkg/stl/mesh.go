package stl

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/philipparndt/osm2brep/pkg/geometry"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// FromTopology triangulates every face of t. Each triangle takes the unit
// normal of its face's outer boundary. Holes are not cut out.
func FromTopology(t topology.Topology, name string) (*Model, error) {
	faces, err := facesOf(t)
	if err != nil {
		return nil, err
	}

	model := NewModel(name)
	for i, f := range faces {
		vs := f.ExternalBoundary().Vertices()
		points := make([]mgl64.Vec3, len(vs))
		for j, v := range vs {
			points[j] = v.Point()
		}

		indices, err := geometry.Triangulate(points)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i+1, err)
		}
		normal := geometry.NewellNormal(points).Normalize()
		for _, tri := range indices {
			model.AddTriangle(geometry.Triangle{
				Normal: normal,
				V1:     points[tri[0]],
				V2:     points[tri[1]],
				V3:     points[tri[2]],
			})
		}
	}
	return model, nil
}

func facesOf(t topology.Topology) ([]*topology.Face, error) {
	switch v := t.(type) {
	case *topology.Face:
		return []*topology.Face{v}, nil
	case *topology.Aperture:
		return []*topology.Face{v.Topology()}, nil
	case *topology.Cell:
		return v.Faces(), nil
	case *topology.Cluster:
		faces := v.Faces()
		for _, c := range v.Cells() {
			faces = append(faces, c.Faces()...)
		}
		return faces, nil
	default:
		return nil, fmt.Errorf("cannot mesh a %T", t)
	}
}
