// Package topology holds the boundary-representation data model produced by
// the conversion: vertices, edges, wires, faces, cells, clusters and
// apertures. Values are built once and never mutated; operations that
// change a structure return a new one.
package topology

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is returned when a boundary cannot form a valid
// edge, wire, face or cell.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Type identifies the kind of a topology. The values follow the Topologic
// numbering so that type filters can be combined as bit masks.
type Type int

const (
	TypeVertex      Type = 1
	TypeEdge        Type = 2
	TypeWire        Type = 4
	TypeFace        Type = 8
	TypeShell       Type = 16
	TypeCell        Type = 32
	TypeCellComplex Type = 64
	TypeCluster     Type = 128
	TypeAperture    Type = 256
)

func (t Type) String() string {
	switch t {
	case TypeVertex:
		return "Vertex"
	case TypeEdge:
		return "Edge"
	case TypeWire:
		return "Wire"
	case TypeFace:
		return "Face"
	case TypeShell:
		return "Shell"
	case TypeCell:
		return "Cell"
	case TypeCellComplex:
		return "CellComplex"
	case TypeCluster:
		return "Cluster"
	case TypeAperture:
		return "Aperture"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Topology is implemented by every structure in the model
type Topology interface {
	Type() Type
	// Vertices returns the distinct vertices of the structure in the order
	// they are first reached.
	Vertices() []*Vertex
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidGeometry, fmt.Sprintf(format, args...))
}

// collectVertices appends the vertices of w to out, skipping ones already seen.
func collectVertices(w *Wire, seen map[*Vertex]bool, out []*Vertex) []*Vertex {
	for _, v := range w.Vertices() {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
