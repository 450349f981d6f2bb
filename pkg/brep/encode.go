// Package brep reads and writes the OpenCASCADE ASCII boundary
// representation format ("CASCADE Topology V1") for the planar,
// straight-edged shapes of the topology package.
package brep

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/philipparndt/osm2brep/pkg/geometry"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// ErrUnsupported is returned for content outside the subset this package
// reads and writes.
var ErrUnsupported = errors.New("unsupported BREP content")

// Tolerance written for every vertex, edge and face
const Tolerance = 1e-7

const header = "CASCADE Topology V1, (c) Matra-Datavision"

// Shape kinds as they appear in the TShapes section
const (
	kindVertex   = "Ve"
	kindEdge     = "Ed"
	kindWire     = "Wi"
	kindFace     = "Fa"
	kindShell    = "Sh"
	kindSolid    = "So"
	kindCompound = "Co"
)

type ref struct {
	index    int // 1-based position in the shape table
	reversed bool
}

type tshape struct {
	kind     string
	geometry []string
	closed   bool
	children []ref
}

type encoder struct {
	shapes   []*tshape
	index    map[any]int
	curves   []string
	surfaces []string
}

// Encode returns the BREP text of t
func Encode(t topology.Topology) (string, error) {
	var b strings.Builder
	if err := Write(&b, t); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Write writes the BREP text of t to w
func Write(w io.Writer, t topology.Topology) error {
	if t == nil {
		return fmt.Errorf("%w: nothing to encode", ErrUnsupported)
	}
	e := &encoder{index: make(map[any]int)}
	root, err := e.add(t)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, header)
	fmt.Fprintln(bw, "Locations 0")
	fmt.Fprintln(bw, "Curve2ds 0")
	fmt.Fprintf(bw, "Curves %d\n", len(e.curves))
	for _, c := range e.curves {
		fmt.Fprintln(bw, c)
	}
	fmt.Fprintln(bw, "Polygon3D 0")
	fmt.Fprintln(bw, "PolygonOnTriangulations 0")
	fmt.Fprintf(bw, "Surfaces %d\n", len(e.surfaces))
	for _, s := range e.surfaces {
		fmt.Fprintln(bw, s)
	}
	fmt.Fprintln(bw, "Triangulations 0")
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "TShapes %d\n", len(e.shapes))
	for _, s := range e.shapes {
		e.writeShape(bw, s)
	}
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "%s 0 \n", e.refString(root))

	return bw.Flush()
}

func (e *encoder) push(key any, s *tshape) ref {
	e.shapes = append(e.shapes, s)
	idx := len(e.shapes)
	if key != nil {
		e.index[key] = idx
	}
	return ref{index: idx}
}

func (e *encoder) add(t topology.Topology) (ref, error) {
	if idx, ok := e.index[t]; ok {
		return ref{index: idx}, nil
	}
	switch v := t.(type) {
	case *topology.Vertex:
		return e.vertex(v), nil
	case *topology.Edge:
		return e.edge(v), nil
	case *topology.Wire:
		return e.wire(v), nil
	case *topology.Face:
		return e.face(v, true)
	case *topology.Aperture:
		return e.add(v.Topology())
	case *topology.Cell:
		return e.cell(v)
	case *topology.Cluster:
		children := make([]ref, 0, v.Len())
		for _, m := range v.Members() {
			r, err := e.add(m)
			if err != nil {
				return ref{}, err
			}
			children = append(children, r)
		}
		return e.push(v, &tshape{kind: kindCompound, children: children}), nil
	default:
		return ref{}, fmt.Errorf("%w: topology type %T", ErrUnsupported, t)
	}
}

func (e *encoder) vertex(v *topology.Vertex) ref {
	if idx, ok := e.index[v]; ok {
		return ref{index: idx}
	}
	return e.push(v, &tshape{
		kind: kindVertex,
		geometry: []string{
			num(Tolerance),
			vec(v.Point()),
			"0 0",
		},
	})
}

func (e *encoder) edge(ed *topology.Edge) ref {
	if idx, ok := e.index[ed]; ok {
		return ref{index: idx}
	}
	start := e.vertex(ed.Start())
	end := e.vertex(ed.End())

	origin := ed.Start().Point()
	dir := ed.End().Point().Sub(origin).Normalize()
	e.curves = append(e.curves, "1 "+vec(origin)+" "+vec(dir))

	return e.push(ed, &tshape{
		kind: kindEdge,
		geometry: []string{
			" " + num(Tolerance) + " 1 1 0",
			fmt.Sprintf("1  %d 0 0 %s", len(e.curves), num(ed.Length())),
			"0",
		},
		children: []ref{start, {index: end.index, reversed: true}},
	})
}

func (e *encoder) wire(w *topology.Wire) ref {
	if idx, ok := e.index[w]; ok {
		return ref{index: idx}
	}
	children := make([]ref, 0, w.Len())
	for _, oe := range w.Edges() {
		r := e.edge(oe.Edge)
		r.reversed = oe.Reversed
		children = append(children, r)
	}
	return e.push(w, &tshape{kind: kindWire, closed: w.IsClosed(), children: children})
}

func (e *encoder) face(f *topology.Face, register bool) (ref, error) {
	if idx, ok := e.index[f]; ok {
		return ref{index: idx}, nil
	}
	plane, err := planeOf(f.ExternalBoundary())
	if err != nil {
		return ref{}, err
	}

	children := make([]ref, 0, 1+len(f.InternalBoundaries()))
	for _, w := range f.Wires() {
		children = append(children, e.wire(w))
	}
	e.surfaces = append(e.surfaces, plane)

	s := &tshape{
		kind:     kindFace,
		geometry: []string{fmt.Sprintf("0  %s %d 0", num(Tolerance), len(e.surfaces))},
		children: children,
	}
	var key any
	if register {
		key = f
	}
	return e.push(key, s), nil
}

func (e *encoder) cell(c *topology.Cell) (ref, error) {
	faces := c.Faces()
	reversed := signedVolume(faces) < 0

	children := make([]ref, 0, len(faces))
	for _, f := range faces {
		r, err := e.face(f, true)
		if err != nil {
			return ref{}, err
		}
		r.reversed = reversed
		children = append(children, r)
	}
	shell := e.push(nil, &tshape{kind: kindShell, closed: c.IsClosed(), children: children})
	return e.push(c, &tshape{kind: kindSolid, children: []ref{shell}}), nil
}

func (e *encoder) writeShape(w *bufio.Writer, s *tshape) {
	fmt.Fprintln(w, s.kind)
	for _, g := range s.geometry {
		fmt.Fprintln(w, g)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, flags(s))
	for i, c := range s.children {
		if i > 0 && i%10 == 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s 0 ", e.refString(c))
	}
	fmt.Fprintln(w, "*")
}

// refString numbers shapes from the end of the table, so the last shape
// written (the root) is 1.
func (e *encoder) refString(r ref) string {
	orient := "+"
	if r.reversed {
		orient = "-"
	}
	return orient + strconv.Itoa(len(e.shapes)-r.index+1)
}

// flags renders Free, Modified, Checked, Orientable, Closed, Infinite and
// Convex.
func flags(s *tshape) string {
	switch s.kind {
	case kindVertex:
		return "0101101"
	case kindWire, kindShell:
		if s.closed {
			return "0101100"
		}
		return "0101000"
	case kindSolid:
		return "0100000"
	case kindCompound:
		return "1100000"
	default:
		return "0101000"
	}
}

// planeOf returns the BREP plane record (location, normal, X and Y
// directions) of a planar wire.
func planeOf(w *topology.Wire) (string, error) {
	points := points(w)
	n := geometry.NewellNormal(points)
	if n.Len() == 0 {
		return "", fmt.Errorf("%w: face has no plane", topology.ErrInvalidGeometry)
	}
	n = n.Normalize()

	origin := points[0]
	x := points[1].Sub(origin)
	x = x.Sub(n.Mul(x.Dot(n)))
	if x.Len() < 1e-12 {
		x = anyPerpendicular(n)
	}
	x = x.Normalize()
	y := n.Cross(x)

	return "1 " + vec(origin) + " " + vec(n) + " " + vec(x) + " " + vec(y), nil
}

func anyPerpendicular(n mgl64.Vec3) mgl64.Vec3 {
	if n[0]*n[0] < 0.5 {
		return mgl64.Vec3{1, 0, 0}.Sub(n.Mul(n[0]))
	}
	return mgl64.Vec3{0, 1, 0}.Sub(n.Mul(n[1]))
}

func points(w *topology.Wire) []mgl64.Vec3 {
	vs := w.Vertices()
	out := make([]mgl64.Vec3, len(vs))
	for i, v := range vs {
		out[i] = v.Point()
	}
	return out
}

// signedVolume is positive when the outer wires wind counter-clockwise seen
// from outside the cell.
func signedVolume(faces []*topology.Face) float64 {
	total := 0.0
	for _, f := range faces {
		ps := points(f.ExternalBoundary())
		total += ps[0].Dot(geometry.NewellNormal(ps))
	}
	return total / 6.0
}

func num(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of negative zero
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func vec(p mgl64.Vec3) string {
	return num(p[0]) + " " + num(p[1]) + " " + num(p[2])
}
