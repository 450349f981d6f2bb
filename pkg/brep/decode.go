package brep

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/philipparndt/osm2brep/pkg/topology"
)

// ErrMalformed is returned when the input is not a well formed BREP document.
var ErrMalformed = errors.New("malformed BREP")

type tokens struct {
	sc   *bufio.Scanner
	last string
}

func (t *tokens) next() (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: unexpected end of input after %q", ErrMalformed, t.last)
	}
	t.last = t.sc.Text()
	return t.last, nil
}

func (t *tokens) expect(word string) error {
	tok, err := t.next()
	if err != nil {
		return err
	}
	if tok != word {
		return fmt.Errorf("%w: expected %q, got %q", ErrMalformed, word, tok)
	}
	return nil
}

func (t *tokens) int() (int, error) {
	tok, err := t.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: expected integer, got %q", ErrMalformed, tok)
	}
	return n, nil
}

func (t *tokens) float() (float64, error) {
	tok, err := t.next()
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: expected number, got %q", ErrMalformed, tok)
	}
	return f, nil
}

func (t *tokens) floats(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		f, err := t.float()
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// count reads "<section> n" and fails with ErrUnsupported when the section
// must be empty but is not.
func (t *tokens) count(section string, mustBeEmpty bool) (int, error) {
	if err := t.expect(section); err != nil {
		return 0, err
	}
	n, err := t.int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative %s count", ErrMalformed, section)
	}
	if mustBeEmpty && n != 0 {
		return 0, fmt.Errorf("%w: %d %s", ErrUnsupported, n, section)
	}
	return n, nil
}

// decoded shape; exactly one field is set
type shape struct {
	kind   string
	vertex *topology.Vertex
	edge   *topology.Edge
	wire   *topology.Wire
	face   *topology.Face
	shell  []*topology.Face
	cell   *topology.Cell
	clust  *topology.Cluster
}

func (s *shape) topology() (topology.Topology, error) {
	switch {
	case s.vertex != nil:
		return s.vertex, nil
	case s.edge != nil:
		return s.edge, nil
	case s.wire != nil:
		return s.wire, nil
	case s.face != nil:
		return s.face, nil
	case s.cell != nil:
		return s.cell, nil
	case s.clust != nil:
		return s.clust, nil
	}
	return nil, fmt.Errorf("%w: free %s shape", ErrUnsupported, s.kind)
}

type decoder struct {
	tok      *tokens
	curves   int
	surfaces int
	shapes   []*shape
}

// Decode reads a BREP document written by Write. Only straight lines,
// planes and identity locations are understood; anything else fails with
// ErrUnsupported.
func Decode(r io.Reader) (topology.Topology, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	d := &decoder{tok: &tokens{sc: sc}}

	if err := d.header(); err != nil {
		return nil, err
	}
	if err := d.geometry(); err != nil {
		return nil, err
	}
	n, err := d.tok.count("TShapes", false)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		s, err := d.shape(n)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i+1, err)
		}
		d.shapes = append(d.shapes, s)
	}

	root, _, err := d.ref(n)
	if err != nil {
		return nil, err
	}
	return root.topology()
}

func (d *decoder) header() error {
	if err := d.tok.expect("CASCADE"); err != nil {
		return err
	}
	if err := d.tok.expect("Topology"); err != nil {
		return err
	}
	version, err := d.tok.next()
	if err != nil {
		return err
	}
	if strings.TrimSuffix(version, ",") != "V1" {
		return fmt.Errorf("%w: format version %s", ErrUnsupported, version)
	}
	for {
		tok, err := d.tok.next()
		if err != nil {
			return err
		}
		if tok == "Matra-Datavision" {
			return nil
		}
	}
}

func (d *decoder) geometry() error {
	if _, err := d.tok.count("Locations", true); err != nil {
		return err
	}
	if _, err := d.tok.count("Curve2ds", true); err != nil {
		return err
	}
	curves, err := d.tok.count("Curves", false)
	if err != nil {
		return err
	}
	for i := 0; i < curves; i++ {
		if err := d.record("curve", 6); err != nil {
			return err
		}
	}
	d.curves = curves
	if _, err := d.tok.count("Polygon3D", true); err != nil {
		return err
	}
	if _, err := d.tok.count("PolygonOnTriangulations", true); err != nil {
		return err
	}
	surfaces, err := d.tok.count("Surfaces", false)
	if err != nil {
		return err
	}
	for i := 0; i < surfaces; i++ {
		if err := d.record("surface", 12); err != nil {
			return err
		}
	}
	d.surfaces = surfaces
	_, err = d.tok.count("Triangulations", true)
	return err
}

// record reads a geometry record of type 1 (line or plane) with n numbers.
// The shapes are rebuilt from their vertices, so the values are dropped.
func (d *decoder) record(what string, n int) error {
	typ, err := d.tok.int()
	if err != nil {
		return err
	}
	if typ != 1 {
		return fmt.Errorf("%w: %s type %d", ErrUnsupported, what, typ)
	}
	_, err = d.tok.floats(n)
	return err
}

func (d *decoder) shape(total int) (*shape, error) {
	kind, err := d.tok.next()
	if err != nil {
		return nil, err
	}
	s := &shape{kind: kind}

	var vertex []float64
	switch kind {
	case kindVertex:
		if vertex, err = d.tok.floats(4); err != nil {
			return nil, err
		}
		for i := 0; i < 2; i++ {
			rep, err := d.tok.int()
			if err != nil {
				return nil, err
			}
			if rep != 0 {
				return nil, fmt.Errorf("%w: vertex point representation", ErrUnsupported)
			}
		}
	case kindEdge:
		if err := d.edgeGeometry(); err != nil {
			return nil, err
		}
	case kindFace:
		if err := d.faceGeometry(); err != nil {
			return nil, err
		}
	case kindWire, kindShell, kindSolid, kindCompound:
	default:
		return nil, fmt.Errorf("%w: shape kind %q", ErrUnsupported, kind)
	}

	flags, err := d.tok.next()
	if err != nil {
		return nil, err
	}
	if len(flags) != 7 || strings.Trim(flags, "01") != "" {
		return nil, fmt.Errorf("%w: bad flags %q", ErrMalformed, flags)
	}

	var children []*shape
	var reversed []bool
	for {
		tok, err := d.tok.next()
		if err != nil {
			return nil, err
		}
		if tok == "*" {
			break
		}
		child, rev, err := d.resolve(tok, total)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
		reversed = append(reversed, rev)
	}

	if err := s.build(vertex, children, reversed); err != nil {
		return nil, err
	}
	return s, nil
}

func (d *decoder) edgeGeometry() error {
	// tolerance, same parameter, same range, degenerated
	if _, err := d.tok.floats(1); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		if _, err := d.tok.int(); err != nil {
			return err
		}
	}
	for {
		rep, err := d.tok.int()
		if err != nil {
			return err
		}
		switch rep {
		case 0:
			return nil
		case 1:
			curve, err := d.tok.int()
			if err != nil {
				return err
			}
			if curve < 1 || curve > d.curves {
				return fmt.Errorf("%w: curve %d out of range", ErrMalformed, curve)
			}
			if loc, err := d.tok.int(); err != nil {
				return err
			} else if loc != 0 {
				return fmt.Errorf("%w: edge location %d", ErrUnsupported, loc)
			}
			if _, err := d.tok.floats(2); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: edge representation %d", ErrUnsupported, rep)
		}
	}
}

func (d *decoder) faceGeometry() error {
	if _, err := d.tok.int(); err != nil { // natural restriction
		return err
	}
	if _, err := d.tok.float(); err != nil {
		return err
	}
	surface, err := d.tok.int()
	if err != nil {
		return err
	}
	if surface < 1 || surface > d.surfaces {
		return fmt.Errorf("%w: surface %d out of range", ErrMalformed, surface)
	}
	loc, err := d.tok.int()
	if err != nil {
		return err
	}
	if loc != 0 {
		return fmt.Errorf("%w: face location %d", ErrUnsupported, loc)
	}
	return nil
}

// ref reads a shape reference and its location
func (d *decoder) ref(total int) (*shape, bool, error) {
	tok, err := d.tok.next()
	if err != nil {
		return nil, false, err
	}
	return d.resolve(tok, total)
}

func (d *decoder) resolve(tok string, total int) (*shape, bool, error) {
	if len(tok) < 2 || (tok[0] != '+' && tok[0] != '-') {
		return nil, false, fmt.Errorf("%w: bad shape reference %q", ErrMalformed, tok)
	}
	n, err := strconv.Atoi(tok[1:])
	if err != nil {
		return nil, false, fmt.Errorf("%w: bad shape reference %q", ErrMalformed, tok)
	}
	loc, err := d.tok.int()
	if err != nil {
		return nil, false, err
	}
	if loc != 0 {
		return nil, false, fmt.Errorf("%w: shape location %d", ErrUnsupported, loc)
	}
	idx := total - n + 1
	if idx < 1 || idx > len(d.shapes) {
		return nil, false, fmt.Errorf("%w: reference %q points forward or out of range", ErrMalformed, tok)
	}
	return d.shapes[idx-1], tok[0] == '-', nil
}

func (s *shape) build(point []float64, children []*shape, reversed []bool) error {
	var err error
	switch s.kind {
	case kindVertex:
		s.vertex = topology.NewVertex(point[1], point[2], point[3])
	case kindEdge:
		var start, end *topology.Vertex
		for i, c := range children {
			if c.vertex == nil {
				return fmt.Errorf("%w: edge child is a %s", ErrMalformed, c.kind)
			}
			if reversed[i] {
				end = c.vertex
			} else {
				start = c.vertex
			}
		}
		s.edge, err = topology.NewEdge(start, end)
	case kindWire:
		parts := make([]topology.OrientedEdge, len(children))
		for i, c := range children {
			if c.edge == nil {
				return fmt.Errorf("%w: wire child is a %s", ErrMalformed, c.kind)
			}
			parts[i] = topology.OrientedEdge{Edge: c.edge, Reversed: reversed[i]}
		}
		s.wire, err = topology.NewOrientedWire(parts)
	case kindFace:
		if len(children) == 0 {
			return fmt.Errorf("%w: face without wires", ErrMalformed)
		}
		wires := make([]*topology.Wire, len(children))
		for i, c := range children {
			if c.wire == nil {
				return fmt.Errorf("%w: face child is a %s", ErrMalformed, c.kind)
			}
			wires[i] = c.wire
		}
		s.face, err = topology.NewFace(wires[0], wires[1:])
	case kindShell:
		for _, c := range children {
			if c.face == nil {
				return fmt.Errorf("%w: shell child is a %s", ErrMalformed, c.kind)
			}
			s.shell = append(s.shell, c.face)
		}
	case kindSolid:
		var faces []*topology.Face
		for _, c := range children {
			if c.kind != kindShell {
				return fmt.Errorf("%w: solid child is a %s", ErrMalformed, c.kind)
			}
			faces = append(faces, c.shell...)
		}
		s.cell, err = topology.NewCell(faces)
	case kindCompound:
		members := make([]topology.Topology, 0, len(children))
		for _, c := range children {
			m, err := c.topology()
			if err != nil {
				return err
			}
			members = append(members, m)
		}
		s.clust, err = topology.NewCluster(members)
	}
	return err
}
