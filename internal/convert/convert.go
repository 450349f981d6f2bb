// Package convert rebuilds the spaces of a building model as solid cells.
package convert

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/philipparndt/osm2brep/pkg/geometry"
	"github.com/philipparndt/osm2brep/pkg/kernel"
	"github.com/philipparndt/osm2brep/pkg/osm"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// Converter turns model geometry into topology through a kernel
type Converter struct {
	kernel      kernel.Kernel
	log         *slog.Logger
	placement   topology.Placement
	skipInvalid bool
}

// Option configures a Converter
type Option func(*Converter)

// WithLogger sets the logger; nil keeps slog.Default()
func WithLogger(log *slog.Logger) Option {
	return func(c *Converter) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPlacement sets where apertures are anchored on their host
func WithPlacement(p topology.Placement) Option {
	return func(c *Converter) { c.placement = p }
}

// WithSkipInvalidSpaces makes Convert drop spaces with invalid geometry
// (logged at warn level) instead of failing.
func WithSkipInvalidSpaces(skip bool) Option {
	return func(c *Converter) { c.skipInvalid = skip }
}

// New returns a Converter building through k, anchoring apertures at the
// center of their host unless configured otherwise.
func New(k kernel.Kernel, opts ...Option) *Converter {
	c := &Converter{
		kernel:    k,
		log:       slog.Default(),
		placement: topology.CenterPlacement,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FaceFromVertices builds a face bounded by the polygon through points: one
// edge per consecutive pair and a closing edge from the last point back to
// the first.
func (c *Converter) FaceFromVertices(points []mgl64.Vec3) (*topology.Face, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: %d vertices cannot bound a face", topology.ErrInvalidGeometry, len(points))
	}

	vertices := make([]*topology.Vertex, len(points))
	for i, p := range points {
		vertices[i] = c.kernel.Vertex(p[0], p[1], p[2])
	}

	edges := make([]*topology.Edge, 0, len(vertices))
	for i := range vertices {
		next := vertices[(i+1)%len(vertices)]
		e, err := c.kernel.Edge(vertices[i], next)
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i+1, err)
		}
		edges = append(edges, e)
	}

	wire, err := c.kernel.Wire(edges)
	if err != nil {
		return nil, err
	}
	return c.kernel.Face(wire, nil)
}

// SpaceResult is the rebuilt geometry of one space in building coordinates
type SpaceResult struct {
	Space     *osm.Space
	Cell      *topology.Cell
	Apertures []*topology.Aperture
}

// ReconstructSpace builds the cell of one space. Sub-surfaces are attached
// as apertures of their transformed host face. Any failing surface fails
// the whole space.
func (c *Converter) ReconstructSpace(space *osm.Space) (*SpaceResult, error) {
	t := space.Transformation()

	faces := make([]*topology.Face, 0, len(space.Surfaces))
	for _, s := range space.Surfaces {
		face, err := c.surface(s, t)
		if err != nil {
			return nil, fmt.Errorf("surface %q: %w", s.Name, err)
		}
		faces = append(faces, face)
	}

	cell, err := c.kernel.Cell(faces)
	if err != nil {
		return nil, err
	}

	apertures := lo.FlatMap(cell.Faces(), func(f *topology.Face, _ int) []*topology.Aperture {
		return f.Apertures()
	})
	return &SpaceResult{Space: space, Cell: cell, Apertures: apertures}, nil
}

func (c *Converter) surface(s *osm.Surface, t geometry.Transform) (*topology.Face, error) {
	host, err := c.placedFace(s.Vertices, t)
	if err != nil {
		return nil, err
	}

	for _, sub := range s.SubSurfaces {
		aperture, err := c.placedFace(sub.Vertices, t)
		if err != nil {
			return nil, fmt.Errorf("sub-surface %q: %w", sub.Name, err)
		}
		host, err = c.kernel.AddApertures(host, []*topology.Face{aperture}, c.placement)
		if err != nil {
			return nil, fmt.Errorf("sub-surface %q: %w", sub.Name, err)
		}
	}
	return host, nil
}

// Result holds everything rebuilt from a model
type Result struct {
	Spaces  []*SpaceResult
	Shading []*topology.Face
	// Skipped names the spaces dropped for invalid geometry
	Skipped []string
}

// Cells returns the cell of every rebuilt space
func (r *Result) Cells() []*topology.Cell {
	return lo.Map(r.Spaces, func(s *SpaceResult, _ int) *topology.Cell { return s.Cell })
}

// Apertures returns the aperture faces of every rebuilt space
func (r *Result) Apertures() []*topology.Face {
	return lo.FlatMap(r.Spaces, func(s *SpaceResult, _ int) []*topology.Face {
		return lo.Map(s.Apertures, func(a *topology.Aperture, _ int) *topology.Face { return a.Topology() })
	})
}

// Convert rebuilds every space and shading surface of model in one pass.
func (c *Converter) Convert(model *osm.Model) (*Result, error) {
	result := &Result{}
	for _, space := range model.Spaces {
		sr, err := c.ReconstructSpace(space)
		if err != nil {
			if c.skipInvalid && errors.Is(err, topology.ErrInvalidGeometry) {
				c.log.Warn("Skipping space with invalid geometry", "space", space.Name, "error", err)
				result.Skipped = append(result.Skipped, space.Name)
				continue
			}
			return nil, fmt.Errorf("space %q: %w", space.Name, err)
		}
		c.log.Debug("Space rebuilt",
			"space", space.Name,
			"faces", len(sr.Cell.Faces()),
			"apertures", len(sr.Apertures),
			"closed", sr.Cell.IsClosed())
		result.Spaces = append(result.Spaces, sr)
	}

	shading, err := c.Shading(model)
	if err != nil {
		return nil, err
	}
	result.Shading = shading
	return result, nil
}

// Shading rebuilds every shading surface in building coordinates
func (c *Converter) Shading(model *osm.Model) ([]*topology.Face, error) {
	var faces []*topology.Face
	for _, g := range model.ShadingGroups {
		t := g.Transformation()
		for _, s := range g.Surfaces {
			face, err := c.placedFace(s.Vertices, t)
			if err != nil {
				if c.skipInvalid && errors.Is(err, topology.ErrInvalidGeometry) {
					c.log.Warn("Skipping invalid shading surface", "group", g.Name, "surface", s.Name, "error", err)
					continue
				}
				return nil, fmt.Errorf("shading surface %q: %w", s.Name, err)
			}
			faces = append(faces, face)
		}
	}
	return faces, nil
}

func (c *Converter) placedFace(points []mgl64.Vec3, t geometry.Transform) (*topology.Face, error) {
	local, err := c.FaceFromVertices(points)
	if err != nil {
		return nil, err
	}
	return c.kernel.TransformFace(local, t)
}

// Clusters groups a result for export
type Clusters struct {
	Cells     *topology.Cluster
	Apertures *topology.Cluster
	Shading   *topology.Cluster
}

// Aggregate collects all cells, all aperture faces and all shading faces
// into one cluster each. Nothing is deduplicated.
func (c *Converter) Aggregate(r *Result) (*Clusters, error) {
	cells, err := c.kernel.Cluster(members(r.Cells()))
	if err != nil {
		return nil, fmt.Errorf("cluster cells: %w", err)
	}
	apertures, err := c.kernel.Cluster(members(r.Apertures()))
	if err != nil {
		return nil, fmt.Errorf("cluster apertures: %w", err)
	}
	shading, err := c.kernel.Cluster(members(r.Shading))
	if err != nil {
		return nil, fmt.Errorf("cluster shading: %w", err)
	}
	return &Clusters{Cells: cells, Apertures: apertures, Shading: shading}, nil
}

func members[T topology.Topology](items []T) []topology.Topology {
	return lo.Map(items, func(item T, _ int) topology.Topology { return item })
}
