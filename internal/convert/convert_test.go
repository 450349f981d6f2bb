package convert

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/osm2brep/pkg/geometry"
	"github.com/philipparndt/osm2brep/pkg/kernel"
	"github.com/philipparndt/osm2brep/pkg/kernel/occt"
	"github.com/philipparndt/osm2brep/pkg/osm"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// recordingKernel passes every call to a real kernel and remembers what it
// was asked to do.
type recordingKernel struct {
	kernel.Kernel
	edges      [][2]mgl64.Vec3
	transforms []geometry.Transform
	placements []topology.Placement
	cells      int
}

func newRecordingKernel() *recordingKernel {
	return &recordingKernel{Kernel: occt.New()}
}

func (r *recordingKernel) Edge(start, end *topology.Vertex) (*topology.Edge, error) {
	r.edges = append(r.edges, [2]mgl64.Vec3{start.Point(), end.Point()})
	return r.Kernel.Edge(start, end)
}

func (r *recordingKernel) TransformFace(f *topology.Face, t geometry.Transform) (*topology.Face, error) {
	r.transforms = append(r.transforms, t)
	return r.Kernel.TransformFace(f, t)
}

func (r *recordingKernel) AddApertures(host *topology.Face, apertures []*topology.Face, at topology.Placement) (*topology.Face, error) {
	r.placements = append(r.placements, at)
	return r.Kernel.AddApertures(host, apertures, at)
}

func (r *recordingKernel) Cell(faces []*topology.Face) (*topology.Cell, error) {
	r.cells++
	return r.Kernel.Cell(faces)
}

func points(f *topology.Face) []mgl64.Vec3 {
	return lo.Map(f.ExternalBoundary().Vertices(), func(v *topology.Vertex, _ int) mgl64.Vec3 {
		return v.Point()
	})
}

func loadFixture(t *testing.T, name string) *osm.Model {
	t.Helper()
	model, err := osm.Load(filepath.Join("testdata", name), osm.Options{})
	require.NoError(t, err)
	return model
}

func TestFaceFromVertices(t *testing.T) {
	tests := []struct {
		name   string
		points []mgl64.Vec3
	}{
		{"triangle", []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}},
		{"square", []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}},
		{"l-shape", []mgl64.Vec3{{0, 0, 0}, {2, 0, 0}, {2, 1, 0}, {1, 1, 0}, {1, 2, 0}, {0, 2, 0}}},
		{"vertical", []mgl64.Vec3{{0, 0, 3}, {0, 0, 0}, {5, 0, 0}, {5, 0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := newRecordingKernel()
			face, err := New(k).FaceFromVertices(tt.points)
			require.NoError(t, err)

			wire := face.ExternalBoundary()
			assert.Equal(t, len(tt.points), wire.Len())
			assert.True(t, wire.IsClosed())
			assert.Empty(t, face.InternalBoundaries())
			assert.Equal(t, tt.points, points(face))

			// edges follow the input order with the closing edge last
			require.Len(t, k.edges, len(tt.points))
			for i, e := range k.edges {
				assert.Equal(t, tt.points[i], e[0])
				assert.Equal(t, tt.points[(i+1)%len(tt.points)], e[1])
			}
			edges := wire.Edges()
			assert.Same(t, edges[len(edges)-1].To(), edges[0].From())
		})
	}
}

func TestFaceFromVerticesRejectsDegenerate(t *testing.T) {
	c := New(occt.New())
	for _, pts := range [][]mgl64.Vec3{
		nil,
		{{1, 2, 3}},
		{{0, 0, 0}, {1, 0, 0}},
		{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		{{0, 0, 0}, {0, 0, 0}, {1, 1, 0}},
	} {
		_, err := c.FaceFromVertices(pts)
		assert.ErrorIs(t, err, topology.ErrInvalidGeometry, "%v", pts)
	}
}

func TestIdentityTransformKeepsVertices(t *testing.T) {
	k := occt.New()
	in := []mgl64.Vec3{{1.5, -2, 0.25}, {4, -2, 0.25}, {4, 3, 0.25}, {1.5, 3, 0.25}}
	face, err := New(k).FaceFromVertices(in)
	require.NoError(t, err)

	out, err := k.TransformFace(face, geometry.Identity())
	require.NoError(t, err)
	for i, p := range points(out) {
		assert.True(t, p.ApproxEqualThreshold(in[i], 1e-12), "vertex %d: %v", i, p)
	}

	zeroNorth := (&osm.Space{}).Transformation()
	out, err = k.TransformFace(face, zeroNorth)
	require.NoError(t, err)
	for i, p := range points(out) {
		assert.True(t, p.ApproxEqualThreshold(in[i], 1e-12), "vertex %d: %v", i, p)
	}
}

func TestTransformRoundTrip(t *testing.T) {
	k := occt.New()
	in := []mgl64.Vec3{{0, 0, 0}, {3, 0, 0}, {3, 0, 2}, {0, 0, 2}}
	face, err := New(k).FaceFromVertices(in)
	require.NoError(t, err)

	for _, north := range []float64{0, 30, 90, 181.5, -45} {
		tr := geometry.FromOrigin(mgl64.Vec3{12.5, -3, 4}, north)
		inv, err := tr.Inverse()
		require.NoError(t, err)

		moved, err := k.TransformFace(face, tr)
		require.NoError(t, err)
		back, err := k.TransformFace(moved, inv)
		require.NoError(t, err)

		for i, p := range points(back) {
			assert.True(t, p.ApproxEqualThreshold(in[i], 1e-9), "north %v vertex %d: %v", north, i, p)
		}
	}
}

func TestFourWallsWithWindow(t *testing.T) {
	model := loadFixture(t, "four_walls.osm")
	k := newRecordingKernel()
	c := New(k)

	result, err := c.Convert(model)
	require.NoError(t, err)

	require.Len(t, result.Spaces, 1)
	sr := result.Spaces[0]
	assert.Len(t, sr.Cell.Faces(), 4)
	assert.False(t, sr.Cell.IsClosed(), "four walls leave the top and bottom open")

	require.Len(t, sr.Apertures, 1)
	ap := sr.Apertures[0]
	assert.Equal(t, topology.Placement{U: 0.5, V: 0.5, W: 0.5}, ap.Placement())
	assert.True(t, lo.Contains(sr.Cell.Faces(), ap.Host()), "host is a face of the cell")
	assert.Equal(t, []mgl64.Vec3{{0, 0, 2.5}, {0, 0, 0}, {4, 0, 0}, {4, 0, 2.5}}, points(ap.Host()))
	assert.Equal(t, []mgl64.Vec3{{1, 0, 2}, {1, 0, 0.5}, {3, 0, 0.5}, {3, 0, 2}}, points(ap.Topology()))

	for _, f := range sr.Cell.Faces() {
		for _, a := range f.Apertures() {
			assert.NotContains(t, sr.Cell.Faces(), a.Topology(), "apertures are not cell faces")
		}
	}

	// one transform per surface and sub-surface, all with the space transform
	require.Len(t, k.transforms, 5)
	want := model.Spaces[0].Transformation()
	for _, tr := range k.transforms {
		assert.Equal(t, want, tr)
	}
	assert.Equal(t, []topology.Placement{topology.CenterPlacement}, k.placements)
	assert.Equal(t, 1, k.cells)

	assert.Len(t, result.Cells(), 1)
	assert.Len(t, result.Apertures(), 1)
	assert.Empty(t, result.Shading)
}

func TestConfiguredPlacement(t *testing.T) {
	model := loadFixture(t, "four_walls.osm")
	k := newRecordingKernel()
	at := topology.Placement{U: 0.25, V: 0, W: 1}

	result, err := New(k, WithPlacement(at)).Convert(model)
	require.NoError(t, err)
	assert.Equal(t, at, result.Spaces[0].Apertures[0].Placement())
	assert.Equal(t, []topology.Placement{at}, k.placements)
}

func TestInvalidSpaceAbortsByDefault(t *testing.T) {
	model := loadFixture(t, "two_spaces.osm")

	_, err := New(occt.New()).Convert(model)
	require.ErrorIs(t, err, topology.ErrInvalidGeometry)
	assert.Contains(t, err.Error(), `space "Broken"`)
	assert.Contains(t, err.Error(), `surface "Sliver"`)
}

func TestSkipInvalidSpaces(t *testing.T) {
	model := loadFixture(t, "two_spaces.osm")
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	c := New(occt.New(), WithSkipInvalidSpaces(true), WithLogger(log))
	result, err := c.Convert(model)
	require.NoError(t, err)

	assert.Equal(t, []string{"Broken"}, result.Skipped)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "space=Broken")

	require.Len(t, result.Spaces, 1)
	cell := result.Spaces[0].Cell
	assert.Len(t, cell.Faces(), 6, "one face per bounding surface")
	assert.True(t, cell.IsClosed())
	assert.Len(t, cell.Vertices(), 8)

	// the floor corner at the space origin moves to (5, 5, 0)
	floor := points(cell.Faces()[0])
	assert.True(t, floor[0].ApproxEqualThreshold(mgl64.Vec3{5, 5, 0}, 1e-9), "got %v", floor[0])

	require.Len(t, result.Shading, 1)
	canopy := points(result.Shading[0])
	assert.True(t, canopy[2].ApproxEqualThreshold(mgl64.Vec3{2, 2, 3}, 1e-9), "got %v", canopy[2])
}

func TestAggregate(t *testing.T) {
	model := loadFixture(t, "two_spaces.osm")
	c := New(occt.New(), WithSkipInvalidSpaces(true))
	result, err := c.Convert(model)
	require.NoError(t, err)

	clusters, err := c.Aggregate(result)
	require.NoError(t, err)
	assert.Equal(t, 1, clusters.Cells.Len())
	assert.Len(t, clusters.Cells.Cells(), 1)
	assert.Equal(t, 1, clusters.Apertures.Len())
	assert.Equal(t, 1, clusters.Shading.Len())

	empty, err := c.Aggregate(&Result{})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Cells.Len())
}
