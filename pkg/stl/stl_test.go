package stl

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/osm2brep/pkg/geometry"
	"github.com/philipparndt/osm2brep/pkg/kernel/occt"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

var cube = [][][3]float64{
	{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
}

func box(t *testing.T) *topology.Cell {
	t.Helper()
	k := occt.New()
	faces := make([]*topology.Face, len(cube))
	for i, points := range cube {
		vs := make([]*topology.Vertex, len(points))
		for j, p := range points {
			vs[j] = k.Vertex(p[0], p[1], p[2])
		}
		edges := make([]*topology.Edge, len(vs))
		for j := range vs {
			e, err := k.Edge(vs[j], vs[(j+1)%len(vs)])
			require.NoError(t, err)
			edges[j] = e
		}
		w, err := k.Wire(edges)
		require.NoError(t, err)
		faces[i], err = k.Face(w, nil)
		require.NoError(t, err)
	}
	cell, err := k.Cell(faces)
	require.NoError(t, err)
	return cell
}

func TestFromTopology(t *testing.T) {
	model, err := FromTopology(box(t), "box")
	require.NoError(t, err)

	assert.Equal(t, "box", model.Name)
	assert.Equal(t, 12, model.TriangleCount())
	assert.InDelta(t, 6.0, model.SurfaceArea(), 1e-12)

	bbox := model.BoundingBox()
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, bbox.Size())
	assert.Equal(t, mgl64.Vec3{0.5, 0.5, 0.5}, bbox.Center())
	assert.InDelta(t, math.Sqrt(3), bbox.Diagonal(), 1e-12)
	assert.Len(t, model.Points(), 36)

	// normals point away from the cube center
	center := mgl64.Vec3{0.5, 0.5, 0.5}
	for i, tri := range model.Triangles {
		assert.InDelta(t, 1.0, tri.Normal.Len(), 1e-12)
		out := tri.V1.Add(tri.V2).Add(tri.V3).Mul(1.0 / 3).Sub(center)
		assert.Greater(t, out.Dot(tri.Normal), 0.0, "triangle %d", i)
		assert.InDelta(t, 0, tri.CalculateNormal().Sub(tri.Normal).Len(), 1e-12, "winding of triangle %d", i)
	}
}

func TestFromTopologyCluster(t *testing.T) {
	cell := box(t)
	extra := cell.Faces()[0]
	cluster, err := topology.NewCluster([]topology.Topology{cell, extra})
	require.NoError(t, err)

	model, err := FromTopology(cluster, "")
	require.NoError(t, err)
	assert.Equal(t, 14, model.TriangleCount())

	_, err = FromTopology(topology.NewVertex(0, 0, 0), "")
	assert.Error(t, err)
}

func TestASCIIRoundTrip(t *testing.T) {
	model, err := FromTopology(box(t), "box")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteASCII(&buf, model))
	assert.True(t, strings.HasPrefix(buf.String(), "solid box\n"))
	assert.True(t, strings.HasSuffix(buf.String(), "endsolid box\n"))

	path := filepath.Join(t.TempDir(), "box.stl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	parsed, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "box", parsed.Name)
	require.Equal(t, model.TriangleCount(), parsed.TriangleCount())
	for i := range model.Triangles {
		assert.True(t, model.Triangles[i].V2.ApproxEqual(parsed.Triangles[i].V2), "triangle %d", i)
		assert.True(t, model.Triangles[i].Normal.ApproxEqual(parsed.Triangles[i].Normal), "triangle %d", i)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	model, err := FromTopology(box(t), "box")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, model))
	assert.Equal(t, 84+50*12, buf.Len())
	path := filepath.Join(t.TempDir(), "box.stl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	parsed, err := Parse(path)
	require.NoError(t, err)
	require.Equal(t, 12, parsed.TriangleCount())
	assert.Equal(t, "binary box", parsed.Name)
	assert.InDelta(t, 6.0, parsed.SurfaceArea(), 1e-6)
	for i := range model.Triangles {
		assert.Equal(t, model.Triangles[i].V3, parsed.Triangles[i].V3, "triangle %d", i)
	}
}

func TestEmptyBoundingBox(t *testing.T) {
	bbox := NewModel("empty").BoundingBox()
	assert.True(t, bbox.IsEmpty())
	assert.Equal(t, 0.0, bbox.Diagonal())
	assert.False(t, math.IsNaN(bbox.Diagonal()))
}

func TestDecodeBinaryWithSolidHeader(t *testing.T) {
	model := NewModel("")
	model.AddTriangle(geometry.NewTriangle(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}))

	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, model))
	data := buf.Bytes()
	copy(data, "solid exported by a CAD tool")

	parsed, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "solid exported by a CAD tool", parsed.Name)
	require.Equal(t, 1, parsed.TriangleCount())
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, parsed.Triangles[0].V2)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	model, err := FromTopology(box(t), "box")
	require.NoError(t, err)
	var binaryBuf bytes.Buffer
	require.NoError(t, WriteBinary(&binaryBuf, model))

	tests := []struct {
		name string
		data string
	}{
		{"bad number", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 zero\n"},
		{"two vertices", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\n"},
		{"short vertex", "solid x\nfacet normal 0 0 1\nvertex 0 0\n"},
		{"truncated binary", string(binaryBuf.Bytes()[:binaryBuf.Len()-10])},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.stl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
