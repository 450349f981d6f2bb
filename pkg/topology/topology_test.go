package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(t *testing.T) (*Wire, []*Vertex) {
	t.Helper()
	vs := []*Vertex{
		NewVertex(0, 0, 0),
		NewVertex(1, 0, 0),
		NewVertex(1, 1, 0),
		NewVertex(0, 1, 0),
	}
	edges := make([]*Edge, len(vs))
	for i := range vs {
		e, err := NewEdge(vs[i], vs[(i+1)%len(vs)])
		require.NoError(t, err)
		edges[i] = e
	}
	w, err := NewWire(edges)
	require.NoError(t, err)
	return w, vs
}

func TestNewEdgeRejectsDegenerate(t *testing.T) {
	v := NewVertex(1, 2, 3)

	_, err := NewEdge(v, v)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = NewEdge(v, NewVertex(1, 2, 3))
	assert.ErrorIs(t, err, ErrInvalidGeometry, "coincident coordinates are degenerate too")

	_, err = NewEdge(v, nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestWireClosure(t *testing.T) {
	w, vs := square(t)

	assert.Equal(t, 4, w.Len())
	assert.True(t, w.IsClosed())
	assert.Equal(t, vs, w.Vertices())

	edges := w.Edges()
	assert.Same(t, edges[len(edges)-1].To(), edges[0].From())
}

func TestWireRejectsOpenChain(t *testing.T) {
	a, b, c := NewVertex(0, 0, 0), NewVertex(1, 0, 0), NewVertex(1, 1, 0)
	ab, err := NewEdge(a, b)
	require.NoError(t, err)
	bc, err := NewEdge(b, c)
	require.NoError(t, err)

	_, err = NewWire([]*Edge{ab, bc})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.Contains(t, err.Error(), "not closed")
}

func TestWireRejectsDisconnectedEdges(t *testing.T) {
	a, b := NewVertex(0, 0, 0), NewVertex(1, 0, 0)
	c, d := NewVertex(5, 5, 0), NewVertex(6, 5, 0)
	ab, err := NewEdge(a, b)
	require.NoError(t, err)
	cd, err := NewEdge(c, d)
	require.NoError(t, err)

	_, err = NewWire([]*Edge{ab, cd})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.Contains(t, err.Error(), "not connected")

	_, err = NewWire(nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestOrientedWireFollowsReversedEdges(t *testing.T) {
	a, b, c := NewVertex(0, 0, 0), NewVertex(1, 0, 0), NewVertex(0, 1, 0)
	ab, _ := NewEdge(a, b)
	cb, _ := NewEdge(c, b) // used backwards
	ca, _ := NewEdge(c, a)

	w, err := NewOrientedWire([]OrientedEdge{
		{Edge: ab},
		{Edge: cb, Reversed: true},
		{Edge: ca},
	})
	require.NoError(t, err)
	assert.Equal(t, []*Vertex{a, b, c}, w.Vertices())
}

func TestFaceAperturesReferenceHost(t *testing.T) {
	outer, _ := square(t)
	host, err := NewFace(outer, nil)
	require.NoError(t, err)

	windowWire, _ := square(t)
	window, err := NewFace(windowWire, nil)
	require.NoError(t, err)

	withWindow, err := host.WithApertures([]*Face{window}, CenterPlacement)
	require.NoError(t, err)

	assert.Empty(t, host.Apertures(), "the original face is not modified")
	require.Len(t, withWindow.Apertures(), 1)

	ap := withWindow.Apertures()[0]
	assert.Same(t, withWindow, ap.Host())
	assert.Same(t, window, ap.Topology())
	assert.Equal(t, Placement{U: 0.5, V: 0.5, W: 0.5}, ap.Placement())
	assert.Equal(t, TypeAperture, ap.Type())

	// Adding a second aperture keeps the first one bound to the new host.
	again, err := withWindow.WithApertures([]*Face{window}, Placement{U: 0.1, V: 0.2, W: 0})
	require.NoError(t, err)
	require.Len(t, again.Apertures(), 2)
	for _, a := range again.Apertures() {
		assert.Same(t, again, a.Host())
	}
}

func TestFaceRejectsBadPlacement(t *testing.T) {
	outer, _ := square(t)
	host, err := NewFace(outer, nil)
	require.NoError(t, err)

	_, err = host.WithApertures([]*Face{host}, Placement{U: 1.5})
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestCellIsClosedRequiresSharedEdges(t *testing.T) {
	outer, _ := square(t)
	f, err := NewFace(outer, nil)
	require.NoError(t, err)

	cell, err := NewCell([]*Face{f})
	require.NoError(t, err)
	assert.False(t, cell.IsClosed())
	assert.Len(t, cell.Edges(), 4)
	assert.Len(t, cell.Vertices(), 4)

	_, err = NewCell(nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestClusterCollectsMembers(t *testing.T) {
	outer, _ := square(t)
	f, err := NewFace(outer, nil)
	require.NoError(t, err)
	cell, err := NewCell([]*Face{f})
	require.NoError(t, err)

	inner, err := NewCluster([]Topology{cell})
	require.NoError(t, err)
	outerCluster, err := NewCluster([]Topology{inner, f})
	require.NoError(t, err)

	assert.Equal(t, 2, outerCluster.Len())
	assert.Equal(t, []*Cell{cell}, outerCluster.Cells())
	assert.Equal(t, []*Face{f}, outerCluster.Faces())
	assert.Len(t, outerCluster.Vertices(), 4)

	empty, err := NewCluster(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "Cell", TypeCell.String())
	assert.Equal(t, "Type(3)", Type(3).String())
}
