package export

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/osm2brep/pkg/brep"
	"github.com/philipparndt/osm2brep/pkg/kernel/occt"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

func triangle(t *testing.T, k *occt.Kernel, z float64) *topology.Face {
	t.Helper()
	a, b, c := k.Vertex(0, 0, z), k.Vertex(1, 0, z), k.Vertex(0, 1, z)
	ab, err := k.Edge(a, b)
	require.NoError(t, err)
	bc, err := k.Edge(b, c)
	require.NoError(t, err)
	ca, err := k.Edge(c, a)
	require.NoError(t, err)
	w, err := k.Wire([]*topology.Edge{ab, bc, ca})
	require.NoError(t, err)
	f, err := k.Face(w, nil)
	require.NoError(t, err)
	return f
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"out", "out.brep"},
		{"out.brep", "out.brep"},
		{"OUT.BREP", "OUT.BREP"},
		{"dir/out.Brep", "dir/out.Brep"},
		{"out.brepx", "out.brepx.brep"},
		{"brep", "brep.brep"},
		{".brep", ".brep"},
		{"model.osm", "model.osm.brep"},
		{"", ".brep"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), "input %q", tt.in)
		assert.Equal(t, tt.want, NormalizePath(NormalizePath(tt.in)), "idempotent for %q", tt.in)
	}
}

func TestBREPSingleTopology(t *testing.T) {
	k := occt.New()
	face := triangle(t, k, 0)
	dir := t.TempDir()

	path, err := BREP(k, []topology.Topology{face}, filepath.Join(dir, "out"), false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.brep"), path)

	want, err := k.String(face)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))

	again, err := BREP(k, []topology.Topology{face}, path, true)
	require.NoError(t, err)
	assert.Equal(t, path, again)
}

func TestBREPWrapsSeveralInCluster(t *testing.T) {
	k := occt.New()
	topologies := []topology.Topology{triangle(t, k, 0), triangle(t, k, 1), triangle(t, k, 2)}

	path, err := BREP(k, topologies, filepath.Join(t.TempDir(), "all.BREP"), false)
	require.NoError(t, err)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	decoded, err := brep.Decode(file)
	require.NoError(t, err)
	cluster, ok := decoded.(*topology.Cluster)
	require.True(t, ok, "decoded %T", decoded)
	assert.Equal(t, 3, cluster.Len())
}

func TestBREPRefusesToOverwrite(t *testing.T) {
	k := occt.New()
	path := filepath.Join(t.TempDir(), "existing.brep")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o644))

	_, err := BREP(k, []topology.Topology{triangle(t, k, 0)}, path, false)
	var createErr *FileCreateError
	require.True(t, errors.As(err, &createErr), "got %v", err)
	assert.Equal(t, path, createErr.Path)
	assert.ErrorIs(t, err, fs.ErrExist)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(got))
}

func TestBREPOverwriteTruncates(t *testing.T) {
	k := occt.New()
	path := filepath.Join(t.TempDir(), "existing.brep")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 100000)), 0o644))

	face := triangle(t, k, 0)
	_, err := BREP(k, []topology.Topology{face}, path, true)
	require.NoError(t, err)

	want, err := k.String(face)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))
}

func TestBREPEmptyList(t *testing.T) {
	dir := t.TempDir()
	_, err := BREP(occt.New(), nil, filepath.Join(dir, "empty"), true)
	assert.ErrorIs(t, err, ErrNoTopologies)

	_, statErr := os.Stat(filepath.Join(dir, "empty.brep"))
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestBREPMissingDirectory(t *testing.T) {
	k := occt.New()
	path := filepath.Join(t.TempDir(), "missing", "out")

	_, err := BREP(k, []topology.Topology{triangle(t, k, 0)}, path, true)
	var createErr *FileCreateError
	require.True(t, errors.As(err, &createErr), "got %v", err)
	assert.Equal(t, path+".brep", createErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), path+".brep")
}

// point is a topology the encoder does not know
type point struct{ v *topology.Vertex }

func (p point) Type() topology.Type          { return topology.TypeVertex }
func (p point) Vertices() []*topology.Vertex { return []*topology.Vertex{p.v} }

func TestBREPEncodeFailureWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.brep")
	_, err := BREP(occt.New(), []topology.Topology{point{topology.NewVertex(0, 0, 0)}}, path, true)
	assert.ErrorIs(t, err, brep.ErrUnsupported)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestWriteFilesAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "b.brep")
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0o644))

	files := []File{
		{Path: filepath.Join(dir, "a.brep"), Data: []byte("a")},
		{Path: existing, Data: []byte("b")},
		{Path: filepath.Join(dir, "c.brep"), Data: []byte("c")},
	}
	err := WriteFiles(files, false)
	var createErr *FileCreateError
	require.True(t, errors.As(err, &createErr), "got %v", err)
	assert.Equal(t, existing, createErr.Path)

	for _, name := range []string{"a.brep", "c.brep"} {
		_, statErr := os.Stat(filepath.Join(dir, name))
		assert.ErrorIs(t, statErr, fs.ErrNotExist, name)
	}
	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(got))

	require.NoError(t, WriteFiles(files, true))
	for _, f := range files {
		got, err := os.ReadFile(f.Path)
		require.NoError(t, err)
		assert.Equal(t, string(f.Data), string(got))
	}
}

func TestWriteFilesRejectsDuplicatePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "same.brep")
	err := WriteFiles([]File{
		{Path: path, Data: []byte("a")},
		{Path: filepath.Join(dir, ".", "same.brep"), Data: []byte("b")},
	}, true)
	assert.ErrorIs(t, err, ErrDuplicatePath)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestEncodeBREPTouchesNothing(t *testing.T) {
	k := occt.New()
	dir := t.TempDir()
	file, err := EncodeBREP(k, []topology.Topology{triangle(t, k, 0)}, filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.brep"), file.Path)
	assert.NotEmpty(t, file.Data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
