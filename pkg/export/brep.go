// Package export writes topology to files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philipparndt/osm2brep/pkg/kernel"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// Extension of BREP files
const Extension = ".brep"

var (
	// ErrNoTopologies is returned when there is nothing to export
	ErrNoTopologies = errors.New("no topologies to export")
	// ErrDuplicatePath is returned when two outputs share one path
	ErrDuplicatePath = errors.New("path used by more than one output")
)

// FileCreateError reports an output file that could not be created or
// written.
type FileCreateError struct {
	Path string
	Err  error
}

// Error implements error
func (e *FileCreateError) Error() string {
	return fmt.Sprintf("failed to create %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *FileCreateError) Unwrap() error { return e.Err }

// NormalizePath appends ".brep" unless the path already ends with it in any
// letter case.
func NormalizePath(path string) string {
	if len(path) >= len(Extension) && strings.EqualFold(path[len(path)-len(Extension):], Extension) {
		return path
	}
	return path + Extension
}

// File is encoded output waiting to be written
type File struct {
	Path string
	Data []byte
}

// EncodeBREP encodes topologies for the normalized path without touching
// the file system. More than one topology is wrapped in a single cluster.
func EncodeBREP(k kernel.Kernel, topologies []topology.Topology, path string) (File, error) {
	if len(topologies) == 0 {
		return File{}, ErrNoTopologies
	}
	path = NormalizePath(path)

	root := topologies[0]
	if len(topologies) > 1 {
		cluster, err := k.Cluster(topologies)
		if err != nil {
			return File{}, fmt.Errorf("failed to cluster topologies: %w", err)
		}
		root = cluster
	}

	text, err := k.String(root)
	if err != nil {
		return File{}, fmt.Errorf("failed to encode topology: %w", err)
	}
	return File{Path: path, Data: []byte(text)}, nil
}

// BREP writes the kernel encoding of topologies to path and returns the
// normalized path written. Without overwrite an existing file is left alone
// and the error wraps fs.ErrExist.
func BREP(k kernel.Kernel, topologies []topology.Topology, path string, overwrite bool) (string, error) {
	file, err := EncodeBREP(k, topologies, path)
	if err != nil {
		return "", err
	}
	if err := WriteFiles([]File{file}, overwrite); err != nil {
		return "", err
	}
	return file.Path, nil
}

type target struct {
	file    File
	handle  *os.File
	created bool
}

// WriteFiles writes all files or none of them. Every target is opened
// before the first byte is written; when one cannot be opened, files
// created by this call are removed and existing files keep their content.
func WriteFiles(files []File, overwrite bool) (err error) {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		clean := filepath.Clean(f.Path)
		if seen[clean] {
			return &FileCreateError{Path: f.Path, Err: ErrDuplicatePath}
		}
		seen[clean] = true
	}

	targets := make([]*target, 0, len(files))
	defer func() {
		for _, t := range targets {
			if cerr := t.handle.Close(); cerr != nil && err == nil {
				err = &FileCreateError{Path: t.file.Path, Err: cerr}
			}
		}
		if err != nil {
			for _, t := range targets {
				if t.created {
					_ = os.Remove(t.file.Path)
				}
			}
		}
	}()

	for _, f := range files {
		t, err := open(f, overwrite)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	for _, t := range targets {
		if err := t.handle.Truncate(0); err != nil {
			return &FileCreateError{Path: t.file.Path, Err: err}
		}
		if _, err := t.handle.Write(t.file.Data); err != nil {
			return &FileCreateError{Path: t.file.Path, Err: err}
		}
	}
	return nil
}

func open(f File, overwrite bool) (*target, error) {
	flags := os.O_WRONLY | os.O_CREATE
	created := true
	if overwrite {
		if _, err := os.Stat(f.Path); err == nil {
			created = false
		}
	} else {
		flags |= os.O_EXCL
	}

	handle, err := os.OpenFile(f.Path, flags, 0o644)
	if err != nil {
		return nil, &FileCreateError{Path: f.Path, Err: err}
	}
	return &target{file: f, handle: handle, created: created}, nil
}
