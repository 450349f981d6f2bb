package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/philipparndt/osm2brep/pkg/export"
	"github.com/philipparndt/osm2brep/pkg/osm"
	"github.com/philipparndt/osm2brep/pkg/stl"
	"github.com/philipparndt/osm2brep/pkg/topology"
)

// Job names the input model and the files one run writes. Apertures,
// Shading and STL are optional.
type Job struct {
	Model     string
	Upgrade   bool
	Cells     string
	Apertures string
	Shading   string
	STL       string
	Overwrite bool
}

// Report describes a finished run
type Report struct {
	Model  *osm.Model
	Result *Result
	// Files lists the written paths in write order
	Files []string
}

// Run loads the model, rebuilds it and writes the requested files.
// Aperture and shading files are only written when there is something to
// put in them. Either every requested file is written or none is.
func (c *Converter) Run(job Job) (*Report, error) {
	model, err := osm.Load(job.Model, osm.Options{Upgrade: job.Upgrade, Logger: c.log})
	if err != nil {
		return nil, err
	}
	c.log.Info("Model loaded",
		"path", job.Model,
		"version", model.Version,
		"spaces", len(model.Spaces),
		"shading_groups", len(model.ShadingGroups))

	result, err := c.Convert(model)
	if err != nil {
		return nil, err
	}
	clusters, err := c.Aggregate(result)
	if err != nil {
		return nil, err
	}
	if clusters.Cells.Len() == 0 {
		return nil, fmt.Errorf("%w: no space of %s could be rebuilt", export.ErrNoTopologies, job.Model)
	}

	files, err := c.encode(job, clusters)
	if err != nil {
		return nil, err
	}
	if err := export.WriteFiles(files, job.Overwrite); err != nil {
		return nil, err
	}

	report := &Report{Model: model, Result: result}
	for _, f := range files {
		c.log.Info("Export written", "path", f.Path, "bytes", len(f.Data))
		report.Files = append(report.Files, f.Path)
	}
	return report, nil
}

// encode prepares every requested output in memory
func (c *Converter) encode(job Job, clusters *Clusters) ([]export.File, error) {
	var files []export.File
	add := func(cluster *topology.Cluster, path string) error {
		f, err := export.EncodeBREP(c.kernel, []topology.Topology{cluster}, path)
		if err != nil {
			return err
		}
		files = append(files, f)
		return nil
	}

	if err := add(clusters.Cells, job.Cells); err != nil {
		return nil, err
	}
	if job.Apertures != "" && clusters.Apertures.Len() > 0 {
		if err := add(clusters.Apertures, job.Apertures); err != nil {
			return nil, err
		}
	}
	if job.Shading != "" && clusters.Shading.Len() > 0 {
		if err := add(clusters.Shading, job.Shading); err != nil {
			return nil, err
		}
	}

	if job.STL != "" {
		name := strings.TrimSuffix(filepath.Base(job.Model), filepath.Ext(job.Model))
		mesh, err := stl.FromTopology(clusters.Cells, name)
		if err != nil {
			return nil, fmt.Errorf("mesh cells: %w", err)
		}
		var buf bytes.Buffer
		if err := stl.WriteBinary(&buf, mesh); err != nil {
			return nil, err
		}
		files = append(files, export.File{Path: job.STL, Data: buf.Bytes()})
	}
	return files, nil
}
