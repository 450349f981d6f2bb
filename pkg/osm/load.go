package osm

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

const (
	classVersion        = "OS:Version"
	classBuilding       = "OS:Building"
	classSpace          = "OS:Space"
	classSurface        = "OS:Surface"
	classSubSurface     = "OS:SubSurface"
	classShadingGroup   = "OS:ShadingSurfaceGroup"
	classShadingSurface = "OS:ShadingSurface"
)

// Field positions after the class name (3.x layout)
const (
	spaceNorth   = 5
	spaceOrigin  = 6
	surfaceType  = 2
	surfaceSpace = 4
	surfaceVerts = 11
	subType      = 2
	subSurface   = 4
	subVerts     = 10
	groupType    = 2
	groupSpace   = 3
	groupNorth   = 4
	groupOrigin  = 5
	shadingGroup = 3
	shadingVerts = 6
	buildingAxis = 3
)

// Options control how a model is loaded
type Options struct {
	// Upgrade runs the version migrations for models older than
	// MinimumVersion instead of rejecting them.
	Upgrade bool
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Load reads the model at path. Every failure wraps ErrInvalidModelPath.
func Load(path string, opts Options) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModelPath, err)
	}
	defer file.Close()

	model, err := Read(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidModelPath, path, err)
	}
	return model, nil
}

// Read parses a model from r
func Read(r io.Reader, opts Options) (*Model, error) {
	log := opts.logger()

	objects, err := parseObjects(r)
	if err != nil {
		return nil, err
	}

	var versionObj *object
	for _, o := range objects {
		if o.class == classVersion {
			versionObj = o
			break
		}
	}
	if versionObj == nil {
		return nil, fmt.Errorf("model has no %s object", classVersion)
	}
	source := versionObj.field(1)
	version, err := upgrade(objects, source, opts.Upgrade, log)
	if err != nil {
		return nil, err
	}

	b := newBuilder(log)
	if err := b.collect(objects); err != nil {
		return nil, err
	}
	if err := b.link(); err != nil {
		return nil, err
	}

	model := &Model{
		Version:       version,
		SourceVersion: source,
		Building:      b.building,
		Spaces:        b.spaces,
		ShadingGroups: b.groups,
	}
	log.Debug("Model parsed",
		"version", version,
		"objects", len(objects),
		"spaces", len(model.Spaces),
		"surfaces", model.SurfaceCount(),
		"shadingGroups", len(model.ShadingGroups))
	return model, nil
}

// ref is a pending reference from one object to another
type ref[T any] struct {
	from   *object
	target string
	item   T
}

// index finds objects of one class by handle or, failing that, by name.
type index[T any] struct {
	byHandle map[uuid.UUID]T
	byName   map[string]T
}

func newIndex[T any]() index[T] {
	return index[T]{byHandle: make(map[uuid.UUID]T), byName: make(map[string]T)}
}

func (x index[T]) add(id uuid.UUID, name string, item T) {
	x.byHandle[id] = item
	if name != "" {
		if _, dup := x.byName[name]; !dup {
			x.byName[name] = item
		}
	}
}

func (x index[T]) lookup(target string) (T, bool) {
	if id, err := uuid.Parse(target); err == nil {
		if item, ok := x.byHandle[id]; ok {
			return item, true
		}
	}
	item, ok := x.byName[target]
	return item, ok
}

type builder struct {
	log *slog.Logger

	building *Building
	spaces   []*Space
	groups   []*ShadingGroup

	spaceIndex   index[*Space]
	surfaceIndex index[*Surface]
	groupIndex   index[*ShadingGroup]

	surfaces []ref[*Surface]
	subs     []ref[*SubSurface]
	shading  []ref[*ShadingSurface]
	groupSpc []ref[*ShadingGroup]
}

func newBuilder(log *slog.Logger) *builder {
	return &builder{
		log:          log,
		spaceIndex:   newIndex[*Space](),
		surfaceIndex: newIndex[*Surface](),
		groupIndex:   newIndex[*ShadingGroup](),
	}
}

// collect reads every object of interest; references are resolved by link
// once all targets are known.
func (b *builder) collect(objects []*object) error {
	for _, o := range objects {
		switch o.class {
		case classBuilding, classSpace, classSurface, classSubSurface, classShadingGroup, classShadingSurface:
		default:
			continue
		}
		id, err := o.handle()
		if err != nil {
			return err
		}
		handle, name := o.field(0), o.field(1)

		switch o.class {
		case classBuilding:
			axis, err := o.float(buildingAxis, 0)
			if err != nil {
				return err
			}
			b.building = &Building{Handle: handle, Name: name, NorthAxis: axis}

		case classSpace:
			north, err := o.float(spaceNorth, 0)
			if err != nil {
				return err
			}
			origin, err := o.point(spaceOrigin)
			if err != nil {
				return err
			}
			s := &Space{Handle: handle, Name: name, Origin: origin, RelativeNorth: north}
			b.spaces = append(b.spaces, s)
			b.spaceIndex.add(id, name, s)

		case classSurface:
			vs, err := o.vertices(surfaceVerts)
			if err != nil {
				return err
			}
			s := &Surface{Handle: handle, Name: name, Type: o.field(surfaceType), Vertices: vs}
			b.surfaceIndex.add(id, name, s)
			b.surfaces = append(b.surfaces, ref[*Surface]{from: o, target: o.field(surfaceSpace), item: s})

		case classSubSurface:
			vs, err := o.vertices(subVerts)
			if err != nil {
				return err
			}
			s := &SubSurface{Handle: handle, Name: name, Type: o.field(subType), Vertices: vs}
			b.subs = append(b.subs, ref[*SubSurface]{from: o, target: o.field(subSurface), item: s})

		case classShadingGroup:
			north, err := o.float(groupNorth, 0)
			if err != nil {
				return err
			}
			origin, err := o.point(groupOrigin)
			if err != nil {
				return err
			}
			g := &ShadingGroup{Handle: handle, Name: name, Type: o.field(groupType), Origin: origin, RelativeNorth: north}
			b.groups = append(b.groups, g)
			b.groupIndex.add(id, name, g)
			if target := o.field(groupSpace); target != "" {
				b.groupSpc = append(b.groupSpc, ref[*ShadingGroup]{from: o, target: target, item: g})
			}

		case classShadingSurface:
			vs, err := o.vertices(shadingVerts)
			if err != nil {
				return err
			}
			s := &ShadingSurface{Handle: handle, Name: name, Vertices: vs}
			b.shading = append(b.shading, ref[*ShadingSurface]{from: o, target: o.field(shadingGroup), item: s})
		}
	}
	return nil
}

// link attaches children to their parents. Children whose parent is not in
// the model are dropped.
func (b *builder) link() error {
	for _, r := range b.surfaces {
		space, ok := b.spaceIndex.lookup(r.target)
		if !ok {
			b.orphan(r.from, r.target)
			continue
		}
		space.Surfaces = append(space.Surfaces, r.item)
	}
	for _, r := range b.subs {
		host, ok := b.surfaceIndex.lookup(r.target)
		if !ok {
			b.orphan(r.from, r.target)
			continue
		}
		host.SubSurfaces = append(host.SubSurfaces, r.item)
	}
	for _, r := range b.groupSpc {
		space, ok := b.spaceIndex.lookup(r.target)
		if !ok {
			if r.item.Type == "Space" {
				return r.from.errorf("%s %q references unknown space %q", r.from.class, r.item.Name, r.target)
			}
			continue
		}
		r.item.Space = space
	}
	for _, r := range b.shading {
		group, ok := b.groupIndex.lookup(r.target)
		if !ok {
			b.orphan(r.from, r.target)
			continue
		}
		group.Surfaces = append(group.Surfaces, r.item)
	}
	return nil
}

func (b *builder) orphan(o *object, target string) {
	b.log.Debug("Ignoring object without parent",
		"class", o.class,
		"name", o.field(1),
		"parent", target,
		"line", o.line)
}
