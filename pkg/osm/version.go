package osm

import (
	"fmt"
	"log/slog"

	"golang.org/x/mod/semver"
)

const (
	// MinimumVersion is the oldest model version read without upgrading
	MinimumVersion = "3.0.0"
	// SupportedMajor is the newest major version understood
	SupportedMajor = 3
)

// migration rewrites objects from the layout before version to the layout
// of version.
type migration struct {
	version string
	apply   func(objects []*object, log *slog.Logger)
}

var migrations = []migration{
	{version: "3.0.0", apply: dropSubSurfaceShadingControl},
}

// upgrade checks the model version and runs the migrations needed to reach
// MinimumVersion. It returns the resulting version.
func upgrade(objects []*object, from string, allowed bool, log *slog.Logger) (string, error) {
	v := "v" + from
	if !semver.IsValid(v) {
		return "", fmt.Errorf("unrecognized model version %q", from)
	}
	if semver.Compare(semver.Major(v), fmt.Sprintf("v%d", SupportedMajor)) > 0 {
		return "", fmt.Errorf("model version %s is newer than supported major version %d", from, SupportedMajor)
	}

	current := from
	for _, m := range migrations {
		if semver.Compare("v"+current, "v"+m.version) >= 0 {
			continue
		}
		if !allowed {
			return "", fmt.Errorf("model version %s is older than %s and needs an upgrade", from, MinimumVersion)
		}
		log.Debug("Upgrading model", "from", current, "to", m.version)
		m.apply(objects, log)
		current = m.version
	}
	return current, nil
}

// 3.0.0 removed the Shading Control Name field (8th) of OS:SubSurface.
func dropSubSurfaceShadingControl(objects []*object, log *slog.Logger) {
	const removed = 7
	n := 0
	for _, o := range objects {
		if o.class != classSubSurface || len(o.fields) <= removed {
			continue
		}
		o.fields = append(o.fields[:removed:removed], o.fields[removed+1:]...)
		n++
	}
	log.Debug("Dropped sub-surface shading controls", "count", n)
}
