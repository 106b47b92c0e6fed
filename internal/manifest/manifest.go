// Package manifest parses the YAML project manifest that backs
// `install --from <manifest>` and `install_from_manifest` (spec.md §4.7,
// §6), plus a reader for the legacy TOML lock format (ReadLock), which no
// CLI command calls.
package manifest

import (
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/omnipkg/omni/internal/errs"
	"github.com/omnipkg/omni/internal/types"
	"github.com/omnipkg/omni/internal/validate"
)

// Manifest mirrors spec.md §6's YAML manifest format.
type Manifest struct {
	Project     string `yaml:"project"`
	Description string `yaml:"description,omitempty"`
	Apps        []App  `yaml:"apps"`
	Meta        *Meta  `yaml:"meta,omitempty"`
}

// App is one `apps[]` entry.
type App struct {
	Name    string `yaml:"name"`
	Box     string `yaml:"box"`
	Version string `yaml:"version,omitempty"`
	Source  string `yaml:"source,omitempty"`
}

// Meta holds the manifest's optional provenance fields.
type Meta struct {
	CreatedBy      string `yaml:"created_by,omitempty"`
	CreatedOn      string `yaml:"created_on,omitempty"`
	DistroFallback bool   `yaml:"distro_fallback,omitempty"`
}

// Parse reads and validates a manifest from r. Every app name and backend
// tag is run through internal/validate before the manifest is considered
// well-formed, so a malformed manifest fails before the orchestrator ever
// begins a transaction (spec.md Scenario S5's validate-before-backend
// ordering applies here too).
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, errs.Wrap(errs.Validation, err, "failed to parse manifest")
	}

	if m.Project == "" {
		return nil, errs.New(errs.Validation, "manifest is missing a project name")
	}
	if len(m.Apps) == 0 {
		return nil, errs.New(errs.Validation, "manifest declares no apps")
	}

	for i, app := range m.Apps {
		if err := validate.PackageName(app.Name); err != nil {
			return nil, errs.Wrap(errs.Validation, err, "apps["+strconv.Itoa(i)+"]")
		}
		if err := validate.BackendTag(app.Box); err != nil {
			return nil, errs.Wrap(errs.Validation, err, "apps["+strconv.Itoa(i)+"]")
		}
		if app.Source != "" && looksLikeURL(app.Source) {
			if err := validate.URL(app.Source); err != nil {
				return nil, errs.Wrap(errs.Validation, err, "apps["+strconv.Itoa(i)+"].source")
			}
		}
	}

	return &m, nil
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Requests converts the manifest's apps into resolver root dependencies,
// for `install_from_manifest` (spec.md §4.7) to pass straight to the
// resolver. A blank version constraint resolves to "any".
func (m *Manifest) Requests() ([]types.Dependency, error) {
	deps := make([]types.Dependency, 0, len(m.Apps))
	for _, app := range m.Apps {
		c, err := types.NewConstraint(app.Version)
		if err != nil {
			return nil, errs.Wrap(errs.Validation, err, "apps["+app.Name+"].version")
		}
		deps = append(deps, types.Dependency{
			Name:       app.Name,
			Constraint: c,
			Backend:    types.Backend(app.Box),
		})
	}
	return deps, nil
}
