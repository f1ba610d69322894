package registry

import (
	"sort"

	"langsync/internal/ports"
)

type Registry struct {
	byFormat map[string]ports.FormatDriver
}

func New() *Registry { return &Registry{byFormat: map[string]ports.FormatDriver{}} }

func (r *Registry) Register(d ports.FormatDriver) { r.byFormat[d.Format()] = d }

func (r *Registry) Get(format string) (ports.FormatDriver, bool) {
	d, ok := r.byFormat[format]
	return d, ok
}

// Formats returns the registered format names sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
