// Package registry holds the static ranked mapping from metric kind and
// company to candidate authoritative sources.
package registry

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/treasury-audit/internal/model"
)

// ErrUnknownMetricKind is returned when no source chain is registered for
// a metric kind.
var ErrUnknownMetricKind = eris.New("registry: unknown metric kind")

// Config is the on-disk shape of the source table. Defaults map a metric
// kind to its candidate sources; Companies holds per-ticker overrides that
// are consulted ahead of the defaults.
type Config struct {
	Defaults  map[model.MetricKind][]model.SourceDescriptor            `yaml:"defaults"`
	Companies map[string]map[model.MetricKind][]model.SourceDescriptor `yaml:"companies"`
}

// Registry answers SourcesFor lookups. Immutable after construction.
type Registry struct {
	defaults  map[model.MetricKind][]model.SourceDescriptor
	companies map[string]map[model.MetricKind][]model.SourceDescriptor
}

// New builds a Registry from a config table. Each chain is ordered by
// source-type priority, ties broken by registration order, and ranks are
// assigned from the resulting position.
func New(cfg *Config) *Registry {
	r := &Registry{
		defaults:  make(map[model.MetricKind][]model.SourceDescriptor, len(cfg.Defaults)),
		companies: make(map[string]map[model.MetricKind][]model.SourceDescriptor, len(cfg.Companies)),
	}
	for kind, chain := range cfg.Defaults {
		r.defaults[kind] = orderChain(chain)
	}
	for ticker, kinds := range cfg.Companies {
		m := make(map[model.MetricKind][]model.SourceDescriptor, len(kinds))
		for kind, chain := range kinds {
			m[kind] = chain // merged and ordered at lookup time
		}
		r.companies[ticker] = m
	}
	return r
}

// Load reads a source table from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, eris.Wrapf(err, "registry: parse config %s", path)
	}
	return New(&cfg), nil
}

// SourcesFor returns the ranked candidate sources for one metric of one
// company. Company-specific sources are merged ahead of same-priority
// defaults. Returns ErrUnknownMetricKind when nothing is registered.
func (r *Registry) SourcesFor(kind model.MetricKind, company model.Company) ([]model.SourceDescriptor, error) {
	var chain []model.SourceDescriptor
	if overrides, ok := r.companies[company.Ticker]; ok {
		chain = append(chain, overrides[kind]...)
	}
	chain = append(chain, r.defaults[kind]...)
	if len(chain) == 0 {
		return nil, eris.Wrapf(ErrUnknownMetricKind, "kind %s for %s", kind, company.Ticker)
	}
	return orderChain(chain), nil
}

// Kinds returns the metric kinds with a registered default chain.
func (r *Registry) Kinds() []model.MetricKind {
	kinds := make([]model.MetricKind, 0, len(r.defaults))
	for k := range r.defaults {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// orderChain sorts descriptors by source-type priority, preserving
// registration order within a priority, and rewrites ranks to match.
func orderChain(chain []model.SourceDescriptor) []model.SourceDescriptor {
	out := make([]model.SourceDescriptor, len(chain))
	copy(out, chain)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Type.Priority() < out[j].Type.Priority()
	})
	for i := range out {
		out[i].Rank = i
	}
	return out
}
