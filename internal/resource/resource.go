// Package resource holds the per-route query configuration registry, loaded
// from YAML files at startup.
package resource

import "QlistAPI/internal/query"

// Resource binds one route name to its table and list-query configuration.
type Resource struct {
	Name                string     `yaml:"-"` // filename without extension
	Table               string     `yaml:"table"`
	DefaultLimit        int        `yaml:"default_limit"`
	MaxLimit            int        `yaml:"max_limit"`
	DefaultSort         string     `yaml:"default_sort"`
	AllowedSortFields   StringList `yaml:"allowed_sort_fields"`
	AllowedFilterFields StringList `yaml:"allowed_filter_fields"`
	SearchFields        StringList `yaml:"search_fields"`
	DateField           string     `yaml:"date_field"`
	CategoryParam       string     `yaml:"category_param"`
	CategoryField       string     `yaml:"category_field"`
	CategoryTable       string     `yaml:"category_table"`
	Populate            []Populate `yaml:"populate"`
}

// Populate describes one reference expansion in the resource config.
type Populate struct {
	As           string `yaml:"as"`
	Table        string `yaml:"table"`
	LocalField   string `yaml:"local_field"`
	ForeignField string `yaml:"foreign_field"`
}

// QueryConfig assembles the per-call engine configuration, wiring the given
// resolver when the resource declares a category parameter. An empty
// allowlist in the YAML means unrestricted.
func (r *Resource) QueryConfig(resolver query.Resolver) query.Config {
	cfg := query.Config{
		DefaultLimit: r.DefaultLimit,
		MaxLimit:     r.MaxLimit,
		DefaultSort:  r.DefaultSort,
		SearchFields: r.SearchFields,
		DateField:    r.DateField,
	}
	if len(r.AllowedSortFields) > 0 {
		cfg.AllowedSortFields = query.Restrict(r.AllowedSortFields...)
	}
	if len(r.AllowedFilterFields) > 0 {
		cfg.AllowedFilterFields = query.Restrict(r.AllowedFilterFields...)
	}
	if r.CategoryParam != "" && r.CategoryField != "" {
		cfg.CategoryParam = r.CategoryParam
		cfg.CategoryField = r.CategoryField
		cfg.Resolver = resolver
	}
	return cfg
}

// Relations converts the populate section into executor descriptors.
func (r *Resource) Relations() []query.Relation {
	if len(r.Populate) == 0 {
		return nil
	}
	rels := make([]query.Relation, len(r.Populate))
	for i, p := range r.Populate {
		rels[i] = query.Relation{
			As:           p.As,
			Table:        p.Table,
			LocalField:   p.LocalField,
			ForeignField: p.ForeignField,
		}
	}
	return rels
}
