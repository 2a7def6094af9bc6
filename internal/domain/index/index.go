// Package index holds the read-only naming and allow-list snapshots shared by
// the schema manager, the indexer and the searcher.
package index

import (
	"strings"

	"github.com/kailas-cloud/facetdex/internal/domain/content"
)

// AliasResolver maps a logical index alias to its physical, environment-qualified name.
type AliasResolver struct {
	environment string
}

// NewAliasResolver creates a resolver for the given deployment environment.
// An empty environment leaves aliases unqualified.
func NewAliasResolver(environment string) AliasResolver {
	return AliasResolver{environment: environment}
}

// Resolve returns lowercase(alias_environment), or lowercase(alias) without an environment.
func (r AliasResolver) Resolve(alias string) string {
	if r.environment == "" {
		return strings.ToLower(alias)
	}
	return strings.ToLower(alias + "_" + r.environment)
}

// KnownFieldsOptions configures the known-fields allow-list.
type KnownFieldsOptions struct {
	IncludeName bool
	Global      []string
	ByIndex     map[string][]string
}

// KnownFields is the per-index allow-list of logical fields that get physical projections.
type KnownFields struct {
	includeName bool
	global      []string
	byIndex     map[string][]string
}

// NewKnownFields snapshots the options. Per-index keys match aliases case-insensitively.
func NewKnownFields(opts KnownFieldsOptions) KnownFields {
	byIndex := make(map[string][]string, len(opts.ByIndex))
	for alias, fields := range opts.ByIndex {
		key := strings.ToLower(alias)
		byIndex[key] = append(byIndex[key], fields...)
	}
	global := make([]string, len(opts.Global))
	copy(global, opts.Global)
	return KnownFields{includeName: opts.IncludeName, global: global, byIndex: byIndex}
}

// For returns the ordered, de-duplicated allow-list for an index alias:
// name (when enabled), then global fields, then index-specific fields.
func (k KnownFields) For(alias string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(names ...string) {
		for _, n := range names {
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	if k.includeName {
		add(content.NameField)
	}
	add(k.global...)
	add(k.byIndex[strings.ToLower(alias)]...)
	return out
}

// Contains reports whether field is on the allow-list for alias.
func (k KnownFields) Contains(alias, field string) bool {
	for _, f := range k.For(alias) {
		if f == field {
			return true
		}
	}
	return false
}

// Set returns the allow-list for alias as a lookup set.
func (k KnownFields) Set(alias string) map[string]bool {
	fields := k.For(alias)
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}
