package request

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/sorter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTake    = 10
	MaxTake        = 500
	MaxFilters     = 32
	MaxFacets      = 16
	MaxSorters     = 8
)

// Access identifies the caller for protected content.
type Access struct {
	PrincipalID uuid.UUID
	GroupIDs    []uuid.UUID
}

// Keys returns the principal and group ids.
func (a *Access) Keys() []uuid.UUID {
	if a == nil {
		return nil
	}
	out := make([]uuid.UUID, 0, 1+len(a.GroupIDs))
	out = append(out, a.PrincipalID)
	return append(out, a.GroupIDs...)
}

// Params carries unvalidated search input.
type Params struct {
	Query   string
	Filters []filter.Filter
	Facets  []facet.Facet
	Sorters []sorter.Sorter
	Culture string
	Segment string
	Access  *Access
	Skip    int
	Take    int
}

// Request is a validated search request.
type Request struct {
	query   string
	filters []filter.Filter
	facets  []facet.Facet
	sorters []sorter.Sorter
	culture string
	segment string
	access  *Access
	skip    int
	take    int
	// omitTotal skips counting hits; set on facet-only sub-requests.
	omitTotal bool
}

// New validates and normalizes search parameters. A zero Take is kept:
// it asks for totals and facets only.
func New(p Params) (Request, error) {
	if len(p.Query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if p.Skip < 0 {
		return Request{}, fmt.Errorf("skip must be non-negative")
	}
	if p.Take < 0 {
		return Request{}, fmt.Errorf("take must be non-negative")
	}
	if p.Take > MaxTake {
		return Request{}, fmt.Errorf("take must be at most %d", MaxTake)
	}
	if len(p.Filters) > MaxFilters {
		return Request{}, fmt.Errorf("too many filters (max %d)", MaxFilters)
	}
	if len(p.Facets) > MaxFacets {
		return Request{}, fmt.Errorf("too many facets (max %d)", MaxFacets)
	}
	if len(p.Sorters) > MaxSorters {
		return Request{}, fmt.Errorf("too many sorters (max %d)", MaxSorters)
	}
	for _, f := range p.Filters {
		if f == nil {
			return Request{}, fmt.Errorf("filter is required")
		}
		if err := f.Validate(); err != nil {
			return Request{}, err
		}
	}
	for _, f := range p.Facets {
		if f == nil {
			return Request{}, fmt.Errorf("facet is required")
		}
		if err := f.Validate(); err != nil {
			return Request{}, err
		}
	}
	for _, s := range p.Sorters {
		if s == nil {
			return Request{}, fmt.Errorf("sorter is required")
		}
		if err := s.Validate(); err != nil {
			return Request{}, err
		}
	}

	return Request{
		query:   p.Query,
		filters: p.Filters,
		facets:  p.Facets,
		sorters: p.Sorters,
		culture: p.Culture,
		segment: p.Segment,
		access:  p.Access,
		skip:    p.Skip,
		take:    p.Take,
	}, nil
}

// Query returns the free-text query, possibly empty.
func (r Request) Query() string { return r.query }

// Filters returns the filters.
func (r Request) Filters() []filter.Filter { return r.filters }

// Facets returns the requested facets.
func (r Request) Facets() []facet.Facet { return r.facets }

// Sorters returns the ordering clauses.
func (r Request) Sorters() []sorter.Sorter { return r.sorters }

// Culture returns the requested culture, possibly empty.
func (r Request) Culture() string { return r.culture }

// Segment returns the requested segment, possibly empty.
func (r Request) Segment() string { return r.segment }

// Access returns the caller's access context, or nil for anonymous callers.
func (r Request) Access() *Access { return r.access }

// Skip returns the paging offset.
func (r Request) Skip() int { return r.skip }

// Take returns the page size.
func (r Request) Take() int { return r.take }

// CountTotal reports whether the total hit count is wanted.
func (r Request) CountTotal() bool { return !r.omitTotal }

// IsEmpty reports whether the request has no query, filters, facets, or sorters.
func (r Request) IsEmpty() bool {
	return r.query == "" && len(r.filters) == 0 && len(r.facets) == 0 && len(r.sorters) == 0
}

// FacetOnly derives the sub-request used to recompute one facet: same query,
// variation and access, filters replaced, no sorters, no page.
func (r Request) FacetOnly(f facet.Facet, filters []filter.Filter) Request {
	out := r
	out.filters = filters
	out.facets = []facet.Facet{f}
	out.sorters = nil
	out.skip = 0
	out.take = 0
	out.omitTotal = true
	return out
}

// WithFacets returns a copy of the request asking for the given facets.
func (r Request) WithFacets(facets []facet.Facet) Request {
	out := r
	out.facets = facets
	return out
}
