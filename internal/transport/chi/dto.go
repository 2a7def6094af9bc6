package chi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/facetdex/internal/domain/content"
	"github.com/kailas-cloud/facetdex/internal/domain/search/facet"
	"github.com/kailas-cloud/facetdex/internal/domain/search/filter"
	"github.com/kailas-cloud/facetdex/internal/domain/search/interval"
	"github.com/kailas-cloud/facetdex/internal/domain/search/request"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/domain/search/sorter"
	indexinguc "github.com/kailas-cloud/facetdex/internal/usecase/indexing"
)

// Tagged object types shared by filters and facets.
const (
	typeText          = "text"
	typeKeyword       = "keyword"
	typeIntegerExact  = "integer_exact"
	typeIntegerRange  = "integer_range"
	typeDecimalExact  = "decimal_exact"
	typeDecimalRange  = "decimal_range"
	typeDateTimeExact = "datetime_exact"
	typeDateTimeRange = "datetime_range"
)

// Sorter types.
const (
	sortScore    = "score"
	sortText     = "text"
	sortKeyword  = "keyword"
	sortInteger  = "integer"
	sortDecimal  = "decimal"
	sortDateTime = "datetime"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type searchRequest struct {
	Query   string      `json:"query" validate:"max=4096"`
	Filters []filterDTO `json:"filters" validate:"max=32,dive"`
	Facets  []facetDTO  `json:"facets" validate:"max=16,dive"`
	Sorters []sorterDTO `json:"sorters" validate:"max=8,dive"`
	Culture string      `json:"culture"`
	Segment string      `json:"segment"`
	Access  *accessDTO  `json:"access"`
	Skip    int         `json:"skip" validate:"gte=0"`
	Take    *int        `json:"take" validate:"omitempty,gte=0,lte=500"`
}

type accessDTO struct {
	PrincipalID uuid.UUID   `json:"principal_id" validate:"required"`
	GroupIDs    []uuid.UUID `json:"group_ids"`
}

//nolint:lll // validator tag lists every filter type
type filterDTO struct {
	Type   string          `json:"type" validate:"required,oneof=text keyword integer_exact integer_range decimal_exact decimal_range datetime_exact datetime_range"`
	Field  string          `json:"field" validate:"required"`
	Values json.RawMessage `json:"values"`
	Ranges []rangeDTO      `json:"ranges" validate:"max=64"`
	Negate bool            `json:"negate"`
}

//nolint:lll // validator tag lists every facet type
type facetDTO struct {
	Type   string     `json:"type" validate:"required,oneof=keyword integer_exact integer_range decimal_exact decimal_range datetime_exact datetime_range"`
	Field  string     `json:"field" validate:"required"`
	Ranges []rangeDTO `json:"ranges" validate:"max=64"`
}

type sorterDTO struct {
	Type      string `json:"type" validate:"required,oneof=score text keyword integer decimal datetime"`
	Field     string `json:"field" validate:"required_unless=Type score"`
	Direction string `json:"direction" validate:"omitempty,oneof=asc desc"`
}

// rangeDTO bounds are raw so the same shape carries numbers and timestamps.
type rangeDTO struct {
	Key string          `json:"key"`
	Min json.RawMessage `json:"min"`
	Max json.RawMessage `json:"max"`
}

type upsertRequest struct {
	ObjectType string         `json:"objectType"`
	Variations []variationDTO `json:"variations" validate:"dive"`
	Fields     []fieldDTO     `json:"fields" validate:"dive"`
	Protection *protectionDTO `json:"protection"`
}

type variationDTO struct {
	Culture string `json:"culture"`
	Segment string `json:"segment"`
}

type fieldDTO struct {
	Name      string      `json:"name" validate:"required"`
	Culture   *string     `json:"culture"`
	Segment   *string     `json:"segment"`
	Texts     []string    `json:"texts"`
	TextsR1   []string    `json:"textsR1"`
	TextsR2   []string    `json:"textsR2"`
	TextsR3   []string    `json:"textsR3"`
	Keywords  []string    `json:"keywords"`
	Integers  []int64     `json:"integers"`
	Decimals  []float64   `json:"decimals"`
	DateTimes []time.Time `json:"dateTimes"`
}

type protectionDTO struct {
	AccessIDs []uuid.UUID `json:"accessIds"`
}

type deleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=1000"`
}

type upsertResponse struct {
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

type searchResponse struct {
	Total     int64         `json:"total"`
	Documents []documentDTO `json:"documents"`
	Facets    []facetResult `json:"facets"`
}

type documentDTO struct {
	ID         uuid.UUID `json:"id"`
	ObjectType string    `json:"objectType"`
}

type facetResult struct {
	Field  string          `json:"field"`
	Values []facetValueDTO `json:"values"`
}

type facetValueDTO struct {
	Key   any   `json:"key"`
	Min   any   `json:"min,omitempty"`
	Max   any   `json:"max,omitempty"`
	Count int64 `json:"count"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (req *searchRequest) toDomain() (request.Request, error) {
	p := request.Params{
		Query:   req.Query,
		Culture: req.Culture,
		Segment: req.Segment,
		Skip:    req.Skip,
		Take:    request.DefaultTake,
	}
	if req.Take != nil {
		p.Take = *req.Take
	}
	if req.Access != nil {
		p.Access = &request.Access{PrincipalID: req.Access.PrincipalID, GroupIDs: req.Access.GroupIDs}
	}

	for i := range req.Filters {
		f, err := req.Filters[i].toDomain()
		if err != nil {
			return request.Request{}, fmt.Errorf("filters[%d]: %w", i, err)
		}
		p.Filters = append(p.Filters, f)
	}
	for i := range req.Facets {
		f, err := req.Facets[i].toDomain()
		if err != nil {
			return request.Request{}, fmt.Errorf("facets[%d]: %w", i, err)
		}
		p.Facets = append(p.Facets, f)
	}
	for _, s := range req.Sorters {
		p.Sorters = append(p.Sorters, s.toDomain())
	}

	r, err := request.New(p)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}
	return r, nil
}

func (f *filterDTO) toDomain() (filter.Filter, error) {
	switch f.Type {
	case typeText:
		v, err := decodeValues[string](f.Values)
		return filter.Text{Field: f.Field, Values: v, Negate: f.Negate}, err
	case typeKeyword:
		v, err := decodeValues[string](f.Values)
		return filter.Keyword{Field: f.Field, Values: v, Negate: f.Negate}, err
	case typeIntegerExact:
		v, err := decodeValues[int64](f.Values)
		return filter.IntegerExact{Field: f.Field, Values: v, Negate: f.Negate}, err
	case typeDecimalExact:
		v, err := decodeValues[float64](f.Values)
		return filter.DecimalExact{Field: f.Field, Values: v, Negate: f.Negate}, err
	case typeDateTimeExact:
		v, err := decodeValues[time.Time](f.Values)
		return filter.DateTimeExact{Field: f.Field, Values: v, Negate: f.Negate}, err
	case typeIntegerRange:
		r, err := decodeRanges[int64](f.Ranges)
		return filter.IntegerRange{Field: f.Field, Ranges: r, Negate: f.Negate}, err
	case typeDecimalRange:
		r, err := decodeRanges[float64](f.Ranges)
		return filter.DecimalRange{Field: f.Field, Ranges: r, Negate: f.Negate}, err
	case typeDateTimeRange:
		r, err := decodeRanges[time.Time](f.Ranges)
		return filter.DateTimeRange{Field: f.Field, Ranges: r, Negate: f.Negate}, err
	}
	return nil, fmt.Errorf("unknown filter type %q", f.Type)
}

func (f *facetDTO) toDomain() (facet.Facet, error) {
	switch f.Type {
	case typeKeyword:
		return facet.Keyword{Field: f.Field}, nil
	case typeIntegerExact:
		return facet.IntegerExact{Field: f.Field}, nil
	case typeDecimalExact:
		return facet.DecimalExact{Field: f.Field}, nil
	case typeDateTimeExact:
		return facet.DateTimeExact{Field: f.Field}, nil
	case typeIntegerRange:
		r, err := decodeRanges[int64](f.Ranges)
		return facet.IntegerRange{Field: f.Field, Ranges: r}, err
	case typeDecimalRange:
		r, err := decodeRanges[float64](f.Ranges)
		return facet.DecimalRange{Field: f.Field, Ranges: r}, err
	case typeDateTimeRange:
		r, err := decodeRanges[time.Time](f.Ranges)
		return facet.DateTimeRange{Field: f.Field, Ranges: r}, err
	}
	return nil, fmt.Errorf("unknown facet type %q", f.Type)
}

func (s sorterDTO) toDomain() sorter.Sorter {
	dir := sorter.Direction(s.Direction)
	switch s.Type {
	case sortText:
		return sorter.Text{Field: s.Field, Direction: dir}
	case sortKeyword:
		return sorter.Keyword{Field: s.Field, Direction: dir}
	case sortInteger:
		return sorter.Integer{Field: s.Field, Direction: dir}
	case sortDecimal:
		return sorter.Decimal{Field: s.Field, Direction: dir}
	case sortDateTime:
		return sorter.DateTime{Field: s.Field, Direction: dir}
	default:
		if dir == "" {
			dir = sorter.Descending
		}
		return sorter.Score{Direction: dir}
	}
}

func decodeValues[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}
	return out, nil
}

func decodeRanges[T interval.Bound](in []rangeDTO) ([]interval.Range[T], error) {
	out := make([]interval.Range[T], 0, len(in))
	for _, r := range in {
		lo, err := decodeBound[T](r.Min)
		if err != nil {
			return nil, fmt.Errorf("range %q min: %w", r.Key, err)
		}
		hi, err := decodeBound[T](r.Max)
		if err != nil {
			return nil, fmt.Errorf("range %q max: %w", r.Key, err)
		}
		out = append(out, interval.New(r.Key, lo, hi))
	}
	return out, nil
}

// decodeBound treats an absent or null bound as unbounded.
func decodeBound[T interval.Bound](raw json.RawMessage) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (req *upsertRequest) toItem(id uuid.UUID) indexinguc.Item {
	item := indexinguc.Item{
		ContentID:  id,
		ObjectType: content.ParseObjectType(req.ObjectType),
	}
	for _, v := range req.Variations {
		item.Variations = append(item.Variations, content.NewVariation(v.Culture, v.Segment))
	}
	for _, f := range req.Fields {
		item.Fields = append(item.Fields, content.Field{
			Name:    f.Name,
			Culture: f.Culture,
			Segment: f.Segment,
			Value: content.Value{
				Texts:     f.Texts,
				TextsR1:   f.TextsR1,
				TextsR2:   f.TextsR2,
				TextsR3:   f.TextsR3,
				Keywords:  f.Keywords,
				Integers:  f.Integers,
				Decimals:  f.Decimals,
				DateTimes: f.DateTimes,
			},
		})
	}
	if req.Protection != nil {
		item.Protection = &content.Protection{AccessIDs: req.Protection.AccessIDs}
	}
	return item
}

func resultToResponse(res result.Result) searchResponse {
	resp := searchResponse{
		Total:     res.Total,
		Documents: make([]documentDTO, len(res.Documents)),
		Facets:    make([]facetResult, len(res.Facets)),
	}
	for i, d := range res.Documents {
		resp.Documents[i] = documentDTO{ID: d.ID, ObjectType: string(d.ObjectType)}
	}
	for i, f := range res.Facets {
		values := make([]facetValueDTO, len(f.Values))
		for j, v := range f.Values {
			values[j] = facetValueToDTO(v)
		}
		resp.Facets[i] = facetResult{Field: f.Field, Values: values}
	}
	return resp
}

func facetValueToDTO(v result.FacetValue) facetValueDTO {
	switch x := v.(type) {
	case result.KeywordValue:
		return facetValueDTO{Key: x.Key, Count: x.Count}
	case result.IntegerExactValue:
		return facetValueDTO{Key: x.Key, Count: x.Count}
	case result.DecimalExactValue:
		return facetValueDTO{Key: x.Key, Count: x.Count}
	case result.DateTimeExactValue:
		return facetValueDTO{Key: x.Key, Count: x.Count}
	case result.IntegerRangeValue:
		return facetValueDTO{Key: x.Key, Min: optional(x.Min), Max: optional(x.Max), Count: x.Count}
	case result.DecimalRangeValue:
		return facetValueDTO{Key: x.Key, Min: optional(x.Min), Max: optional(x.Max), Count: x.Count}
	case result.DateTimeRangeValue:
		return facetValueDTO{Key: x.Key, Min: optional(x.Min), Max: optional(x.Max), Count: x.Count}
	}
	return facetValueDTO{Count: v.ValueCount()}
}

// optional returns an untyped nil for a nil bound so omitempty drops it.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
