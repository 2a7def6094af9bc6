package document

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/facetdex/internal/domain/content"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/fieldname"
)

// buildJSONDoc flattens a domain Document into the physical JSON shape.
// Only known fields get projections; contentTypeId and pathIds keywords are
// always copied.
func buildJSONDoc(doc *domdoc.Document, known map[string]bool) map[string]any {
	texts := doc.Texts()
	m := map[string]any{
		fieldname.ID:         doc.ID(),
		fieldname.ObjectType: string(doc.ObjectType()),
		fieldname.Key:        doc.ContentID().String(),
		fieldname.Culture:    doc.Culture(),
		fieldname.Segment:    doc.Segment(),
		fieldname.AccessKeys: uuidStrings(doc.AccessKeys()),
		fieldname.AllTexts:   texts.Base,
		fieldname.AllTextsR1: texts.R1,
		fieldname.AllTextsR2: texts.R2,
		fieldname.AllTextsR3: texts.R3,
	}

	for _, f := range doc.Fields() {
		if isAlwaysMaterialized(f.Name) && len(f.Value.Keywords) > 0 {
			m[fieldname.Physical(f.Name, fieldname.Keywords)] = f.Value.Keywords
		}
		if !known[f.Name] {
			continue
		}
		addProjections(m, f)
	}
	return m
}

func isAlwaysMaterialized(name string) bool {
	return name == content.ContentTypeIDField || name == content.PathIDsField
}

func addProjections(m map[string]any, f content.Field) {
	v := f.Value
	put := func(k fieldname.Kind, value any) {
		m[fieldname.Physical(f.Name, k)] = value
	}

	for _, t := range []struct {
		kind   fieldname.Kind
		values []string
	}{
		{fieldname.Texts, v.Texts},
		{fieldname.TextsR1, v.TextsR1},
		{fieldname.TextsR2, v.TextsR2},
		{fieldname.TextsR3, v.TextsR3},
	} {
		if len(t.values) > 0 {
			put(t.kind, strings.Join(t.values, " "))
		}
	}

	if len(v.Keywords) > 0 {
		put(fieldname.Keywords, v.Keywords)
	}
	if len(v.Integers) > 0 {
		put(fieldname.Integers, v.Integers)
		put(fieldname.IntegersSort, v.Integers[0])
	}
	if len(v.Decimals) > 0 {
		put(fieldname.Decimals, v.Decimals)
		put(fieldname.DecimalsSort, v.Decimals[0])
	}
	if len(v.DateTimes) > 0 {
		millis := epochMillis(v.DateTimes)
		put(fieldname.DateTimes, millis)
		put(fieldname.DateTimesSort, millis[0])
	}
}

// epochMillis stores date-times as Unix milliseconds so they index as numbers.
func epochMillis(ts []time.Time) []int64 {
	out := make([]int64, len(ts))
	for i, t := range ts {
		out[i] = t.UnixMilli()
	}
	return out
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
