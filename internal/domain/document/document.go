// Package document holds one (culture, segment) rendition of a content item,
// the unit written to a search index.
package document

import (
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/facetdex/internal/domain/content"
)

// Texts are the full-text aggregates of a document, one per relevance tier.
type Texts struct {
	Base string
	R1   string
	R2   string
	R3   string
}

// Document is an index document (immutable value object).
type Document struct {
	contentID  uuid.UUID
	objectType content.ObjectType
	culture    string
	segment    string
	accessKeys []uuid.UUID
	fields     []content.Field
	texts      Texts
}

// New builds the document for one variation from the fields already resolved
// for it. Every field contributes to the text aggregates in field order.
func New(
	contentID uuid.UUID, objectType content.ObjectType, v content.Variation,
	fields []content.Field, protection *content.Protection,
) Document {
	return Document{
		contentID:  contentID,
		objectType: objectType,
		culture:    v.IndexCulture(),
		segment:    v.IndexSegment(),
		accessKeys: protection.AccessKeys(),
		fields:     fields,
		texts:      aggregate(fields),
	}
}

// ID returns {contentId}_{culture}_{segment}.
func (d Document) ID() string {
	return d.contentID.String() + "_" + d.culture + "_" + d.segment
}

// ContentID returns the id of the content item.
func (d Document) ContentID() uuid.UUID { return d.contentID }

// ObjectType returns the coarse content kind.
func (d Document) ObjectType() content.ObjectType { return d.objectType }

// Culture returns the normalized culture.
func (d Document) Culture() string { return d.culture }

// Segment returns the normalized segment.
func (d Document) Segment() string { return d.segment }

// AccessKeys returns the principals and groups allowed to see the document.
func (d Document) AccessKeys() []uuid.UUID { return d.accessKeys }

// Fields returns the resolved fields.
func (d Document) Fields() []content.Field { return d.fields }

// Texts returns the full-text aggregates.
func (d Document) Texts() Texts { return d.texts }

func aggregate(fields []content.Field) Texts {
	var base, r1, r2, r3 []string
	for _, f := range fields {
		base = append(base, f.Value.Texts...)
		r1 = append(r1, f.Value.TextsR1...)
		r2 = append(r2, f.Value.TextsR2...)
		r3 = append(r3, f.Value.TextsR3...)
	}
	return Texts{
		Base: strings.Join(base, " "),
		R1:   strings.Join(r1, " "),
		R2:   strings.Join(r2, " "),
		R3:   strings.Join(r3, " "),
	}
}
