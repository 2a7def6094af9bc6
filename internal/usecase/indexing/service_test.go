package indexing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/facetdex/internal/domain/content"
	domdoc "github.com/kailas-cloud/facetdex/internal/domain/document"
	"github.com/kailas-cloud/facetdex/internal/domain/index"
)

// --- Mocks ---

type mockRepo struct {
	putIndex string
	putKnown map[string]bool
	putDocs  []domdoc.Document
	itemErrs []error
	putErr   error

	deleteIndex string
	deleteIDs   []uuid.UUID
	deleted     int
	deleteErr   error
}

func (m *mockRepo) PutAll(
	_ context.Context, index string, known map[string]bool, docs []domdoc.Document,
) ([]error, error) {
	m.putIndex, m.putKnown, m.putDocs = index, known, docs
	if m.putErr != nil {
		return nil, m.putErr
	}
	if m.itemErrs != nil {
		return m.itemErrs, nil
	}
	return make([]error, len(docs)), nil
}

func (m *mockRepo) DeleteByAncestors(_ context.Context, index string, ids []uuid.UUID) (int, error) {
	m.deleteIndex, m.deleteIDs = index, ids
	return m.deleted, m.deleteErr
}

type mockSchema struct {
	reset []string
	err   error
}

func (m *mockSchema) Reset(_ context.Context, alias string) error {
	m.reset = append(m.reset, alias)
	return m.err
}

func newService(repo *mockRepo, opts Options, logger *zap.Logger) *Service {
	known := index.NewKnownFields(index.KnownFieldsOptions{
		IncludeName: true,
		Global:      []string{"articleYear"},
	})
	return New(repo, &mockSchema{}, index.NewAliasResolver("dev"), known, opts, logger)
}

func strPtr(s string) *string { return &s }

var contentID = uuid.MustParse("6f1c5a0e-8d8f-4f35-9d5e-2b6f3f3c1a11")

// --- Tests ---

func TestAddOrUpdate_OneDocumentPerVariation(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, Options{Primary: true}, zap.NewNop())

	item := Item{
		ContentID:  contentID,
		ObjectType: content.ObjectTypeDocument,
		Variations: []content.Variation{content.NewVariation("en-US", ""), content.NewVariation("da-DK", "")},
		Fields: []content.Field{
			{Name: "name", Value: content.Value{Texts: []string{"Hello"}}, Culture: strPtr("en-US")},
			{Name: "name", Value: content.Value{Texts: []string{"Hej"}}, Culture: strPtr("da-DK")},
			{Name: "tags", Value: content.Value{Keywords: []string{"go"}}},
		},
	}

	report, err := svc.AddOrUpdate(context.Background(), "Articles", item)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report != (Report{Indexed: 2}) {
		t.Errorf("report = %+v", report)
	}
	if repo.putIndex != "articles_dev" {
		t.Errorf("index = %q, want articles_dev", repo.putIndex)
	}
	if diff := cmp.Diff(map[string]bool{"name": true, "articleYear": true}, repo.putKnown); diff != "" {
		t.Errorf("known fields (-want +got):\n%s", diff)
	}
	if len(repo.putDocs) != 2 {
		t.Fatalf("docs = %d, want 2", len(repo.putDocs))
	}

	en, da := repo.putDocs[0], repo.putDocs[1]
	if en.ID() != contentID.String()+"_en-us_def" || da.ID() != contentID.String()+"_da-dk_def" {
		t.Errorf("ids = %s, %s", en.ID(), da.ID())
	}
	if en.Texts().Base != "Hello" || da.Texts().Base != "Hej" {
		t.Errorf("texts = %q, %q", en.Texts().Base, da.Texts().Base)
	}
	if len(en.Fields()) != 2 {
		t.Errorf("invariant field should apply to every variation, got %d fields", len(en.Fields()))
	}
}

func TestAddOrUpdate_NoVariations(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, Options{Primary: true}, zap.NewNop())

	item := Item{ContentID: contentID, ObjectType: content.ObjectTypeMedia}
	if _, err := svc.AddOrUpdate(context.Background(), "articles", item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.putDocs) != 1 || repo.putDocs[0].ID() != contentID.String()+"_inv_def" {
		t.Errorf("docs = %+v, want one invariant document", repo.putDocs)
	}
}

func TestAddOrUpdate_DerivedYears(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, Options{Primary: true, DerivedYears: map[string]string{"articleDate": "articleYear"}}, zap.NewNop())

	published := time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC)
	fields := []content.Field{{Name: "articleDate", Value: content.Value{DateTimes: []time.Time{published}}}}
	item := Item{ContentID: contentID, Fields: fields}

	if _, err := svc.AddOrUpdate(context.Background(), "articles", item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var year *content.Field
	for _, f := range repo.putDocs[0].Fields() {
		if f.Name == "articleYear" {
			year = &f
		}
	}
	if year == nil {
		t.Fatal("derived articleYear field missing")
	}
	if diff := cmp.Diff([]int64{2023}, year.Value.Integers); diff != "" {
		t.Errorf("years (-want +got):\n%s", diff)
	}
	if len(item.Fields) != 1 {
		t.Error("caller's fields must not be modified")
	}
}

func TestAddOrUpdate_PartialFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := &mockRepo{itemErrs: []error{nil, errors.New("mapping conflict"), errors.New("too large")}}
	svc := newService(repo, Options{Primary: true}, zap.New(core))

	item := Item{
		ContentID: contentID,
		Variations: []content.Variation{
			content.NewVariation("en", ""), content.NewVariation("da", ""), content.NewVariation("de", ""),
		},
	}

	report, err := svc.AddOrUpdate(context.Background(), "articles", item)
	if err != nil {
		t.Fatalf("per-document failures must not fail the call, got %v", err)
	}
	if report != (Report{Indexed: 1, Failed: 2}) {
		t.Errorf("report = %+v", report)
	}

	entries := logs.FilterMessage("Documents rejected by index").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["first_error"]; got != "mapping conflict" {
		t.Errorf("first_error = %v", got)
	}
}

func TestAddOrUpdate_TransportError(t *testing.T) {
	repo := &mockRepo{putErr: errors.New("connection refused")}
	svc := newService(repo, Options{Primary: true}, zap.NewNop())

	if _, err := svc.AddOrUpdate(context.Background(), "articles", Item{ContentID: contentID}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAddOrUpdate_NotPrimary(t *testing.T) {
	repo := &mockRepo{}
	svc := newService(repo, Options{}, zap.NewNop())

	if _, err := svc.AddOrUpdate(context.Background(), "articles", Item{ContentID: contentID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.putDocs != nil {
		t.Error("non-primary node must not write")
	}
}

func TestDelete(t *testing.T) {
	repo := &mockRepo{deleted: 3}
	svc := newService(repo, Options{Primary: true}, zap.NewNop())

	n, err := svc.Delete(context.Background(), "Articles", []uuid.UUID{contentID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 || repo.deleteIndex != "articles_dev" {
		t.Errorf("Delete() = %d on %q", n, repo.deleteIndex)
	}
}

func TestDelete_NoopCases(t *testing.T) {
	t.Run("not primary", func(t *testing.T) {
		repo := &mockRepo{}
		if _, err := newService(repo, Options{}, zap.NewNop()).Delete(context.Background(), "articles", []uuid.UUID{contentID}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.deleteIDs != nil {
			t.Error("non-primary node must not delete")
		}
	})

	t.Run("no ids", func(t *testing.T) {
		repo := &mockRepo{}
		if _, err := newService(repo, Options{Primary: true}, zap.NewNop()).Delete(context.Background(), "articles", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.deleteIndex != "" {
			t.Error("nothing to delete")
		}
	})
}

func TestDelete_Error(t *testing.T) {
	repo := &mockRepo{deleteErr: errors.New("timeout")}
	svc := newService(repo, Options{Primary: true}, zap.NewNop())

	if _, err := svc.Delete(context.Background(), "articles", []uuid.UUID{contentID}); err == nil {
		t.Fatal("expected error")
	}
}

func TestReset(t *testing.T) {
	schema := &mockSchema{}
	svc := New(&mockRepo{}, schema, index.NewAliasResolver(""), index.KnownFields{}, Options{Primary: true}, zap.NewNop())

	if err := svc.Reset(context.Background(), "articles"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"articles"}, schema.reset); diff != "" {
		t.Errorf("reset (-want +got):\n%s", diff)
	}

	schema.err = errors.New("drop failed")
	if err := svc.Reset(context.Background(), "articles"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDeriveYears(t *testing.T) {
	d1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	fields := []content.Field{
		{Name: "articleDate", Value: content.Value{DateTimes: []time.Time{d1, d2}}, Culture: strPtr("en")},
		{Name: "articleDate", Value: content.Value{Texts: []string{"no dates"}}},
		{Name: "other", Value: content.Value{DateTimes: []time.Time{d1}}},
	}

	got := deriveYears(fields, map[string]string{"articleDate": "articleYear"})
	want := []content.Field{
		{Name: "articleYear", Value: content.Value{Integers: []int64{2020, 2021}}, Culture: strPtr("en")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("deriveYears() mismatch (-want +got):\n%s", diff)
	}

	if deriveYears(fields, nil) != nil {
		t.Error("no configuration derives nothing")
	}
}
