package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockIndexChecker struct {
	existing map[string]bool
	err      error
}

func (m *mockIndexChecker) IndexExists(_ context.Context, name string) (bool, error) {
	return m.existing[name], m.err
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	idx := &mockIndexChecker{existing: map[string]bool{"articles_dev": true, "books_dev": true}}
	svc := New(&mockDBPinger{}, idx, []string{"articles_dev", "books_dev"})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["database"] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks["database"])
	}
	if r.Checks["index:books_dev"] != CheckOK {
		t.Errorf("expected books index %q, got %q", CheckOK, r.Checks["index:books_dev"])
	}
}

func TestCheck_DBError(t *testing.T) {
	idx := &mockIndexChecker{err: errors.New("must not be called")}
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, idx, []string{"articles_dev"})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if _, ok := r.Checks["index:articles_dev"]; ok {
		t.Error("indexes are not checked when the backend is down")
	}
}

func TestCheck_MissingIndex(t *testing.T) {
	idx := &mockIndexChecker{existing: map[string]bool{"articles_dev": true}}
	svc := New(&mockDBPinger{}, idx, []string{"articles_dev", "books_dev"})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["index:books_dev"] != CheckMissing {
		t.Errorf("expected books index %q, got %q", CheckMissing, r.Checks["index:books_dev"])
	}
	if r.Checks["index:articles_dev"] != CheckOK {
		t.Errorf("expected articles index %q, got %q", CheckOK, r.Checks["index:articles_dev"])
	}
}

func TestCheck_IndexError(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockIndexChecker{err: errors.New("timeout")}, []string{"articles_dev"})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["index:articles_dev"] != CheckError {
		t.Error("expected index error")
	}
}

func TestCheck_NoIndexChecker(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, []string{"articles_dev"})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the database check, got %v", r.Checks)
	}
}
