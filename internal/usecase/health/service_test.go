package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[ComponentDatabase] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks[ComponentDatabase])
	}
	if r.Checks[ComponentSearch] != CheckOK {
		t.Errorf("expected search %q, got %q", CheckOK, r.Checks[ComponentSearch])
	}
}

func TestCheck_DatabaseDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("connection refused")}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[ComponentDatabase])
	}
}

func TestCheck_SearchDown(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{err: errors.New("no node available")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentSearch] != CheckError {
		t.Errorf("expected search %q, got %q", CheckError, r.Checks[ComponentSearch])
	}
}

func TestCheck_NoSearch(t *testing.T) {
	svc := New(&mockPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[ComponentSearch]; ok {
		t.Error("search should not be checked when nil")
	}
}
