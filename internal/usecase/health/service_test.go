package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockCachePinger struct {
	err error
}

func (m *mockCachePinger) Ping(_ context.Context) error { return m.err }

type mockBreaker struct {
	state string
}

func (m *mockBreaker) BreakerState() string { return m.state }

type mockModel struct {
	configured bool
}

func (m *mockModel) Configured() bool { return m.configured }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockBreaker{state: "closed"}, &mockModel{configured: true}, &mockCachePinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"catalogue", "model", "cache"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_BreakerOpen(t *testing.T) {
	svc := New(&mockBreaker{state: "open"}, &mockModel{configured: true}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["catalogue"] != CheckError {
		t.Errorf("expected catalogue %q, got %q", CheckError, r.Checks["catalogue"])
	}
}

func TestCheck_BreakerHalfOpenIsOK(t *testing.T) {
	svc := New(&mockBreaker{state: "half-open"}, &mockModel{configured: true}, nil)
	r := svc.Check(context.Background())

	if r.Checks["catalogue"] != CheckOK {
		t.Errorf("expected catalogue %q, got %q", CheckOK, r.Checks["catalogue"])
	}
	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
}

func TestCheck_ModelNotConfigured(t *testing.T) {
	svc := New(&mockBreaker{state: "closed"}, &mockModel{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["model"] != CheckError {
		t.Errorf("expected model %q, got %q", CheckError, r.Checks["model"])
	}
}

func TestCheck_CacheError(t *testing.T) {
	svc := New(&mockBreaker{state: "closed"}, &mockModel{configured: true}, &mockCachePinger{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
}

func TestCheck_DisabledComponents(t *testing.T) {
	svc := New(nil, &mockModel{configured: true}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("disabled components must not degrade, got %q", r.Status)
	}
	if r.Checks["catalogue"] != CheckDisabled {
		t.Errorf("expected catalogue %q, got %q", CheckDisabled, r.Checks["catalogue"])
	}
	if r.Checks["cache"] != CheckDisabled {
		t.Errorf("expected cache %q, got %q", CheckDisabled, r.Checks["cache"])
	}
}
