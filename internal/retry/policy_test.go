package retry

import (
	"testing"
	"time"
)

// TestDefaultPolicy verifies the reconnect baseline.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != BackoffExponential {
		t.Fatalf("expected exponential default mode got %s", p.Mode)
	}
	if p.Initial != time.Second {
		t.Fatalf("expected initial 1s got %v", p.Initial)
	}
	if p.Max != 60*time.Second {
		t.Fatalf("expected max 60s got %v", p.Max)
	}
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Max != 2*time.Second {
		t.Fatalf("expected max 2s got %v", p.Max)
	}
	if p.Mode != BackoffFixed {
		t.Fatalf("expected fixed mode got %s", p.Mode)
	}

	q := NewPolicy("bogus", 0, 0)
	if q != DefaultPolicy() {
		t.Fatalf("expected defaults for invalid input got %+v", q)
	}
}

// TestDelayExponential ensures doubling up to the cap: 1s, 2s, 4s, ... capped.
func TestDelayExponential(t *testing.T) {
	p := NewPolicy(BackoffExponential, time.Second, 60*time.Second)
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 32 * time.Second},
		{7, 60 * time.Second},
		{100, 60 * time.Second},
	}
	for _, c := range cases {
		if got := p.Delay(c.attempt); got != c.want {
			t.Fatalf("attempt %d expected %v got %v", c.attempt, c.want, got)
		}
	}
}

// TestDelayFixed ensures the fixed mode never grows.
func TestDelayFixed(t *testing.T) {
	p := NewPolicy(BackoffFixed, 100*time.Millisecond, 500*time.Millisecond)
	for i := 1; i <= 4; i++ {
		if d := p.Delay(i); d != 100*time.Millisecond {
			t.Fatalf("fixed attempt %d expected 100ms got %v", i, d)
		}
	}
}

// TestDelayEdgeCases ensures non-positive attempts yield zero.
func TestDelayEdgeCases(t *testing.T) {
	p := DefaultPolicy()
	if d := p.Delay(0); d != 0 {
		t.Fatalf("attempt 0 expected 0 got %v", d)
	}
	if d := p.Delay(-1); d != 0 {
		t.Fatalf("attempt -1 expected 0 got %v", d)
	}
}

// TestValidate rejects impossible policies.
func TestValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy should validate: %v", err)
	}
	bad := Policy{Mode: BackoffFixed, Initial: 0, Max: time.Second}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero initial")
	}
}
