package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	plain := New(CategoryStore, SeverityError, "write failed")
	if got := plain.Error(); got != "store (error): write failed" {
		t.Fatalf("unexpected message %q", got)
	}

	wrapped := Wrap(fmt.Errorf("disk full"), CategoryStore, SeverityError, "write failed")
	if got := wrapped.Error(); got != "store (error): write failed: disk full" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := stderrors.New("broken pipe")
	err := NetworkError(cause, "publish")
	if !stderrors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
}

func TestCategoryHelpers(t *testing.T) {
	err := ConfigError("missing broker")
	if !IsCategory(err, CategoryConfig) {
		t.Fatalf("expected config category")
	}
	if IsCategory(err, CategoryStore) {
		t.Fatalf("wrong category matched")
	}
	if got := GetCategory(fmt.Errorf("anonymous")); got != CategoryInternal {
		t.Fatalf("foreign errors must map to internal, got %s", got)
	}
}

func TestExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(nil)
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{ConfigError("x"), 2},
		{StoreError(nil, "x"), 3},
		{NetworkError(nil, "x"), 4},
		{fmt.Errorf("plain"), 1},
		{IdleSourceError(nil, "x"), 1},
	}
	for _, c := range cases {
		if got := adapter.ExitCodeFor(c.err); got != c.want {
			t.Fatalf("exit code for %v: expected %d got %d", c.err, c.want, got)
		}
	}
}
