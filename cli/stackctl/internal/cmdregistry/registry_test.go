package cmdregistry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestRegistryRegisterLookup(t *testing.T) {
	r := New()
	hit := false
	r.Register("sample", func(_ context.Context, c *Context) error {
		hit = true
		if c.Project != "foo" {
			t.Fatalf("unexpected project %q", c.Project)
		}
		return nil
	})
	h, ok := r.Lookup("sample")
	if !ok {
		t.Fatalf("handler not found")
	}
	if err := h(context.Background(), &Context{Project: "foo"}); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !hit {
		t.Fatalf("handler was not invoked")
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Fatalf("unexpected handler for missing command")
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := New()
	r.Register("dup", func(context.Context, *Context) error { return nil })
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic on duplicate register")
		}
	}()
	r.Register("dup", func(context.Context, *Context) error { return nil })
}

func TestRegistryNamesSorted(t *testing.T) {
	r := New()
	for _, n := range []string{"up", "down", "provision"} {
		r.Register(n, func(context.Context, *Context) error { return nil })
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"down", "provision", "up"}) {
		t.Fatalf("names=%v", got)
	}
}

func TestIsUsage(t *testing.T) {
	err := fmt.Errorf("patch: %w", Usagef("--file is required"))
	if !IsUsage(err) {
		t.Fatalf("wrapped usage error not detected")
	}
	if err.Error() != "patch: --file is required" {
		t.Fatalf("message=%q", err.Error())
	}
	if IsUsage(errors.New("boom")) {
		t.Fatalf("plain error reported as usage")
	}
}
