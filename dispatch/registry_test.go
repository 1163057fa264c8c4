package dispatch

import (
	"context"
	"errors"
	"testing"
)

func noopTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "test tool",
		Execute: func(ctx context.Context, params any, tc *ToolContext) (any, error) {
			return "ok", nil
		},
	}
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(noopTool("a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(noopTool("a")); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestRegistrationOrderPreserved(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(noopTool(name)); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"zeta", "alpha", "mid"}
	names := r.Names()
	for i, name := range want {
		if names[i] != name {
			t.Errorf("names[%d]: expected %q, got %q", i, name, names[i])
		}
	}
	all := r.All()
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("all[%d]: expected %q, got %q", i, name, all[i].Name)
		}
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(noopTool("a"))
	r.Register(noopTool("b"))

	if !r.Unregister("a") {
		t.Error("expected unregister of present tool to return true")
	}
	if r.Unregister("a") {
		t.Error("expected unregister of absent tool to return false")
	}
	if names := r.Names(); len(names) != 1 || names[0] != "b" {
		t.Errorf("expected [b], got %v", names)
	}
}

func TestDeclarationsIncludeSchema(t *testing.T) {
	r := NewRegistry()
	tool := noopTool("ReadFile")
	tool.Params = ReadFileParams{}
	r.Register(tool)
	r.Register(noopTool("bare"))

	decls := r.Declarations()
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if decls[0].Name != "ReadFile" || decls[0].Parameters == nil {
		t.Errorf("expected ReadFile declaration with a schema, got %+v", decls[0])
	}
	if decls[1].Parameters != nil {
		t.Error("expected schema-less declaration for a tool without params")
	}
}

func TestLifecycleContinuesPastFailingHooks(t *testing.T) {
	r := NewRegistry()

	initialized := map[string]bool{}
	shutdown := map[string]bool{}

	mk := func(name string, fail bool) *Tool {
		tool := noopTool(name)
		tool.Initialize = func(tc *ToolContext) error {
			initialized[name] = true
			if fail {
				return errors.New("init failed")
			}
			return nil
		}
		tool.Shutdown = func() error {
			shutdown[name] = true
			if fail {
				return errors.New("shutdown failed")
			}
			return nil
		}
		return tool
	}

	r.Register(mk("first", false))
	r.Register(mk("broken", true))
	r.Register(mk("last", false))

	errs := r.InitializeAll(&ToolContext{})
	if len(errs) != 1 {
		t.Errorf("expected 1 initialize error, got %d", len(errs))
	}
	for _, name := range []string{"first", "broken", "last"} {
		if !initialized[name] {
			t.Errorf("expected %s initialized despite earlier failure", name)
		}
	}

	errs = r.ShutdownAll()
	if len(errs) != 1 {
		t.Errorf("expected 1 shutdown error, got %d", len(errs))
	}
	for _, name := range []string{"first", "broken", "last"} {
		if !shutdown[name] {
			t.Errorf("expected %s shut down despite earlier failure", name)
		}
	}
}
