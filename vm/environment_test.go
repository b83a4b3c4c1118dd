package vm

import "testing"

func TestRegistryLookupWalksParentChain(t *testing.T) {
	r := newRegistry()
	parent := r.alloc(noParent, false)
	r.set(parent, "x", IntValue(42))

	child := r.alloc(parent, true)
	r.set(child, "y", IntValue(43))

	got, err := r.lookup(child, "x")
	if err != nil || got != IntValue(42) {
		t.Fatalf("expected inherited x=42, got %v, err=%v", got, err)
	}
	got, err = r.lookup(child, "y")
	if err != nil || got != IntValue(43) {
		t.Fatalf("expected local y=43, got %v, err=%v", got, err)
	}
}

func TestRegistryLookupMissingNameIsUnboundName(t *testing.T) {
	r := newRegistry()
	root := r.alloc(noParent, false)
	_, err := r.lookup(root, "nope")
	rerr, ok := err.(RuntimeError)
	if !ok || rerr.Kind != UnboundName {
		t.Fatalf("expected UnboundName, got %v", err)
	}
}

func TestRegistryUpdateRewritesNearestBinding(t *testing.T) {
	r := newRegistry()
	parent := r.alloc(noParent, false)
	r.set(parent, "x", IntValue(1))
	child := r.alloc(parent, true)
	r.set(child, "y", IntValue(2))

	if err := r.update(child, "x", IntValue(99)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	got, _ := r.lookup(parent, "x")
	if got != IntValue(99) {
		t.Fatalf("expected parent's x rewritten to 99, got %v", got)
	}
	if _, ok := r.entries[child].vars["x"]; ok {
		t.Fatalf("update must not create a new binding in the child")
	}
}

func TestRegistryUpdateUnboundNameFails(t *testing.T) {
	r := newRegistry()
	root := r.alloc(noParent, false)
	err := r.update(root, "nope", IntValue(1))
	rerr, ok := err.(RuntimeError)
	if !ok || rerr.Kind != UnboundName {
		t.Fatalf("expected UnboundName, got %v", err)
	}
}

func TestRegistryDeclareBindsUninitialized(t *testing.T) {
	r := newRegistry()
	root := r.alloc(noParent, false)
	if err := r.declare(root, []string{"a", "b"}); err != nil {
		t.Fatalf("declare failed: %v", err)
	}
	v, err := r.lookup(root, "a")
	if err != nil || v.Kind != Uninitialized {
		t.Fatalf("expected 'a' to be Uninitialized, got %v, err=%v", v, err)
	}
}

func TestRegistryGetDroppedHandleIsEnvironmentDropped(t *testing.T) {
	r := newRegistry()
	h := r.alloc(noParent, false)
	delete(r.entries, h)
	_, err := r.get(h)
	rerr, ok := err.(RuntimeError)
	if !ok || rerr.Kind != EnvironmentDropped {
		t.Fatalf("expected EnvironmentDropped, got %v", err)
	}
}
