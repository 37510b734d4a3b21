package breaker

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestRegistry_GetOrCreateIdempotent(t *testing.T) {
	reg := NewRegistry(Config{})

	b1 := reg.GetOrCreate("users")
	b2 := reg.GetOrCreate("users")

	if b1 != b2 {
		t.Error("GetOrCreate should return the same breaker for the same name")
	}
	if b1.Name() != "users" {
		t.Errorf("Name = %q, want users", b1.Name())
	}
	if b1.State() != StateClosed {
		t.Errorf("new breaker state = %v, want closed", b1.State())
	}
}

func TestRegistry_DistinctNames(t *testing.T) {
	reg := NewRegistry(Config{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	ctx := context.Background()

	// Tripping one breaker must not affect another
	_ = reg.GetOrCreate("users").Call(ctx, failing)

	if reg.GetOrCreate("users").State() != StateOpen {
		t.Error("users breaker should be open")
	}
	if reg.GetOrCreate("orders").State() != StateClosed {
		t.Error("orders breaker should be unaffected")
	}
}

func TestRegistry_ConcurrentFirstCreation(t *testing.T) {
	reg := NewRegistry(Config{})

	const goroutines = 32
	breakers := make([]*Breaker, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			breakers[i] = reg.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if breakers[i] != breakers[0] {
			t.Fatal("concurrent GetOrCreate returned different instances")
		}
	}
}

func TestRegistry_GetOrCreateWith(t *testing.T) {
	reg := NewRegistry(Config{FailureThreshold: 5})

	b := reg.GetOrCreateWith("slow", Config{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	_ = b.Call(context.Background(), failing)

	if b.State() != StateOpen {
		t.Error("per-breaker config should apply on first creation")
	}

	// Config on an existing name is ignored
	same := reg.GetOrCreateWith("slow", Config{FailureThreshold: 100})
	if same != b {
		t.Error("GetOrCreateWith should return the existing breaker")
	}
}

func TestRegistry_Get(t *testing.T) {
	reg := NewRegistry(Config{})

	if _, ok := reg.Get("missing"); ok {
		t.Error("Get on unknown name should return ok=false")
	}

	created := reg.GetOrCreate("users")
	got, ok := reg.Get("users")
	if !ok || got != created {
		t.Error("Get should return the created breaker")
	}
}

func TestRegistry_NamesAndStates(t *testing.T) {
	reg := NewRegistry(Config{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	ctx := context.Background()

	reg.GetOrCreate("a")
	_ = reg.GetOrCreate("b").Call(ctx, failing)

	names := reg.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names = %v, want [a b]", names)
	}

	states := reg.States()
	if states["a"] != StateClosed {
		t.Errorf("states[a] = %v, want closed", states["a"])
	}
	if states["b"] != StateOpen {
		t.Errorf("states[b] = %v, want open", states["b"])
	}
}

func TestRegistry_ResetAll(t *testing.T) {
	reg := NewRegistry(Config{FailureThreshold: 1, RecoveryTimeout: time.Hour})
	ctx := context.Background()

	_ = reg.GetOrCreate("a").Call(ctx, failing)
	_ = reg.GetOrCreate("b").Call(ctx, failing)

	reg.ResetAll()

	for name, state := range reg.States() {
		if state != StateClosed {
			t.Errorf("breaker %q state = %v after ResetAll, want closed", name, state)
		}
	}
}
