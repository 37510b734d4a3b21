package cache

import (
	"strings"
	"testing"
)

func TestDefaultKeyer_Deterministic(t *testing.T) {
	keyer := NewDefaultKeyer()

	params := map[string]any{"page": 2, "filter": "active", "sort": "name"}

	k1, err := keyer.Key("semi:user:42", params)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	k2, err := keyer.Key("semi:user:42", map[string]any{"sort": "name", "page": 2, "filter": "active"})
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	if k1 != k2 {
		t.Errorf("same params produced different keys: %q vs %q", k1, k2)
	}
	if !strings.HasPrefix(k1, "semi:user:42:") {
		t.Errorf("key %q should start with the base key", k1)
	}
}

func TestDefaultKeyer_DifferentParams(t *testing.T) {
	keyer := NewDefaultKeyer()

	k1, _ := keyer.Key("semi:list", map[string]any{"page": 1})
	k2, _ := keyer.Key("semi:list", map[string]any{"page": 2})

	if k1 == k2 {
		t.Error("different params should produce different keys")
	}
}

func TestDefaultKeyer_NilParams(t *testing.T) {
	keyer := NewDefaultKeyer()

	key, err := keyer.Key("static:region", nil)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if key != "static:region" {
		t.Errorf("nil params key = %q, want base key unchanged", key)
	}
}

func TestDefaultKeyer_NestedParams(t *testing.T) {
	keyer := NewDefaultKeyer()

	k1, err := keyer.Key("semi:list", map[string]any{
		"filters": map[string]any{"a": 1, "b": []any{"x", "y"}},
	})
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	k2, _ := keyer.Key("semi:list", map[string]any{
		"filters": map[string]any{"b": []any{"x", "y"}, "a": 1},
	})

	if k1 != k2 {
		t.Errorf("nested map ordering changed the key: %q vs %q", k1, k2)
	}
}

func TestDefaultKeyer_InvalidBase(t *testing.T) {
	keyer := NewDefaultKeyer()

	if _, err := keyer.Key("", nil); err == nil {
		t.Error("empty base key should error")
	}
}

func TestDefaultKeyer_UnmarshalableParams(t *testing.T) {
	keyer := NewDefaultKeyer()

	if _, err := keyer.Key("semi:list", map[string]any{"fn": func() {}}); err == nil {
		t.Error("unmarshalable params should error")
	}
}
