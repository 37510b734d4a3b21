package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Keyer generates deterministic cache keys for parameterized lookups.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map
//   iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key from a base key and the bound parameters of
	// the operation that produces the value.
	Key(base string, params any) (string, error)
}

// DefaultKeyer appends a short SHA-256 digest of the canonicalized
// parameters to the base key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key derives a deterministic cache key.
// Format: <base>:<hash> where hash is the first 16 hex characters of
// SHA-256(canonical JSON(params)). Nil params yield the base key unchanged.
func (k *DefaultKeyer) Key(base string, params any) (string, error) {
	if err := ValidateKey(base); err != nil {
		return "", err
	}
	if params == nil {
		return base, nil
	}

	var b strings.Builder
	if err := canonicalize(&b, params); err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params: %w", err)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s:%s", base, hex.EncodeToString(sum[:8])), nil
}

// canonicalize writes a deterministic JSON representation of v.
// Map keys are sorted so logically equal inputs hash identically.
func canonicalize(b *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
		return nil

	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(kb)
			b.WriteByte(':')
			if err := canonicalize(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
		return nil

	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := canonicalize(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil

	default:
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b.Write(vb)
		return nil
	}
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
