package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// keyVersion changes whenever the cached log layout does, so entries written
// by an older build miss instead of failing to decode.
const keyVersion = "v1"

// Hash returns the hex SHA-256 of data. Instances are hashed over their
// canonical JSON encoding.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<kind>:<version>:<sha256 of the JSON of parts>".
func hashKey(kind string, parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		// Parts are plain strings and structs of scalars; encoding cannot fail.
		_ = enc.Encode(p)
	}
	return kind + ":" + keyVersion + ":" + hex.EncodeToString(h.Sum(nil))
}

// SolveKeyOpts lists everything besides the instance that determines a
// solve result.
type SolveKeyOpts struct {
	Initial string `json:"initial"`
	Seed    uint64 `json:"seed"`
	// Options is the canonical JSON of the annealing options.
	Options string `json:"options"`
}

// Keyer derives cache keys.
type Keyer interface {
	// SolveKey returns the key of a solve result for the instance with the
	// given content hash.
	SolveKey(instanceHash string, opts SolveKeyOpts) string
}

// DefaultKeyer produces "solve:v1:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SolveKey implements Keyer.
func (DefaultKeyer) SolveKey(instanceHash string, opts SolveKeyOpts) string {
	return hashKey("solve", instanceHash, opts)
}

// ScopedKeyer namespaces another Keyer, e.g. one experiment's sweep over
// alpha values sharing a Redis cache with regular solves:
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "exp:alpha-sweep:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer prefixes every key of inner. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SolveKey implements Keyer.
func (k *ScopedKeyer) SolveKey(instanceHash string, opts SolveKeyOpts) string {
	return k.prefix + k.inner.SolveKey(instanceHash, opts)
}
