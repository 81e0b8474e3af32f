package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sync"
)

// NameCache reuses an LLM-generated domain name when a rebalance
// reproduces a near-identical centroid, keeping user-visible names stable
// across passes even though the naming procedure itself is
// non-deterministic. Keys are quantized centroid signatures: two
// centroids whose components round to the same multiples of the
// quantization step hash identically.
type NameCache struct {
	mu    sync.Mutex
	names map[string]string
}

// NewNameCache returns an empty cache.
func NewNameCache() *NameCache {
	return &NameCache{names: map[string]string{}}
}

// quantization step per component; each component is rounded to the
// nearest multiple of it, and vectors whose rounded components all match
// collapse to the same signature.
const signatureStep = 0.05

// Signature computes the quantized hash of centroid.
func Signature(centroid []float64) string {
	h := sha256.New()
	buf := make([]byte, 2)
	for _, c := range centroid {
		q := int16(math.Round(c / signatureStep))
		buf[0] = byte(q >> 8)
		buf[1] = byte(q)
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Lookup returns a previously stored name for a centroid with the same
// signature.
func (c *NameCache) Lookup(centroid []float64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.names[Signature(centroid)]
	return name, ok
}

// Store associates name with centroid's signature.
func (c *NameCache) Store(centroid []float64, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[Signature(centroid)] = name
}
