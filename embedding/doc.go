// Package embedding maps Korean text to fixed-dimension unit vectors. The
// core depends only on the Provider contract; all stored vectors in one
// graph must come from a single model, and every returned vector is
// length-checked so a misconfigured provider surfaces as a
// dimension_mismatch instead of silently corrupting centroids.
package embedding
