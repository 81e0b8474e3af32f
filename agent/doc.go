// Package agent implements the per-domain hybrid search pipeline: exact
// article-reference lookup, paragraph-vector search, article-vector
// search, relationship-vector search, a bounded semantic graph walk, and
// reciprocal-rank fusion, with optional consultation of neighbor domains
// when local confidence is low.
//
// There is one Searcher shared by every domain; a domain is a value (its
// immutable snapshot state) passed into Search, not a subclass. A single
// Search call observes exactly one partition snapshot throughout.
package agent
