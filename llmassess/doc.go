// Package llmassess holds the two places the core consults an LLM: naming
// freshly created domains and judging whether a candidate domain can
// answer a query. Both are best-effort. Every failure mode here recovers
// locally (fallback names, centroid-only routing) and never aborts a
// query or a rebalance.
package llmassess
