// Package coordinator is the query ingress. It routes a query to the
// best-matching domains (centroid similarity blended with an LLM
// self-assessment), fans out to their agents in parallel under a hard
// deadline, fuses the returned records, and emits ordered progress events
// for the streaming surface.
package coordinator
