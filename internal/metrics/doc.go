/*
Package metrics provides Prometheus instrumentation across the admin HTTP
surface, the naming/self-assessment LLM boundary, the domain agents'
search pipeline, the response cache, and the graph store.

# Overview

Collector registers every metric via promauto, so there is no manual
Registry bookkeeping. Metrics are namespace-scoped and label-grouped for
Grafana-style dashboards and alerting.

# Core types

  - Collector: holds the Counter/Histogram/Gauge vectors, grouped by
    concern.

# Capabilities

  - HTTP: request count, duration, request/response size, grouped by
    method/path/status (status bucketed to 2xx/3xx/4xx/5xx).
  - LLM: request count, duration, token usage (prompt/completion), cost,
    grouped by provider/model.
  - Domain search: search count, duration, reported confidence, grouped
    by domain_id.
  - Domain manager: rebalance action counts (split/merge/rename).
  - A2A: neighbor consultation counts.
  - Coordinator: routed query counts.
  - Cache: hit/miss counts grouped by cache_type.
  - Graph store: open/idle connection gauges, query duration histogram.
*/
package metrics
