/*
Package cache wraps go-redis to memoize embedding vectors and LLM
responses, with connection pooling, a background health check, and JSON
helpers.

# Overview

Manager owns the Redis client's lifecycle: dial-time connectivity check,
periodic health-check pings, and graceful Close. Embedding vectors and LLM
responses are content-hash keyed so identical paragraphs or prompts never
pay provider latency twice.

# Core types

  - Manager: holds the Redis client and pool config; exposes
    Get/Set/Delete/Exists/Expire plus GetJSON/SetJSON, and the
    domain-specific GetEmbedding/SetEmbedding and
    GetLLMResponse/SetLLMResponse helpers.
  - Config: address, password, pool size, default TTL, health check
    interval.
  - Stats: key count and connection count for the admin status endpoint.

# Capabilities

  - String and JSON cache reads/writes.
  - Connection reuse via PoolSize/MinIdleConns.
  - Background health check with zap logging on failure.
  - ErrCacheMiss sentinel and IsCacheMiss helper.
*/
package cache
