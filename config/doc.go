// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package config provides configuration management for the statute retrieval
core.

# Overview

config loads a single Config aggregate in "defaults -> YAML file ->
environment variables" precedence order, mirroring the Loader builder
pattern used across the codebase.

# Core types

  - Config: top-level aggregate covering Server, GraphStore, Redis, Mongo,
    Embedding, LLM, Domain, Search, Coordinator, Retry, Log and Telemetry.
  - Loader: builder-style config loader with WithConfigPath/WithEnvPrefix/
    WithValidator/Load.

Every tuning knob enumerated in the specification's configuration table
(MIN_DOMAIN_SIZE, MAX_DOMAIN_SIZE, K_MIN/K_MAX, DOMAIN_ADMIT_THRESHOLD,
PARAGRAPH_SEARCH_K, PARAGRAPH_SIM_THRESHOLD, RNE_RADIUS, RNE_MAX_NODES,
RRF_K, APPENDIX_PENALTY, COLLAB_CONFIDENCE_THRESHOLD,
COORDINATOR_DISPATCH_N, AGENT_DEADLINE_MS, COORDINATOR_DEADLINE_MS,
LLM_RETRIES) is a Config field, never a literal in the code path that uses
it.
*/
package config
