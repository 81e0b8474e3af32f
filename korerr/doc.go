// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package korerr defines the stable error kinds surfaced across the retrieval
core (graph repository, embedding provider, domain manager, domain agent,
coordinator). Every error kind is a sentinel that participates in
errors.Is/errors.As chains via fmt.Errorf("...: %w", err), mirroring the
rest of the codebase's per-package errors.go grouping.
*/
package korerr
