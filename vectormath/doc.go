// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package vectormath provides the small vector-arithmetic primitives the
domain manager and domain agent build on: cosine similarity, unit
renormalization, a seeded k-means implementation with a bounded iteration
count, and mean silhouette scoring used to pick k during initial
partitioning.

This is pure CPU work operating on small in-memory matrices; none of it is
a suspension point.
*/
package vectormath
