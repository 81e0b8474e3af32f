// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package graph defines the labeled property graph's data model (statute,
article, paragraph, item nodes; containment, sequence, citation, and
membership edges) and the Repository contract through which every other
component reads and writes it. graphstore provides the concrete
GORM-backed implementation; this package only declares the shape both
sides agree on.
*/
package graph
