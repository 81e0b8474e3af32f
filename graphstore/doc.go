// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package graphstore is the GORM-backed implementation of graph.Repository:
one table per node kind (statute, article, paragraph, item) and one table
per edge kind (containment, sequence, citation, membership), backing the
labeled property graph. It supports both postgres (production) and
sqlite (tests) via gorm.io/driver/postgres and gorm.io/driver/sqlite.

ANN probes over paragraphs, articles, and containment-edge embeddings
are served by an in-process flat vector index rebuilt from the
relational rows; this keeps the store's SQL surface portable across both
drivers without depending on a vector extension neither driver ships by
default.
*/
package graphstore
