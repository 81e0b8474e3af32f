// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package korean implements the pure text-normalization functions the domain
agent's exact-match step depends on: detecting article references of the
form 제N조[의M][제K항] inside free-form query text, and normalizing variant
forms so "제 36 조" and "제36조" decode identically.
*/
package korean
