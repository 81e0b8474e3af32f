// Package auditlog persists domain-manager decisions that call for
// operator review: admissions below the similarity threshold, aborted
// splits, merges with no viable target. Entries are append-only documents
// in MongoDB so operators can query rebalance history; a write failure is
// logged and swallowed, never blocking the decision itself.
package auditlog
