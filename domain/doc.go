// Package domain owns the partition of embedded paragraphs into named
// domains. The Manager is the sole writer of domain and membership state:
// it performs initial clustering, online admission, splits, merges, and
// neighbor-graph maintenance, persisting every change through the graph
// repository in a single transaction and publishing a fresh immutable
// Snapshot afterwards. Readers (domain agents, the coordinator) pin one
// Snapshot for the duration of a search and never observe a partition
// mid-update.
package domain
