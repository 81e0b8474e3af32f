// Package api exposes the admin and query HTTP surface: list domains,
// trigger a rebalance, initialize the partition, and run a synchronous
// query. The streaming variant of query lives in streamadapter.
package api
