/*
Package database manages the GORM connection pool backing the graph
repository's relational store, with health checks, pool statistics, and
retrying transactions.

# Overview

PoolManager wraps GORM's *gorm.DB and the underlying database/sql pool,
owning connection lifecycle, idle reclamation, and max-connection limits.
A background health check pings on an interval and logs failures via zap.

# Core types

  - PoolManager: holds the GORM DB and underlying sql.DB; exposes
    DB()/Ping()/Stats()/Close().
  - PoolConfig: max idle/open connections, connection lifetime, idle
    timeout, health check interval.
  - PoolStats: a JSON-friendly view of pool statistics.
  - TransactionFunc: the transaction callback type.

# Capabilities

  - Pool tuning via MaxIdleConns/MaxOpenConns/ConnMaxLifetime.
  - Background PingContext health checks with connection-count logging.
  - WithTransaction for single-shot transactions; WithTransactionRetry
    retries with exponential backoff on deadlocks, serialization
    failures, and dropped connections.
  - GetStats returns structured pool runtime metrics.
*/
package database
