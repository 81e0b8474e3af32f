/*
Package migration manages database schema migrations for the graph
repository's relational store, supporting PostgreSQL and SQLite, built on
golang-migrate.

# Overview

Migration SQL files for each dialect are embedded via embed.FS and applied
through the golang-migrate engine, giving versioned schema changes: apply
forward, roll back, step N migrations, jump to a version, or force a
version after a manual fix.

# Core types

  - Migrator: the migration interface — Up/Down/DownAll/Steps/Goto/Force/
    Version/Status/Info/Close.
  - DefaultMigrator: the Migrator implementation, wrapping a golang-migrate
    instance and its database connection.
  - Config: database type, connection URL, migrations table name, lock
    timeout.
  - DatabaseType: postgres or sqlite.
  - MigrationStatus / MigrationInfo: per-migration and aggregate status.
  - CLI: a terminal-facing wrapper around Migrator with formatted output.

# Capabilities

  - Dialect selection via DatabaseType, backed by the matching embedded
    SQL directory.
  - Factory functions: NewMigratorFromConfig / NewMigratorFromGraphStoreConfig /
    NewMigratorFromURL build a migrator from different configuration sources.
  - CLI: RunUp/RunDown/RunStatus/RunInfo print formatted output for
    operator tooling.
  - Helpers: ParseDatabaseType parses a type string, BuildDatabaseURL
    assembles a dialect-specific connection URL.
*/
package migration
