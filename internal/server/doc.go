/*
Package server manages the lifecycle of the admin HTTP server: the
list_domains / rebalance_now / initialize_partition endpoints and the
streaming adapter's WebSocket upgrade route.

# Overview

Manager wraps net/http.Server with non-blocking start, graceful shutdown,
and SIGINT/SIGTERM handling so the retrieval core can serve admin requests
while search traffic continues uninterrupted.

# Core types

  - Manager: holds the http.Server, its net.Listener, and an asynchronous
    error channel; exposes Start/StartTLS/Shutdown/WaitForShutdown.
  - Config: listen address, read/write/idle timeouts, max header size, and
    the graceful-shutdown timeout.

# Capabilities

  - Non-blocking start: Start/StartTLS run the server in a background
    goroutine.
  - Graceful shutdown: Shutdown drains in-flight requests within the
    configured timeout.
  - Signal handling: WaitForShutdown triggers shutdown on SIGINT/SIGTERM.
  - Error propagation: Errors() surfaces unexpected server failures.
  - TLS support via StartTLS and a certificate/key pair.
  - IsRunning/Addr report server status and listen address.
*/
package server
