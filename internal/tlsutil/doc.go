// Package tlsutil provides centralized TLS configuration for the HTTP
// clients, servers, and Redis connections used across the retrieval core
// (TLS 1.2+, AEAD-only cipher suites).
package tlsutil
