// Package pkg provides the libraries behind careflow, a resilient request
// layer for the care coordination API.
//
// # Overview
//
// Calls to the care service pass through three cooperating pieces:
//
//  1. [cache] - TTL store for GET responses, with pattern invalidation
//  2. [retry] - exponential backoff for transient failures, in a generic
//     mode and a status-aware mode
//  3. [monitor] - counters, bounded histories and a health verdict
//
// [client] composes them over net/http, [careapi] exposes the service's
// resources as typed calls, and [observability] carries attempt and cache
// events to the monitor, the logger and Prometheus.
//
// # Data flow
//
//	careapi call
//	     ↓
//	client.Get ── cache hit ──→ decoded value
//	     ↓ miss
//	retry.WithStatusCodeRetry
//	     ↓ each attempt
//	observability hooks ──→ monitor.RecordCall / RecordError
//	     ↓ 2xx
//	cache.SetTTL ──→ decoded value
//
// # Supporting packages
//
//   - [errors] - error codes shared by every package, plus HTTP status errors
//   - [buffer] - fixed-capacity ring used by the monitor's histories
//   - [buildinfo] - version information stamped at build time
//
// [cache]: github.com/matzehuels/careflow/pkg/cache
// [retry]: github.com/matzehuels/careflow/pkg/retry
// [monitor]: github.com/matzehuels/careflow/pkg/monitor
// [client]: github.com/matzehuels/careflow/pkg/client
// [careapi]: github.com/matzehuels/careflow/pkg/careapi
// [observability]: github.com/matzehuels/careflow/pkg/observability
// [errors]: github.com/matzehuels/careflow/pkg/errors
// [buffer]: github.com/matzehuels/careflow/pkg/buffer
// [buildinfo]: github.com/matzehuels/careflow/pkg/buildinfo
package pkg
