// Package client is the resilient HTTP layer the care service API is built on.
//
// A [Client] composes the TTL cache, the retry executor and the observability
// hooks around plain net/http:
//
//	lookup cache -> attempt (retrying) -> write back -> decode -> return
//
// Reads go through [Client.Get], which serves live cache entries, collapses
// concurrent identical fetches, and retries transient statuses (408, 429 and
// 5xx gateways). Mutations go through [Client.Send], which retries only
// timeouts and unreachable networks and then invalidates the cache keys it
// was told about. [Client.Do] is the raw status-aware call.
//
// Every attempt, retries included, carries a fresh X-Request-ID and is
// reported to the configured [observability.HTTPHooks]; wire
// [observability.MonitorHooks] to feed a reliability monitor.
//
// Transport failures are classified where they happen: deadline and
// net.Error timeouts become TIMEOUT, anything else without a response
// becomes NETWORK_UNREACHABLE. Caller cancellation is returned as is.
package client
