// Package cache provides an in-memory response cache with per-entry TTLs.
//
// # Overview
//
// [Store] maps a request fingerprint to a previously computed result. Every
// entry carries its own time-to-live; once an entry is older than its TTL it
// is never returned again and is removed on the next read.
//
//	store := cache.New[[]byte](cache.WithDefaultTTL(5 * time.Minute))
//	key := cache.RequestKey("GET", "/caregivers", url.Values{"region": {"north"}})
//	if body, ok := store.Get(key); ok {
//	    return body
//	}
//	body := fetch()
//	store.SetTTL(key, body, 2*time.Minute)
//
// # Expiry
//
// Expiry is enforced twice. Reads check the entry age and evict lazily, so a
// caller never observes a stale value even if background work is delayed.
// Writes also schedule a self-expiry callback that reclaims entries nobody
// reads again. The callback remembers which write scheduled it and leaves
// the key alone if it has since been overwritten.
//
// # Invalidation
//
// [Store.DeleteByPattern] removes every key matching a regular expression,
// which suits coarse invalidation after a mutation:
//
//	store.DeleteByPattern(regexp.MustCompile(`^GET /patients/42(/|\?|$)`))
//
// Keys are caller-defined. [RequestKey] builds the conventional
// method+path+query form but the store itself never rewrites keys.
//
// All methods are safe for concurrent use.
package cache
