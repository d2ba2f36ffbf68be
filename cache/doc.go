// Package cache memoizes expensive endpoint results.
//
// Cache wraps a ttlcache store with lazy expiry, an optional LRU capacity
// bound and singleflight de-duplication of concurrent misses. TextKey and
// PredictionKey derive deterministic keys from request payloads.
package cache
