// Package cache manages GPU-resident resources derived from CPU data:
// glyph coverage masks packed into shared atlas pages, gradient ramp
// lookup textures, and image textures.
//
// Entries are fingerprinted and reference counted. GetOrCreate calls
// with the same fingerprint return the same resource; concurrent first
// requests for a fingerprint run the producer once and share the
// result. Releasing the last reference does not free anything by
// itself: eviction is deferred to EvictUnused, which the renderer runs
// between frames.
//
// Handles carry texture coordinates by value. EvictUnused may repack
// fragmented atlas pages, which relocates surviving masks, so handles
// must not be kept across an EvictUnused call. The intended pattern is
// acquire at draw time, release at frame end.
package cache
