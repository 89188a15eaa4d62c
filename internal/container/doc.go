// Package container provides the type-indexed multi-value stores behind a
// registry.
//
// Two implementations share the Container interface:
//
//   - NewMultimap: a list multimap guarded by a read/write lock. Reads return
//     copies; there are no key lifecycle events.
//   - NewLoadingCache: key lists are created lazily on the first Put and
//     removed by Invalidate. Creation fires KeyAdded, invalidation fires
//     KeyRemoved. Concurrent first access is collapsed with singleflight so a
//     key never has two lists.
//
// In a registry both containers are written only by the serializer
// goroutine; the locking here exists for the concurrent readers.
package container
