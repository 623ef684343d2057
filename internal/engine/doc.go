// Package engine applies ledger rules over concrete storage.
//
// Three engines share the same rules:
//
//   - unbounded: every account, stored deposit and processed id is kept.
//   - bounded: each of the three stores is an LRU cache with its own
//     capacity; evictions change observable behaviour (see package lru).
//   - concurrent: one bounded engine behind a single mutex, fed by lanes
//     chosen by client id so a client's records keep their source order.
package engine
