// Package lru provides capacity-bounded repositories. Each repository keeps
// at most a fixed number of entries and drops the least recently used one
// when a new entry would exceed that capacity. Every Get, Seen and Put
// counts as a use.
//
// Eviction is a visibility loss: an evicted account disappears from
// snapshots, an evicted stored transaction can no longer be disputed and an
// evicted transaction id is no longer recognised as a duplicate.
package lru
