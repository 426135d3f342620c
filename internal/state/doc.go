// Package state provides thread-safe state management for the basecamp client.
//
// # Overview
//
// The Store shares the latest trek list and community feed between the
// background poller and the UI. It is the coordination point where refresh
// results meet rendering. Per-user interaction state (likes, wishlist) lives
// in package interact; this package only carries collections.
//
// # Architecture
//
//	Producer (Poller):                 Consumer (UI):
//	┌──────────────────────┐          ┌──────────────────┐
//	│ agg.Treks(force)     │          │                  │
//	│ agg.Community(force) │          │                  │
//	│      ↓               │          │                  │
//	│ store.Update()       │─────────→│ store.Snapshot() │
//	│      ↓               │ (mutex)  │      ↓           │
//	│  wait, repeat...     │          │  render cards    │
//	└──────────────────────┘          └──────────────────┘
//
// # Update Semantics
//
//	// Success: replace both collections
//	store.Update(treks, posts, nil)
//
//	// Error: keep old data, record error, bump ConsecutiveFailures
//	store.Update(nil, nil, err)
//
// The UI therefore always has the most recent successful data and can show
// an offline banner once IsOffline reports two failures in a row.
//
// # Copying
//
// Update and Snapshot clone the card slices, including each post's comment
// slice, so neither side can mutate what the other holds. The zero Store is
// ready to use.
package state
