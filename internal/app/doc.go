// Package app provides the orchestration layer for the basecamp client.
//
// # Overview
//
// This package wires together configuration, the session holder, the API
// client, the interaction store, comment threads, the feed aggregator, the
// background poller and the UI. It is the composition root where all
// dependencies are initialized and connected.
//
// # Startup
//
//  1. Load config from ~/.config/basecamp/config.toml, ./.env and the environment
//  2. Load user prefs (theme, start screen)
//  3. Point the standard logger at the log file with tea.LogToFile
//  4. Restore the session from the -token flag, BASECAMP_TOKEN or the token file
//  5. Build the API client and the stores on top of it (Wire)
//  6. Launch the background poller
//  7. Start the TUI and block until the user exits or the context cancels
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()      TOML + .env + env
//	       ├─────> Wire()             holder, api.Client, interact.Store,
//	       │                          comments.Threads, feed.Aggregator
//	       ├─────> StartPoller()      Launch background refresh
//	       └─────> ui.Run()           Start TUI (blocks)
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ StartPoller() goroutine                 │
//	│  ├─> feed.Treks(force)                  │
//	│  ├─> feed.Community(force)              │
//	│  │     └─> like counts, comment threads │
//	│  └─> store.Update()                     │
//	│      └─> UI reads store.Snapshot()      │
//	└─────────────────────────────────────────┘
//
// # Polling Behavior
//
// The poller refreshes the trek list and community feed every poll_seconds
// (default 30). Each consecutive failure doubles the wait, capped at five
// minutes. Failures are logged and kept in the store so the header can show
// the client as offline; the last good data stays on screen.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Invalid configuration file
//   - Unusable api_url
//   - Log file cannot be created
//
// Recoverable errors (logged):
//   - A saved token that is malformed or expired; the client starts anonymous
//   - Refresh failures during polling
package app
