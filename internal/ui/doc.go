// Package ui provides the Bubble Tea terminal interface for basecamp.
//
// # Screens
//
// Three screens share one interaction store:
//
//   - Treks: the trek list with wishlist stars
//   - Community: the guide feed with likes and comment threads
//   - Wishlist: the logged-in user's saved treks
//
// Switching to a screen mounts it: the screen's generation counter is bumped
// and a command loads the collection and reconciles membership in parallel.
// A load result that arrives after the user has moved on, or after a newer
// mount of the same screen, is dropped. The interaction store is updated
// regardless, since it outlives every screen.
//
// # Toggles
//
// Pressing l or w calls interact.Store.Begin inside Update, so the flipped
// heart or star shows on the very next frame. The network call runs in a
// tea.Cmd via Mutation.Settle and reports back as settledMsg. Failures
// surface as a toast; the store has already rolled back.
//
// # Comments
//
// Each post keeps a comments.Composer for its draft. The draft survives closing
// the dialog and failed submits; it is cleared only when the server accepts
// the comment.
//
// # Key Bindings
//
//   - 1/2/3, Tab, Shift+Tab: switch screens
//   - j/k, g/G: move selection; ctrl+d/ctrl+u: scroll detail
//   - l: like post, w: save trek, c: comment
//   - L/X: log in / log out
//   - r: reload screen, T: cycle theme, ?: help, q: quit
package ui
