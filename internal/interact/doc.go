// Package interact holds the current user's liked posts and wishlisted treks.
//
// Every screen reads the same Store through Snapshot, so a like made on the
// community feed shows up on any other card for the same post. Toggles are
// optimistic: Begin flips the flag immediately and reserves the (kind, id)
// slot; Settle performs the request and either commits the server's answer or
// restores the previous value. A second toggle on a pending slot is rejected
// with ErrAlreadyInFlight and never reaches the network.
package interact
