// Package feed turns backend collections into the card shapes the screens
// render.
//
// Normalization is pure: missing optional fields become empty slices or
// placeholders instead of errors. The Aggregator adds a short-lived cache per
// collection and, when a screen mounts, reconciles membership with one listing
// request alongside the collection fetch.
package feed
