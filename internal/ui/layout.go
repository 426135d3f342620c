package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the list and detail
	// panes stack vertically.
	LayoutCompactWidth = 100

	// LayoutListShare is the percentage of the width given to the list pane.
	LayoutListShare = 45
)

// Timing constants.
const (
	// ToastTTL is how long a notification stays on screen.
	ToastTTL = 4 * time.Second

	// RequestTimeout bounds every network call started from the UI.
	RequestTimeout = 15 * time.Second

	// DefaultUIInterval is the default snapshot refresh interval.
	DefaultUIInterval = time.Second
)
