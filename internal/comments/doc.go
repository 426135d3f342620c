// Package comments keeps an append-only, ordered comment thread per post.
//
// A submit for a post blocks further submits for that post until it settles,
// so display order always follows the order the user pressed enter.
package comments
