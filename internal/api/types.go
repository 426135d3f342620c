package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID identifies a trek, post, comment or user. The backend sends ids as either
// JSON numbers or strings; both decode to the same ID.
type ID string

// String returns the id text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is missing.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Envelope is the wrapper returned by every backend call.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// User is the author/guide sub-object embedded in several payloads.
type User struct {
	ID        ID     `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// FullName joins first and last name, trimming blanks.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// Guide mirrors the guide object attached to a trek.
type Guide struct {
	ID   ID    `json:"id"`
	User *User `json:"user"`
}

// TrekImage is one entry of a trek gallery.
type TrekImage struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"isPrimary"`
}

// Trek mirrors a trek listing as served by /treks and inside wishlist items.
type Trek struct {
	ID          ID          `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Difficulty  string      `json:"difficulty"`
	Price       float64     `json:"price"`
	Duration    string      `json:"duration"`
	Rating      float64     `json:"rating"`
	Images      []TrekImage `json:"images"`
	Highlights  []string    `json:"highlights"`
	Services    []string    `json:"services"`
	Guide       *Guide      `json:"guide"`
}

// Comment mirrors a post comment. Author names arrive either flat or nested
// under user depending on the endpoint.
type Comment struct {
	ID              ID     `json:"id"`
	PostID          ID     `json:"postId"`
	Content         string `json:"content"`
	CreatedAt       string `json:"createdAt"`
	AuthorFirstName string `json:"authorFirstName"`
	AuthorLastName  string `json:"authorLastName"`
	User            *User  `json:"user"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (c Comment) ParsedCreatedAt() time.Time {
	return parseTime(c.CreatedAt)
}

// Post mirrors a community feed post.
type Post struct {
	ID           ID        `json:"id"`
	Content      string    `json:"content"`
	Images       []string  `json:"images"`
	LikeCount    int       `json:"likeCount"`
	CreatedAt    string    `json:"createdAt"`
	User         *User     `json:"user"`
	CommentsList []Comment `json:"commentsList"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (p Post) ParsedCreatedAt() time.Time {
	return parseTime(p.CreatedAt)
}

// WishlistItem wraps a trek inside a wishlist payload.
type WishlistItem struct {
	Trek *Trek `json:"trek"`
}

// Wishlist mirrors GET /wishlists/tourists/{userId}. Items is nil when the
// payload lacked wishlistItems entirely.
type Wishlist struct {
	Items []WishlistItem `json:"wishlistItems"`
}

// TrekIDs returns the ids of every trek in the wishlist, skipping malformed items.
func (w Wishlist) TrekIDs() []ID {
	ids := make([]ID, 0, len(w.Items))
	for _, item := range w.Items {
		if item.Trek == nil || item.Trek.ID.IsZero() {
			continue
		}
		ids = append(ids, item.Trek.ID)
	}
	return ids
}

// LikeResult is the data of a like toggle. Both fields are optional; nil
// means the server did not say.
type LikeResult struct {
	Liked     *bool `json:"liked"`
	LikeCount *int  `json:"likeCount"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
