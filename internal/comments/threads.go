package comments

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/interact"
	"github.com/five82/basecamp/internal/session"
)

// ErrEmptyContent rejects a comment that is blank after trimming.
var ErrEmptyContent = errors.New("comment is empty")

var stripHTML = bluemonday.StrictPolicy()

// Comment is a normalized, immutable post comment.
type Comment struct {
	ID              api.ID
	PostID          api.ID
	AuthorFirstName string
	AuthorLastName  string
	Content         string
	CreatedAt       time.Time
}

// Author returns the display name, or "Anonymous" when the server sent none.
func (c Comment) Author() string {
	name := strings.TrimSpace(c.AuthorFirstName + " " + c.AuthorLastName)
	if name == "" {
		return "Anonymous"
	}
	return name
}

// FromAPI normalizes a wire comment. Author names fall back to the nested
// user object and a missing post id is taken from postID.
func FromAPI(postID api.ID, raw api.Comment) Comment {
	c := Comment{
		ID:              raw.ID,
		PostID:          raw.PostID,
		AuthorFirstName: strings.TrimSpace(raw.AuthorFirstName),
		AuthorLastName:  strings.TrimSpace(raw.AuthorLastName),
		Content:         Sanitize(raw.Content),
		CreatedAt:       raw.ParsedCreatedAt(),
	}
	if c.PostID.IsZero() {
		c.PostID = postID
	}
	if c.AuthorFirstName == "" && c.AuthorLastName == "" && raw.User != nil {
		c.AuthorFirstName = strings.TrimSpace(raw.User.FirstName)
		c.AuthorLastName = strings.TrimSpace(raw.User.LastName)
	}
	return c
}

// Sanitize strips markup from server text so it renders as plain terminal text.
func Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripHTML.Sanitize(s)))
}

// API is the backend call used to create comments.
type API interface {
	AddComment(ctx context.Context, postID api.ID, content string) (api.Comment, error)
}

// Sessions gates submissions on a logged-in user.
type Sessions interface {
	Require() (session.Session, error)
}

// Threads holds the ordered comment list of every post seen so far.
// Submissions for one post are serialized; different posts are independent.
type Threads struct {
	api      API
	sessions Sessions

	mu      sync.RWMutex
	threads map[api.ID][]Comment
	pending map[api.ID]struct{}

	// version advances on every appended comment; appended records the
	// version of each post's latest append.
	version  uint64
	appended map[api.ID]uint64
}

// NewThreads builds an empty thread registry.
func NewThreads(sessions Sessions, client API) *Threads {
	return &Threads{
		api:      client,
		sessions: sessions,
		threads:  map[api.ID][]Comment{},
		pending:  map[api.ID]struct{}{},
		appended: map[api.ID]uint64{},
	}
}

// Version returns the append counter. Read it before fetching posts and pass
// it to Seed.
func (t *Threads) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Submit posts content to postID and appends the server's comment on success.
// Blank content, a missing session or a submit already in flight for the same
// post are rejected before any request is made.
func (t *Threads) Submit(ctx context.Context, postID api.ID, content string) (Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, ErrEmptyContent
	}
	if postID.IsZero() {
		return Comment{}, interact.ErrMissingID
	}
	if _, err := t.sessions.Require(); err != nil {
		return Comment{}, err
	}

	t.mu.Lock()
	if _, busy := t.pending[postID]; busy {
		t.mu.Unlock()
		return Comment{}, interact.ErrAlreadyInFlight
	}
	t.pending[postID] = struct{}{}
	t.mu.Unlock()

	raw, err := t.api.AddComment(ctx, postID, content)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, postID)
	if err != nil {
		log.Printf("comment on post %s failed: %v", postID, err)
		return Comment{}, fmt.Errorf("comment on post %s: %w", postID, err)
	}
	c := FromAPI(postID, raw)
	t.threads[postID] = append(t.threads[postID], c)
	t.version++
	t.appended[postID] = t.version
	return c, nil
}

// Seed replaces the thread of postID with comments from a post fetched after
// Version returned since. Posts with a submit in flight, or with a comment
// appended after since, keep their current thread.
func (t *Threads) Seed(postID api.ID, raw []api.Comment, since uint64) {
	if postID.IsZero() {
		return
	}
	list := make([]Comment, 0, len(raw))
	for _, r := range raw {
		list = append(list, FromAPI(postID, r))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.pending[postID]; busy {
		return
	}
	if t.appended[postID] > since {
		return
	}
	t.threads[postID] = list
}

// Thread returns a copy of the comments of postID in display order.
func (t *Threads) Thread(postID api.ID) []Comment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Comment(nil), t.threads[postID]...)
}

// IsPending reports whether a submit for postID is in flight.
func (t *Threads) IsPending(postID api.ID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.pending[postID]
	return ok
}
