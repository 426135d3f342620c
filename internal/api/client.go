package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend defines the calls the client side of the marketplace makes.
// This interface is implemented by *Client and can be used for testing.
type Backend interface {
	FetchTreks(ctx context.Context) ([]Trek, error)
	FetchPosts(ctx context.Context) ([]Post, error)
	FetchWishlist(ctx context.Context, userID ID) (Wishlist, error)
	AddToWishlist(ctx context.Context, userID, trekID ID) error
	RemoveFromWishlist(ctx context.Context, userID, trekID ID) error
	FetchLikedPosts(ctx context.Context, userID ID) ([]ID, error)
	ToggleLike(ctx context.Context, postID ID) (LikeResult, error)
	AddComment(ctx context.Context, postID ID, content string) (Comment, error)
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// TokenSource yields the bearer token for the current session, or "" when
// nobody is logged in.
type TokenSource interface {
	Token() string
}

// ErrMalformed reports a response whose data did not have the expected shape.
var ErrMalformed = errors.New("malformed response")

// ServerError is returned for success:false envelopes and HTTP error statuses.
type ServerError struct {
	Path    string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, msg)
}

// Client talks to the marketplace REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    TokenSource
}

const (
	defaultAPIURL    = "http://127.0.0.1:8080/api"
	defaultUserAgent = "basecamp/0.1"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 64 * 1024
)

// NewClient builds a Client for apiURL. tokens may be nil for anonymous use.
func NewClient(apiURL string, tokens TokenSource) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		tokens:    tokens,
	}, nil
}

// FetchTreks lists every published trek.
func (c *Client) FetchTreks(ctx context.Context) ([]Trek, error) {
	var treks []Trek
	if err := c.call(ctx, http.MethodGet, nil, &treks, "treks"); err != nil {
		return nil, err
	}
	return treks, nil
}

// FetchPosts lists the community feed.
func (c *Client) FetchPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.call(ctx, http.MethodGet, nil, &posts, "posts"); err != nil {
		return nil, err
	}
	return posts, nil
}

// FetchWishlist returns the user's wishlist. A payload without wishlistItems
// yields an empty wishlist rather than an error.
func (c *Client) FetchWishlist(ctx context.Context, userID ID) (Wishlist, error) {
	if userID.IsZero() {
		return Wishlist{}, fmt.Errorf("user id required")
	}
	var wishlist Wishlist
	if err := c.call(ctx, http.MethodGet, nil, &wishlist, "wishlists", "tourists", userID.String()); err != nil {
		return Wishlist{}, err
	}
	return wishlist, nil
}

// AddToWishlist adds trekID to the user's wishlist.
func (c *Client) AddToWishlist(ctx context.Context, userID, trekID ID) error {
	if userID.IsZero() || trekID.IsZero() {
		return fmt.Errorf("user id and trek id required")
	}
	body := map[string]ID{"trekId": trekID}
	return c.call(ctx, http.MethodPost, body, nil, "wishlists", "tourists", userID.String(), "add")
}

// RemoveFromWishlist removes trekID from the user's wishlist.
func (c *Client) RemoveFromWishlist(ctx context.Context, userID, trekID ID) error {
	if userID.IsZero() || trekID.IsZero() {
		return fmt.Errorf("user id and trek id required")
	}
	return c.call(ctx, http.MethodDelete, nil, nil, "wishlists", "tourists", userID.String(), "remove", trekID.String())
}

// FetchLikedPosts returns the ids of posts the user has liked. Entries may be
// bare ids or objects carrying postId/id.
func (c *Client) FetchLikedPosts(ctx context.Context, userID ID) ([]ID, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("user id required")
	}
	var raw []json.RawMessage
	if err := c.call(ctx, http.MethodGet, nil, &raw, "posts", userID.String(), "likes"); err != nil {
		return nil, err
	}
	ids := make([]ID, 0, len(raw))
	for _, entry := range raw {
		if id, ok := decodeLikedEntry(entry); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ToggleLike flips the caller's like on postID.
func (c *Client) ToggleLike(ctx context.Context, postID ID) (LikeResult, error) {
	if postID.IsZero() {
		return LikeResult{}, fmt.Errorf("post id required")
	}
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodPost, nil, &raw, "posts", postID.String(), "likes"); err != nil {
		return LikeResult{}, err
	}
	return decodeLikeResult(raw), nil
}

// decodeLikeResult reads whatever the toggle returned as data. The server has
// already toggled, so an unrecognised shape is a success with nothing known.
func decodeLikeResult(raw json.RawMessage) LikeResult {
	var result LikeResult
	if err := json.Unmarshal(raw, &result); err == nil {
		return result
	}
	var liked bool
	if err := json.Unmarshal(raw, &liked); err == nil {
		return LikeResult{Liked: &liked}
	}
	return LikeResult{}
}

// AddComment posts content as a new comment on postID.
func (c *Client) AddComment(ctx context.Context, postID ID, content string) (Comment, error) {
	if postID.IsZero() {
		return Comment{}, fmt.Errorf("post id required")
	}
	body := map[string]string{"content": content}
	var comment Comment
	if err := c.call(ctx, http.MethodPost, body, &comment, "posts", postID.String(), "comments"); err != nil {
		return Comment{}, err
	}
	if comment.ID.IsZero() {
		return Comment{}, fmt.Errorf("add comment: %w", ErrMalformed)
	}
	if comment.PostID.IsZero() {
		comment.PostID = postID
	}
	return comment, nil
}

func (c *Client) call(ctx context.Context, method string, body, dest any, segments ...string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.JoinPath(segments...)
	path := "/" + strings.Join(segments, "/")

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := strings.TrimSpace(c.tokens.Token()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env Envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&env)

	if resp.StatusCode >= 400 {
		serr := &ServerError{Path: path, Status: resp.StatusCode}
		if decodeErr == nil {
			serr.Message = env.Message
		}
		return serr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return &ServerError{Path: path, Status: resp.StatusCode, Message: env.Message}
	}
	if dest == nil || len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode %s data: %w: %v", path, ErrMalformed, err)
	}
	return nil
}

func decodeLikedEntry(raw json.RawMessage) (ID, bool) {
	var id ID
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, !id.IsZero()
	}
	var obj struct {
		PostID ID `json:"postId"`
		ID     ID `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	if !obj.PostID.IsZero() {
		return obj.PostID, true
	}
	return obj.ID, !obj.ID.IsZero()
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
