package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "127.0.0.1:8080" || u.Path != "/api" {
		t.Fatalf("default url = %q, want http://127.0.0.1:8080/api", u.String())
	}

	u, err = parseBaseURL("example.com:1234/api/v1/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "/api/v1" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func TestIDUnmarshalAcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"a": 42, "b": " abc ", "c": null}`), &payload); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if payload.A != "42" || payload.B != "abc" || payload.C != "" {
		t.Fatalf("ids = %#v, want 42/abc/empty", payload)
	}
	var bad ID
	if err := json.Unmarshal([]byte(`{"x":1}`), &bad); err == nil {
		t.Fatalf("Unmarshal object into ID returned nil error")
	}
}

type recordedRequest struct {
	method    string
	path      string
	body      string
	auth      string
	requestID string
}

func newRecordingServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{
			method:    r.Method,
			path:      r.URL.Path,
			body:      string(body),
			auth:      r.Header.Get("Authorization"),
			requestID: r.Header.Get("X-Request-ID"),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), seen...)
	}
}

func TestClient_CallsEndpointsWithEnvelopes(t *testing.T) {
	t.Parallel()

	server, requests := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/treks":
			_, _ = w.Write([]byte(`{"success":true,"data":[{"id":42,"title":"Annapurna","duration":"P12D"}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/posts":
			_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"5","content":"hi","likeCount":3,"commentsList":[{"id":1,"content":"c"}]}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/wishlists/tourists/7":
			_, _ = w.Write([]byte(`{"success":true,"data":{"wishlistItems":[{"trek":{"id":42}},{"trek":null}]}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/wishlists/tourists/7/add":
			_, _ = w.Write([]byte(`{"success":true}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/wishlists/tourists/7/remove/42":
			_, _ = w.Write([]byte(`{"success":true}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/posts/7/likes":
			_, _ = w.Write([]byte(`{"success":true,"data":[5,"6",{"postId":8},{"id":9},{"bogus":true}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/posts/5/likes":
			_, _ = w.Write([]byte(`{"success":true,"data":{"liked":true,"likeCount":4}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/posts/5/comments":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":77,"content":"nice","createdAt":"2025-01-02T03:04:05Z","user":{"firstName":"Ada","lastName":"L"}}}`))
		default:
			http.NotFound(w, r)
		}
	})

	c, err := NewClient(server.URL+"/api", staticToken("tok"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	treks, err := c.FetchTreks(ctx)
	if err != nil {
		t.Fatalf("FetchTreks returned error: %v", err)
	}
	if len(treks) != 1 || treks[0].ID != "42" || treks[0].Duration != "P12D" {
		t.Fatalf("FetchTreks = %#v, want trek 42", treks)
	}

	posts, err := c.FetchPosts(ctx)
	if err != nil {
		t.Fatalf("FetchPosts returned error: %v", err)
	}
	if len(posts) != 1 || posts[0].LikeCount != 3 || len(posts[0].CommentsList) != 1 {
		t.Fatalf("FetchPosts = %#v, want one post with 3 likes and 1 comment", posts)
	}

	wishlist, err := c.FetchWishlist(ctx, "7")
	if err != nil {
		t.Fatalf("FetchWishlist returned error: %v", err)
	}
	if ids := wishlist.TrekIDs(); len(ids) != 1 || ids[0] != "42" {
		t.Fatalf("wishlist ids = %v, want [42]", ids)
	}

	if err := c.AddToWishlist(ctx, "7", "42"); err != nil {
		t.Fatalf("AddToWishlist returned error: %v", err)
	}
	if err := c.RemoveFromWishlist(ctx, "7", "42"); err != nil {
		t.Fatalf("RemoveFromWishlist returned error: %v", err)
	}

	liked, err := c.FetchLikedPosts(ctx, "7")
	if err != nil {
		t.Fatalf("FetchLikedPosts returned error: %v", err)
	}
	if strings.Join(idStrings(liked), ",") != "5,6,8,9" {
		t.Fatalf("FetchLikedPosts = %v, want [5 6 8 9]", liked)
	}

	result, err := c.ToggleLike(ctx, "5")
	if err != nil {
		t.Fatalf("ToggleLike returned error: %v", err)
	}
	if result.Liked == nil || !*result.Liked || result.LikeCount == nil || *result.LikeCount != 4 {
		t.Fatalf("ToggleLike = %#v, want liked=true count=4", result)
	}

	comment, err := c.AddComment(ctx, "5", "nice")
	if err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}
	if comment.ID != "77" || comment.PostID != "5" || comment.User.FullName() != "Ada L" {
		t.Fatalf("AddComment = %#v, want id 77 on post 5 by Ada L", comment)
	}
	if comment.ParsedCreatedAt().IsZero() {
		t.Fatalf("comment timestamp did not parse")
	}

	seen := requests()
	var addBody, commentBody string
	for _, req := range seen {
		if req.auth != "Bearer tok" {
			t.Fatalf("%s %s Authorization = %q, want Bearer tok", req.method, req.path, req.auth)
		}
		if req.requestID == "" {
			t.Fatalf("%s %s missing X-Request-ID", req.method, req.path)
		}
		switch req.path {
		case "/api/wishlists/tourists/7/add":
			addBody = req.body
		case "/api/posts/5/comments":
			commentBody = req.body
		}
	}
	if addBody != `{"trekId":"42"}` {
		t.Fatalf("add body = %q, want trekId", addBody)
	}
	if commentBody != `{"content":"nice"}` {
		t.Fatalf("comment body = %q, want content", commentBody)
	}
}

func TestClient_SuccessFalseAndHTTPErrorsAreServerErrors(t *testing.T) {
	t.Parallel()

	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/posts/5/likes":
			_, _ = w.Write([]byte(`{"success":false,"message":"post locked"}`))
		case "/posts":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"success":false,"message":"db down"}`))
		case "/treks":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		case "/wishlists/tourists/7":
			_, _ = w.Write([]byte(`{not-json`))
		default:
			http.NotFound(w, r)
		}
	})

	c, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	_, err = c.ToggleLike(ctx, "5")
	var serr *ServerError
	if !errors.As(err, &serr) || serr.Message != "post locked" {
		t.Fatalf("ToggleLike error = %v, want ServerError post locked", err)
	}

	_, err = c.FetchPosts(ctx)
	if !errors.As(err, &serr) || serr.Status != http.StatusInternalServerError || serr.Message != "db down" {
		t.Fatalf("FetchPosts error = %v, want 500 db down", err)
	}

	_, err = c.FetchTreks(ctx)
	if !errors.As(err, &serr) || serr.Status != http.StatusBadGateway {
		t.Fatalf("FetchTreks error = %v, want 502", err)
	}

	_, err = c.FetchWishlist(ctx, "7")
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchWishlist error = %v, want decode response error", err)
	}
}

func TestClient_MissingWishlistItemsDegradesToEmpty(t *testing.T) {
	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	})
	c, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	wishlist, err := c.FetchWishlist(context.Background(), "7")
	if err != nil {
		t.Fatalf("FetchWishlist returned error: %v", err)
	}
	if len(wishlist.TrekIDs()) != 0 {
		t.Fatalf("wishlist = %#v, want empty", wishlist)
	}
}

func TestClient_WrongDataShapeIsMalformed(t *testing.T) {
	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":"oops"}`))
	})
	c, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchTreks(context.Background()); !errors.Is(err, ErrMalformed) {
		t.Fatalf("FetchTreks error = %v, want ErrMalformed", err)
	}
}

func TestClient_ToggleLikeAcceptsAnyDataShape(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLiked *bool
		wantCount *int
	}{
		{name: "object", body: `{"success":true,"data":{"liked":false,"likeCount":2}}`, wantLiked: boolPtr(false), wantCount: intPtr(2)},
		{name: "bare bool", body: `{"success":true,"data":true}`, wantLiked: boolPtr(true)},
		{name: "message string", body: `{"success":true,"data":"Post liked"}`},
		{name: "number", body: `{"success":true,"data":12}`},
		{name: "null", body: `{"success":true,"data":null}`},
		{name: "no data", body: `{"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			c, err := NewClient(server.URL, staticToken("tok"))
			if err != nil {
				t.Fatalf("NewClient returned error: %v", err)
			}
			result, err := c.ToggleLike(context.Background(), "5")
			if err != nil {
				t.Fatalf("ToggleLike returned error: %v", err)
			}
			if !equalPtr(result.Liked, tt.wantLiked) {
				t.Fatalf("Liked = %v, want %v", deref(result.Liked), deref(tt.wantLiked))
			}
			if !equalPtr(result.LikeCount, tt.wantCount) {
				t.Fatalf("LikeCount = %v, want %v", deref(result.LikeCount), deref(tt.wantCount))
			}
		})
	}
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func TestClient_RequiresIDsBeforeCalling(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	if err := c.AddToWishlist(ctx, "", "1"); err == nil {
		t.Fatalf("AddToWishlist without user returned nil error")
	}
	if _, err := c.ToggleLike(ctx, " "); err == nil {
		t.Fatalf("ToggleLike without post returned nil error")
	}
	if _, err := c.FetchLikedPosts(ctx, ""); err == nil {
		t.Fatalf("FetchLikedPosts without user returned nil error")
	}
}

func idStrings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
