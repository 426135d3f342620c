package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/comments"
	"github.com/five82/basecamp/internal/interact"
	"github.com/five82/basecamp/internal/session"
)

type fakeSessions struct{ sess session.Session }

func (f fakeSessions) Require() (session.Session, error) {
	if err := session.RequireAuth(f.sess); err != nil {
		return session.Session{}, err
	}
	return f.sess, nil
}

var user7 = fakeSessions{sess: session.Session{UserID: "7", IsAuthenticated: true}}

type fakeBackend struct {
	treks    []api.Trek
	posts    []api.Post
	wishlist api.Wishlist
	liked    []api.ID

	treksErr    error
	wishlistErr error
	likedErr    error

	trekCalls     atomic.Int32
	postCalls     atomic.Int32
	wishlistCalls atomic.Int32
	likedCalls    atomic.Int32
}

func (f *fakeBackend) FetchTreks(context.Context) ([]api.Trek, error) {
	f.trekCalls.Add(1)
	return f.treks, f.treksErr
}

func (f *fakeBackend) FetchPosts(context.Context) ([]api.Post, error) {
	f.postCalls.Add(1)
	return f.posts, nil
}

func (f *fakeBackend) FetchWishlist(context.Context, api.ID) (api.Wishlist, error) {
	f.wishlistCalls.Add(1)
	return f.wishlist, f.wishlistErr
}

func (f *fakeBackend) AddToWishlist(context.Context, api.ID, api.ID) error      { return nil }
func (f *fakeBackend) RemoveFromWishlist(context.Context, api.ID, api.ID) error { return nil }

func (f *fakeBackend) FetchLikedPosts(context.Context, api.ID) ([]api.ID, error) {
	f.likedCalls.Add(1)
	return f.liked, f.likedErr
}

func (f *fakeBackend) ToggleLike(context.Context, api.ID) (api.LikeResult, error) {
	return api.LikeResult{}, nil
}

func (f *fakeBackend) AddComment(_ context.Context, postID api.ID, content string) (api.Comment, error) {
	return api.Comment{ID: "new", PostID: postID, Content: content}, nil
}

type fixture struct {
	backend *fakeBackend
	store   *interact.Store
	threads *comments.Threads
	agg     *Aggregator
	clock   time.Time
}

func newFixture(sessions fakeSessions, backend *fakeBackend) *fixture {
	f := &fixture{backend: backend, clock: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	f.store = interact.NewStore(sessions, backend, backend)
	f.threads = comments.NewThreads(sessions, backend)
	f.agg = NewAggregator(backend, sessions, f.store, f.threads, time.Minute)
	f.agg.now = func() time.Time { return f.clock }
	return f
}

func TestTreks_CachesUntilTTL(t *testing.T) {
	backend := &fakeBackend{treks: []api.Trek{{ID: "1"}, {ID: "2"}}}
	f := newFixture(user7, backend)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cards, err := f.agg.Treks(ctx, false)
		if err != nil {
			t.Fatalf("Treks returned error: %v", err)
		}
		if len(cards) != 2 {
			t.Fatalf("len(cards) = %d, want 2", len(cards))
		}
	}
	if got := backend.trekCalls.Load(); got != 1 {
		t.Fatalf("fetches = %d, want 1", got)
	}

	if _, err := f.agg.Treks(ctx, true); err != nil {
		t.Fatalf("forced Treks returned error: %v", err)
	}
	if got := backend.trekCalls.Load(); got != 2 {
		t.Fatalf("fetches after force = %d, want 2", got)
	}

	f.clock = f.clock.Add(2 * time.Minute)
	if _, err := f.agg.Treks(ctx, false); err != nil {
		t.Fatalf("Treks returned error: %v", err)
	}
	if got := backend.trekCalls.Load(); got != 3 {
		t.Fatalf("fetches after expiry = %d, want 3", got)
	}
}

func TestTreks_ReturnsIndependentCopy(t *testing.T) {
	f := newFixture(user7, &fakeBackend{treks: []api.Trek{{ID: "1", Title: "A"}}})
	cards, _ := f.agg.Treks(context.Background(), false)
	cards[0].Title = "changed"
	again, _ := f.agg.Treks(context.Background(), false)
	if again[0].Title != "A" {
		t.Fatalf("cache was mutated through a returned slice")
	}
}

func TestCommunity_SeedsCountsAndThreads(t *testing.T) {
	backend := &fakeBackend{posts: []api.Post{{
		ID:           "5",
		LikeCount:    3,
		CommentsList: []api.Comment{{ID: "c1", Content: "first"}},
	}}}
	f := newFixture(user7, backend)

	cards, err := f.agg.Community(context.Background(), false)
	if err != nil {
		t.Fatalf("Community returned error: %v", err)
	}
	if len(cards) != 1 || cards[0].LikeCount != 3 {
		t.Fatalf("cards = %+v", cards)
	}
	if got := f.store.Snapshot().LikeCount("5", -1); got != 3 {
		t.Fatalf("store like count = %d, want 3", got)
	}
	thread := f.threads.Thread("5")
	if len(thread) != 1 || thread[0].ID != "c1" {
		t.Fatalf("thread = %+v, want [c1]", thread)
	}
}

func TestWishlist_ReconcilesFromSameResponse(t *testing.T) {
	backend := &fakeBackend{wishlist: api.Wishlist{Items: []api.WishlistItem{
		{Trek: &api.Trek{ID: "42"}},
		{Trek: &api.Trek{ID: "43"}},
	}}}
	f := newFixture(user7, backend)

	cards, err := f.agg.MountWishlist(context.Background(), false)
	if err != nil {
		t.Fatalf("MountWishlist returned error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("len(cards) = %d, want 2", len(cards))
	}
	snap := f.store.Snapshot()
	if !snap.IsWishlisted("42") || !snap.IsWishlisted("43") {
		t.Fatalf("membership = %v, want {42 43}", snap.Wishlisted.Sorted())
	}
	if got := backend.wishlistCalls.Load(); got != 1 {
		t.Fatalf("wishlist fetches = %d, want 1", got)
	}
}

func TestWishlist_RequiresSession(t *testing.T) {
	backend := &fakeBackend{}
	f := newFixture(fakeSessions{}, backend)
	if _, err := f.agg.Wishlist(context.Background(), false); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("Wishlist = %v, want ErrNotAuthenticated", err)
	}
	if got := backend.wishlistCalls.Load(); got != 0 {
		t.Fatalf("wishlist fetches = %d, want 0", got)
	}
}

func TestMountTreks_ReconcileFailureStillRenders(t *testing.T) {
	backend := &fakeBackend{
		treks:       []api.Trek{{ID: "42"}},
		wishlistErr: errors.New("timeout"),
	}
	f := newFixture(user7, backend)
	f.store.ApplyMembership(interact.KindWishlist, []api.ID{"42"}, f.store.Version())

	cards, err := f.agg.MountTreks(context.Background(), false)
	if err != nil {
		t.Fatalf("MountTreks returned error: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("len(cards) = %d, want 1", len(cards))
	}
	if f.store.Snapshot().IsWishlisted("42") {
		t.Fatalf("failed reconcile left a stale true")
	}
}

func TestMountTreks_CollectionFailure(t *testing.T) {
	backend := &fakeBackend{treksErr: errors.New("502")}
	f := newFixture(user7, backend)
	if _, err := f.agg.MountTreks(context.Background(), false); err == nil {
		t.Fatalf("MountTreks returned nil error")
	}
}

func TestMountCommunity_OneLikedListingPerMount(t *testing.T) {
	backend := &fakeBackend{
		posts: []api.Post{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		liked: []api.ID{"2"},
	}
	f := newFixture(user7, backend)

	if _, err := f.agg.MountCommunity(context.Background(), false); err != nil {
		t.Fatalf("MountCommunity returned error: %v", err)
	}
	if got := backend.likedCalls.Load(); got != 1 {
		t.Fatalf("liked listing fetches = %d, want 1", got)
	}
	snap := f.store.Snapshot()
	if snap.IsLiked("1") || !snap.IsLiked("2") || snap.IsLiked("3") {
		t.Fatalf("liked = %v, want {2}", snap.Liked.Sorted())
	}
}

func TestDropFromWishlist_PatchesCache(t *testing.T) {
	backend := &fakeBackend{wishlist: api.Wishlist{Items: []api.WishlistItem{
		{Trek: &api.Trek{ID: "42"}},
		{Trek: &api.Trek{ID: "43"}},
	}}}
	f := newFixture(user7, backend)
	ctx := context.Background()
	if _, err := f.agg.Wishlist(ctx, false); err != nil {
		t.Fatalf("Wishlist returned error: %v", err)
	}

	f.agg.DropFromWishlist("42")
	cards, err := f.agg.Wishlist(ctx, false)
	if err != nil {
		t.Fatalf("Wishlist returned error: %v", err)
	}
	if len(cards) != 1 || cards[0].ID != "43" {
		t.Fatalf("cards = %+v, want only 43", cards)
	}
	if got := backend.wishlistCalls.Load(); got != 1 {
		t.Fatalf("wishlist fetches = %d, want 1", got)
	}
}

func TestAppendComment_PatchesCache(t *testing.T) {
	backend := &fakeBackend{posts: []api.Post{{ID: "5"}, {ID: "6"}}}
	f := newFixture(user7, backend)
	ctx := context.Background()
	if _, err := f.agg.Community(ctx, false); err != nil {
		t.Fatalf("Community returned error: %v", err)
	}

	f.agg.AppendComment(comments.Comment{ID: "c9", PostID: "6", Content: "hi"})
	cards, _ := f.agg.Community(ctx, false)
	if len(cards[0].Comments) != 0 || len(cards[1].Comments) != 1 {
		t.Fatalf("comments = %d/%d, want 0/1", len(cards[0].Comments), len(cards[1].Comments))
	}
}

func TestInvalidate(t *testing.T) {
	backend := &fakeBackend{treks: []api.Trek{{ID: "1"}}, wishlist: api.Wishlist{}}
	f := newFixture(user7, backend)
	ctx := context.Background()
	_, _ = f.agg.Treks(ctx, false)
	_, _ = f.agg.Wishlist(ctx, false)

	f.agg.Invalidate(CollectionWishlist)
	_, _ = f.agg.Treks(ctx, false)
	_, _ = f.agg.Wishlist(ctx, false)
	if backend.trekCalls.Load() != 1 || backend.wishlistCalls.Load() != 2 {
		t.Fatalf("fetches treks=%d wishlist=%d, want 1 and 2", backend.trekCalls.Load(), backend.wishlistCalls.Load())
	}

	f.agg.Invalidate()
	_, _ = f.agg.Treks(ctx, false)
	if got := backend.trekCalls.Load(); got != 2 {
		t.Fatalf("trek fetches after purge = %d, want 2", got)
	}
}
