package feed

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/comments"
	"github.com/five82/basecamp/internal/interact"
)

// Collection names one cached server listing.
type Collection string

const (
	CollectionTreks    Collection = "treks"
	CollectionPosts    Collection = "posts"
	CollectionWishlist Collection = "wishlist"
)

// DefaultTTL is used when NewAggregator is given a non-positive ttl.
const DefaultTTL = 30 * time.Second

const cacheSize = 64

// Backend is the subset of the API used to load collections.
type Backend interface {
	FetchTreks(ctx context.Context) ([]api.Trek, error)
	FetchPosts(ctx context.Context) ([]api.Post, error)
	FetchWishlist(ctx context.Context, userID api.ID) (api.Wishlist, error)
}

type cacheItem struct {
	data      any
	expiresAt time.Time
}

// Aggregator loads, normalizes and caches the collections behind each screen.
// It also feeds what it fetches into the shared interaction and comment
// stores so cards render consistent state.
type Aggregator struct {
	api      Backend
	sessions interact.Sessions
	store    *interact.Store
	threads  *comments.Threads
	ttl      time.Duration
	now      func() time.Time
	cache    *lru.Cache[string, cacheItem]
}

// NewAggregator wires an aggregator. threads may be nil when comments are not
// displayed.
func NewAggregator(client Backend, sessions interact.Sessions, store *interact.Store, threads *comments.Threads, ttl time.Duration) *Aggregator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache, err := lru.New[string, cacheItem](cacheSize)
	if err != nil {
		// Only fails for a non-positive size.
		panic(err)
	}
	return &Aggregator{
		api:      client,
		sessions: sessions,
		store:    store,
		threads:  threads,
		ttl:      ttl,
		now:      time.Now,
		cache:    cache,
	}
}

// Treks returns the trek list. force bypasses the cache.
func (a *Aggregator) Treks(ctx context.Context, force bool) ([]TrekCard, error) {
	key := string(CollectionTreks)
	if cards, ok := cached[[]TrekCard](a, key, force); ok {
		return cards, nil
	}
	treks, err := a.api.FetchTreks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load treks: %w", err)
	}
	cards := NormalizeTreks(treks)
	a.put(key, cards)
	return slices.Clone(cards), nil
}

// Community returns the community feed. Like counts and comment threads from
// the response seed the shared stores.
func (a *Aggregator) Community(ctx context.Context, force bool) ([]PostCard, error) {
	key := string(CollectionPosts)
	if cards, ok := cached[[]PostCard](a, key, force); ok {
		return cards, nil
	}
	likesSince := a.store.Version()
	var commentsSince uint64
	if a.threads != nil {
		commentsSince = a.threads.Version()
	}
	posts, err := a.api.FetchPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}
	cards := NormalizePosts(posts)

	counts := make(map[api.ID]int, len(cards))
	for _, card := range cards {
		counts[card.ID] = card.LikeCount
	}
	a.store.ObserveCounts(counts, likesSince)
	if a.threads != nil {
		for _, p := range posts {
			a.threads.Seed(p.ID, p.CommentsList, commentsSince)
		}
	}

	a.put(key, cards)
	return clonePosts(cards), nil
}

// Wishlist returns the current user's wishlist. The same response reconciles
// wishlist membership, so the page costs one request.
func (a *Aggregator) Wishlist(ctx context.Context, force bool) ([]TrekCard, error) {
	sess, err := a.sessions.Require()
	if err != nil {
		return nil, err
	}
	key := wishlistKey(sess.UserID)
	if cards, ok := cached[[]TrekCard](a, key, force); ok {
		return cards, nil
	}
	since := a.store.Version()
	w, err := a.api.FetchWishlist(ctx, sess.UserID)
	if err != nil {
		a.store.ApplyMembership(interact.KindWishlist, nil, since)
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	a.store.ApplyMembership(interact.KindWishlist, w.TrekIDs(), since)
	cards := NormalizeWishlist(w)
	a.put(key, cards)
	return slices.Clone(cards), nil
}

// MountTreks loads the trek list and reconciles wishlist membership in
// parallel. A failed reconciliation only degrades membership; the list still
// renders.
func (a *Aggregator) MountTreks(ctx context.Context, force bool) ([]TrekCard, error) {
	var cards []TrekCard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = a.Treks(gctx, force)
		return err
	})
	g.Go(func() error {
		if err := a.store.ReconcileWishlist(gctx); err != nil {
			log.Printf("trek list: %v", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}

// MountCommunity loads the feed and reconciles liked posts in parallel.
func (a *Aggregator) MountCommunity(ctx context.Context, force bool) ([]PostCard, error) {
	var cards []PostCard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = a.Community(gctx, force)
		return err
	})
	g.Go(func() error {
		if err := a.store.ReconcileLikes(gctx); err != nil {
			log.Printf("community feed: %v", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}

// MountWishlist loads the wishlist page. Membership is reconciled from the
// page's own response.
func (a *Aggregator) MountWishlist(ctx context.Context, force bool) ([]TrekCard, error) {
	return a.Wishlist(ctx, force)
}

// DropFromWishlist removes trekID from the cached wishlist page after a
// successful removal.
func (a *Aggregator) DropFromWishlist(trekID api.ID) {
	sess, err := a.sessions.Require()
	if err != nil {
		return
	}
	key := wishlistKey(sess.UserID)
	item, ok := a.cache.Peek(key)
	if !ok {
		return
	}
	cards, _ := item.data.([]TrekCard)
	cards = slices.DeleteFunc(slices.Clone(cards), func(c TrekCard) bool { return c.ID == trekID })
	a.cache.Add(key, cacheItem{data: cards, expiresAt: item.expiresAt})
}

// AppendComment adds c to the cached post it belongs to.
func (a *Aggregator) AppendComment(c comments.Comment) {
	key := string(CollectionPosts)
	item, ok := a.cache.Peek(key)
	if !ok {
		return
	}
	cards, _ := item.data.([]PostCard)
	cards = clonePosts(cards)
	for i := range cards {
		if cards[i].ID == c.PostID {
			cards[i].Comments = append(cards[i].Comments, c)
			break
		}
	}
	a.cache.Add(key, cacheItem{data: cards, expiresAt: item.expiresAt})
}

// Invalidate drops the cached copy of each named collection. With no
// arguments every collection is dropped.
func (a *Aggregator) Invalidate(collections ...Collection) {
	if len(collections) == 0 {
		a.cache.Purge()
		return
	}
	for _, c := range collections {
		if c != CollectionWishlist {
			a.cache.Remove(string(c))
			continue
		}
		for _, key := range a.cache.Keys() {
			if strings.HasPrefix(key, string(CollectionWishlist)+":") {
				a.cache.Remove(key)
			}
		}
	}
}

func (a *Aggregator) put(key string, data any) {
	a.cache.Add(key, cacheItem{data: data, expiresAt: a.now().Add(a.ttl)})
}

func cached[T any](a *Aggregator, key string, force bool) (T, bool) {
	var zero T
	if force {
		return zero, false
	}
	item, ok := a.cache.Get(key)
	if !ok {
		return zero, false
	}
	if a.now().After(item.expiresAt) {
		a.cache.Remove(key)
		return zero, false
	}
	data, ok := item.data.(T)
	if !ok {
		return zero, false
	}
	switch v := any(data).(type) {
	case []TrekCard:
		return any(slices.Clone(v)).(T), true
	case []PostCard:
		return any(clonePosts(v)).(T), true
	}
	return data, true
}

func clonePosts(cards []PostCard) []PostCard {
	out := make([]PostCard, len(cards))
	for i, c := range cards {
		c.Comments = slices.Clone(c.Comments)
		out[i] = c
	}
	return out
}

func wishlistKey(userID api.ID) string {
	return string(CollectionWishlist) + ":" + userID.String()
}
