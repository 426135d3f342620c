package interact

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/session"
)

var (
	// ErrAlreadyInFlight rejects a second mutation for a key that is still pending.
	ErrAlreadyInFlight = errors.New("already in flight")
	// ErrMissingID rejects a mutation without an entity id.
	ErrMissingID = errors.New("entity id required")
	// ErrSettled is returned when Settle is called twice on one mutation.
	ErrSettled = errors.New("mutation already settled")
)

// Kind selects which relationship a mutation touches.
type Kind int

const (
	KindLike Kind = iota
	KindWishlist
)

func (k Kind) String() string {
	switch k {
	case KindLike:
		return "like"
	case KindWishlist:
		return "wishlist"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Key identifies one pending slot. A like on post 5 and a wishlist entry for
// trek 5 never block each other.
type Key struct {
	Kind Kind
	ID   api.ID
}

// Phase is the lifecycle of a Mutation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseCommitted
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled back"
	default:
		return "idle"
	}
}

// LikeAPI is the subset of the backend used for likes.
type LikeAPI interface {
	FetchLikedPosts(ctx context.Context, userID api.ID) ([]api.ID, error)
	ToggleLike(ctx context.Context, postID api.ID) (api.LikeResult, error)
}

// WishlistAPI is the subset of the backend used for wishlists.
type WishlistAPI interface {
	FetchWishlist(ctx context.Context, userID api.ID) (api.Wishlist, error)
	AddToWishlist(ctx context.Context, userID, trekID api.ID) error
	RemoveFromWishlist(ctx context.Context, userID, trekID api.ID) error
}

// Sessions gates mutations on a logged-in user.
type Sessions interface {
	Require() (session.Session, error)
}

// Result is the displayed state of one entity after an operation.
type Result struct {
	Key
	Active   bool
	Count    int
	HasCount bool
}

// Store is the single source of liked/wishlisted state shared by every screen.
// Screens read Snapshot and dispatch toggles; only the store writes.
type Store struct {
	sessions Sessions
	likes    LikeAPI
	wishlist WishlistAPI

	mu         sync.RWMutex
	liked      IDSet
	wishlisted IDSet
	counts     map[api.ID]int
	pending    map[Key]*Mutation
	epoch      uint64

	// version advances on every committed toggle; settled records the
	// version at which each key last committed.
	version uint64
	settled map[Key]uint64

	flights singleflight.Group
}

// NewStore builds an empty store.
func NewStore(sessions Sessions, likes LikeAPI, wishlist WishlistAPI) *Store {
	return &Store{
		sessions:   sessions,
		likes:      likes,
		wishlist:   wishlist,
		liked:      IDSet{},
		wishlisted: IDSet{},
		counts:     map[api.ID]int{},
		pending:    map[Key]*Mutation{},
		settled:    map[Key]uint64{},
	}
}

// Version returns the commit counter. Record it before fetching a listing
// and pass it to ApplyMembership or ObserveCounts so that keys committed
// while the fetch was in flight keep their settled value.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Mutation is one optimistic toggle between Begin and Settle.
type Mutation struct {
	store  *Store
	key    Key
	userID api.ID
	epoch  uint64

	prevActive bool
	prevCount  int
	hadCount   bool
	optimistic Result

	phase Phase // guarded by store.mu
}

// Key returns the entity this mutation targets.
func (m *Mutation) Key() Key { return m.key }

// Optimistic returns the state displayed while the call is in flight.
func (m *Mutation) Optimistic() Result { return m.optimistic }

// Phase returns the current lifecycle phase.
func (m *Mutation) Phase() Phase {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return m.phase
}

// Begin gates on the session, claims the pending slot for (kind, id) and
// applies the optimistic flip. It never touches the network; call Settle to
// issue the request.
func (s *Store) Begin(kind Kind, id api.ID) (*Mutation, error) {
	if id.IsZero() {
		return nil, ErrMissingID
	}
	sess, err := s.sessions.Require()
	if err != nil {
		return nil, err
	}

	key := Key{Kind: kind, ID: id}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.pending[key]; busy {
		return nil, ErrAlreadyInFlight
	}

	set := s.setFor(kind)
	m := &Mutation{
		store:      s,
		key:        key,
		userID:     sess.UserID,
		epoch:      s.epoch,
		prevActive: set.Has(id),
		phase:      PhasePending,
	}
	next := !m.prevActive
	set.Set(id, next)

	m.optimistic = Result{Key: key, Active: next}
	if kind == KindLike {
		if count, ok := s.counts[id]; ok {
			m.prevCount, m.hadCount = count, true
			if next {
				count++
			} else {
				count--
			}
			count = max(count, 0)
			s.counts[id] = count
			m.optimistic.Count, m.optimistic.HasCount = count, true
		}
	}

	s.pending[key] = m
	return m, nil
}

// Settle issues the request for m and commits or rolls back. On failure the
// flag and counter return to their pre-toggle values and the error is
// returned. The store is updated even if no screen is showing the entity.
func (m *Mutation) Settle(ctx context.Context) (Result, error) {
	s := m.store

	s.mu.RLock()
	phase := m.phase
	s.mu.RUnlock()
	if phase != PhasePending {
		return Result{}, ErrSettled
	}

	var (
		likeResult api.LikeResult
		err        error
	)
	switch m.key.Kind {
	case KindLike:
		likeResult, err = s.likes.ToggleLike(ctx, m.key.ID)
	case KindWishlist:
		if m.optimistic.Active {
			err = s.wishlist.AddToWishlist(ctx, m.userID, m.key.ID)
		} else {
			err = s.wishlist.RemoveFromWishlist(ctx, m.userID, m.key.ID)
		}
	default:
		err = fmt.Errorf("unknown kind %v", m.key.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, m.key)
	current := s.epoch == m.epoch
	set := s.setFor(m.key.Kind)

	if err != nil {
		m.phase = PhaseRolledBack
		if current {
			set.Set(m.key.ID, m.prevActive)
		}
		if m.key.Kind == KindLike {
			if m.hadCount {
				s.counts[m.key.ID] = m.prevCount
			} else {
				delete(s.counts, m.key.ID)
			}
		}
		log.Printf("%s %s rolled back: %v", m.key.Kind, m.key.ID, err)
		return s.resultLocked(m.key), fmt.Errorf("%s %s: %w", m.key.Kind, m.key.ID, err)
	}

	m.phase = PhaseCommitted
	s.version++
	s.settled[m.key] = s.version
	if m.key.Kind == KindLike {
		if likeResult.Liked != nil && current {
			set.Set(m.key.ID, *likeResult.Liked)
		}
		if likeResult.LikeCount != nil {
			s.counts[m.key.ID] = max(*likeResult.LikeCount, 0)
		}
	}
	return s.resultLocked(m.key), nil
}

// ToggleLike flips the current user's like on postID and waits for the server.
func (s *Store) ToggleLike(ctx context.Context, postID api.ID) (Result, error) {
	return s.toggle(ctx, KindLike, postID)
}

// ToggleWishlist flips trekID's membership in the current user's wishlist.
func (s *Store) ToggleWishlist(ctx context.Context, trekID api.ID) (Result, error) {
	return s.toggle(ctx, KindWishlist, trekID)
}

func (s *Store) toggle(ctx context.Context, kind Kind, id api.ID) (Result, error) {
	m, err := s.Begin(kind, id)
	if err != nil {
		return Result{}, err
	}
	return m.Settle(ctx)
}

// ReconcileWishlist replaces wishlist membership with one listing fetched from
// the server. Concurrent callers share the same request. On failure every
// non-pending entry degrades to false and the error is returned for logging.
func (s *Store) ReconcileWishlist(ctx context.Context) error {
	return s.reconcile(ctx, KindWishlist, func(ctx context.Context, userID api.ID) ([]api.ID, error) {
		wishlist, err := s.wishlist.FetchWishlist(ctx, userID)
		if err != nil {
			return nil, err
		}
		return wishlist.TrekIDs(), nil
	})
}

// ReconcileLikes replaces liked-post membership with the server's listing.
func (s *Store) ReconcileLikes(ctx context.Context) error {
	return s.reconcile(ctx, KindLike, s.likes.FetchLikedPosts)
}

// listing is one membership fetch and the commit version it started at.
type listing struct {
	ids   []api.ID
	since uint64
}

func (s *Store) reconcile(ctx context.Context, kind Kind, fetch func(context.Context, api.ID) ([]api.ID, error)) error {
	s.mu.RLock()
	epoch, since := s.epoch, s.version
	s.mu.RUnlock()

	sess, err := s.sessions.Require()
	if err != nil {
		s.applyMembership(kind, nil, epoch, since)
		return nil
	}

	// A caller joining a shared flight must use the version the flight
	// started at, not its own.
	flight := kind.String() + ":" + sess.UserID.String()
	v, err, _ := s.flights.Do(flight, func() (any, error) {
		started := s.Version()
		ids, err := fetch(ctx, sess.UserID)
		return listing{ids: ids, since: started}, err
	})
	if err != nil {
		s.applyMembership(kind, nil, epoch, since)
		log.Printf("reconcile %s for user %s failed: %v", kind, sess.UserID, err)
		return fmt.Errorf("reconcile %s: %w", kind, err)
	}
	got, _ := v.(listing)
	s.applyMembership(kind, got.ids, epoch, min(since, got.since))
	return nil
}

// ApplyMembership reconciles kind from a listing the caller already fetched,
// such as the wishlist page's own collection request. since is the Version
// read before that fetch started.
func (s *Store) ApplyMembership(kind Kind, ids []api.ID, since uint64) {
	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()
	s.applyMembership(kind, ids, epoch, since)
}

func (s *Store) applyMembership(kind Kind, ids []api.ID, epoch, since uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}

	next := NewIDSet(ids...)
	set := s.setFor(kind)
	for key := range s.pending {
		if key.Kind == kind {
			next.Set(key.ID, set.Has(key.ID))
		}
	}
	for key, v := range s.settled {
		if key.Kind == kind && v > since {
			next.Set(key.ID, set.Has(key.ID))
		}
	}
	switch kind {
	case KindLike:
		s.liked = next
	case KindWishlist:
		s.wishlisted = next
	}
}

// ObserveCounts records like counts from a feed fetched after Version
// returned since. Posts with a pending like toggle keep their optimistic
// count, and posts whose toggle committed after since keep the settled one.
func (s *Store) ObserveCounts(counts map[api.ID]int, since uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, count := range counts {
		key := Key{Kind: KindLike, ID: id}
		if _, busy := s.pending[key]; busy {
			continue
		}
		if s.settled[key] > since {
			continue
		}
		s.counts[id] = max(count, 0)
	}
}

// Reset drops all per-user membership, typically on logout. Mutations still in
// flight settle without writing flags for the previous user.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.liked = IDSet{}
	s.wishlisted = IDSet{}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Liked:      s.liked.Clone(),
		Wishlisted: s.wishlisted.Clone(),
		LikeCounts: make(map[api.ID]int, len(s.counts)),
		Pending:    make(map[Key]struct{}, len(s.pending)),
	}
	for id, count := range s.counts {
		snap.LikeCounts[id] = count
	}
	for key := range s.pending {
		snap.Pending[key] = struct{}{}
	}
	return snap
}

func (s *Store) resultLocked(key Key) Result {
	r := Result{Key: key, Active: s.setFor(key.Kind).Has(key.ID)}
	if key.Kind == KindLike {
		r.Count, r.HasCount = s.counts[key.ID]
	}
	return r
}

func (s *Store) setFor(kind Kind) IDSet {
	if kind == KindWishlist {
		return s.wishlisted
	}
	return s.liked
}
