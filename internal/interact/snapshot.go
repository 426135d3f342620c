package interact

import (
	"sort"

	"github.com/five82/basecamp/internal/api"
)

// IDSet is a set of entity ids.
type IDSet map[api.ID]struct{}

// NewIDSet builds a set from ids, skipping blanks.
func NewIDSet(ids ...api.ID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		if !id.IsZero() {
			set[id] = struct{}{}
		}
	}
	return set
}

// Has reports membership. Unknown ids are never members.
func (s IDSet) Has(id api.ID) bool {
	_, ok := s[id]
	return ok
}

// Set adds or removes id.
func (s IDSet) Set(id api.ID, member bool) {
	if member {
		s[id] = struct{}{}
		return
	}
	delete(s, id)
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	dup := make(IDSet, len(s))
	for id := range s {
		dup[id] = struct{}{}
	}
	return dup
}

// Sorted returns the members in lexical order.
func (s IDSet) Sorted() []api.ID {
	ids := make([]api.ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Snapshot is an immutable copy of the store handed to renderers.
type Snapshot struct {
	Liked      IDSet
	Wishlisted IDSet
	LikeCounts map[api.ID]int
	Pending    map[Key]struct{}
}

// IsLiked reports whether the current user likes postID.
func (s Snapshot) IsLiked(postID api.ID) bool { return s.Liked.Has(postID) }

// IsWishlisted reports whether trekID is in the current user's wishlist.
func (s Snapshot) IsWishlisted(trekID api.ID) bool { return s.Wishlisted.Has(trekID) }

// LikeCount returns the displayed like count, falling back to fallback when
// the store has not seen the post yet.
func (s Snapshot) LikeCount(postID api.ID, fallback int) int {
	if count, ok := s.LikeCounts[postID]; ok {
		return count
	}
	return max(fallback, 0)
}

// IsPending reports whether a toggle for (kind, id) is in flight.
func (s Snapshot) IsPending(kind Kind, id api.ID) bool {
	_, ok := s.Pending[Key{Kind: kind, ID: id}]
	return ok
}
