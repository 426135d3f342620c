package stubapi

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/basecamp/internal/api"
)

const callerKey = "caller"

// Server is an in-memory trek marketplace backend.
type Server struct {
	secret []byte
	now    func() time.Time

	mu          sync.Mutex
	users       map[api.ID]api.User
	treks       []api.Trek
	posts       []api.Post
	likes       map[api.ID]map[api.ID]struct{} // post -> users
	wishlists   map[api.ID][]api.ID            // user -> treks
	nextComment int
	failing     map[string]bool
}

// New builds a server from seed, signing tokens with secret.
func New(secret []byte, seed Seed) *Server {
	s := &Server{
		secret:    secret,
		now:       time.Now,
		users:     make(map[api.ID]api.User, len(seed.Users)),
		treks:     slices.Clone(seed.Treks),
		posts:     slices.Clone(seed.Posts),
		likes:     make(map[api.ID]map[api.ID]struct{}),
		wishlists: make(map[api.ID][]api.ID),
		failing:   make(map[string]bool),
	}
	for _, u := range seed.Users {
		s.users[u.ID] = u
	}
	for postID, users := range seed.Likes {
		set := make(map[api.ID]struct{}, len(users))
		for _, u := range users {
			set[u] = struct{}{}
		}
		s.likes[postID] = set
	}
	for user, treks := range seed.Wishlists {
		s.wishlists[user] = slices.Clone(treks)
	}
	for _, p := range s.posts {
		s.nextComment += len(p.CommentsList)
	}
	return s
}

// IssueToken signs a token for userID that the server and the client accept.
func (s *Server) IssueToken(userID api.ID, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"id":   userID.String(),
		"role": role,
		"iat":  s.now().Unix(),
	}
	if ttl > 0 {
		claims["exp"] = s.now().Add(ttl).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// FailRoute makes every request to the named route answer success:false.
// Route names are the handler names, e.g. "toggleLike".
func (s *Server) FailRoute(name string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[name] = fail
}

// Handler returns the HTTP handler serving every route under /api.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r.Group("/api"))
	return r
}

// RegisterRoutes mounts the API on g.
func (s *Server) RegisterRoutes(g *gin.RouterGroup) {
	g.Use(s.loadCaller())

	g.GET("/treks", s.guard("listTreks", s.listTreks))
	g.GET("/posts", s.guard("listPosts", s.listPosts))
	g.GET("/posts/:id/likes", s.guard("likedPosts", s.likedPosts))

	authorized := g.Group("/")
	authorized.Use(requireCaller())
	{
		authorized.POST("/posts/:id/likes", s.guard("toggleLike", s.toggleLike))
		authorized.POST("/posts/:id/comments", s.guard("addComment", s.addComment))
		authorized.GET("/wishlists/tourists/:id", s.guard("wishlist", s.ownerOnly(s.wishlist)))
		authorized.POST("/wishlists/tourists/:id/add", s.guard("addWishlist", s.ownerOnly(s.addWishlist)))
		authorized.DELETE("/wishlists/tourists/:id/remove/:trekId", s.guard("removeWishlist", s.ownerOnly(s.removeWishlist)))
	}
}

// loadCaller verifies a bearer token, if any, and stores the caller id.
func (s *Server) loadCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if ok {
			if id, err := s.validate(strings.TrimSpace(raw)); err == nil {
				c.Set(callerKey, id)
			}
		}
		c.Next()
	}
}

func (s *Server) validate(token string) (api.ID, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("token expired")
		}
		return "", err
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token is not valid")
	}
	return api.ID(claims.Subject), nil
}

func requireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(callerKey); !ok {
			fail(c, http.StatusUnauthorized, "not authenticated")
			c.Abort()
			return
		}
		c.Next()
	}
}

func caller(c *gin.Context) api.ID {
	v, _ := c.Get(callerKey)
	id, _ := v.(api.ID)
	return id
}

// ownerOnly rejects access to another user's wishlist.
func (s *Server) ownerOnly(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if api.ID(c.Param("id")) != caller(c) {
			fail(c, http.StatusForbidden, "not your wishlist")
			return
		}
		h(c)
	}
}

// guard answers success:false for routes switched off with FailRoute.
func (s *Server) guard(name string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		failing := s.failing[name]
		s.mu.Unlock()
		if failing {
			c.JSON(http.StatusOK, gin.H{"success": false, "message": name + " unavailable"})
			return
		}
		h(c)
	}
}

func succeed(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func (s *Server) listTreks(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	succeed(c, s.treks)
}

func (s *Server) listPosts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := make([]api.Post, len(s.posts))
	for i, p := range s.posts {
		p.LikeCount = len(s.likes[p.ID])
		p.CommentsList = slices.Clone(p.CommentsList)
		posts[i] = p
	}
	succeed(c, posts)
}

func (s *Server) likedPosts(c *gin.Context) {
	user := api.ID(c.Param("id"))
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]api.ID, 0)
	for _, p := range s.posts {
		if _, liked := s.likes[p.ID][user]; liked {
			ids = append(ids, p.ID)
		}
	}
	succeed(c, ids)
}

func (s *Server) toggleLike(c *gin.Context) {
	postID := api.ID(c.Param("id"))
	user := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.postIndex(postID) < 0 {
		fail(c, http.StatusNotFound, "post not found")
		return
	}
	set := s.likes[postID]
	if set == nil {
		set = make(map[api.ID]struct{})
		s.likes[postID] = set
	}
	_, liked := set[user]
	if liked {
		delete(set, user)
	} else {
		set[user] = struct{}{}
	}
	succeed(c, gin.H{"liked": !liked, "likeCount": len(set)})
}

func (s *Server) addComment(c *gin.Context) {
	postID := api.ID(c.Param("id"))
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid body")
		return
	}
	content := strings.TrimSpace(body.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, "content is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.postIndex(postID)
	if i < 0 {
		fail(c, http.StatusNotFound, "post not found")
		return
	}
	s.nextComment++
	author := s.users[caller(c)]
	comment := api.Comment{
		ID:              api.ID(strconv.Itoa(s.nextComment)),
		PostID:          postID,
		Content:         content,
		CreatedAt:       s.now().UTC().Format(time.RFC3339),
		AuthorFirstName: author.FirstName,
		AuthorLastName:  author.LastName,
	}
	s.posts[i].CommentsList = append(s.posts[i].CommentsList, comment)
	succeed(c, comment)
}

func (s *Server) wishlist(c *gin.Context) {
	user := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]api.WishlistItem, 0, len(s.wishlists[user]))
	for _, trekID := range s.wishlists[user] {
		if i := s.trekIndex(trekID); i >= 0 {
			trek := s.treks[i]
			items = append(items, api.WishlistItem{Trek: &trek})
		}
	}
	succeed(c, api.Wishlist{Items: items})
}

func (s *Server) addWishlist(c *gin.Context) {
	var body struct {
		TrekID api.ID `json:"trekId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.TrekID.IsZero() {
		fail(c, http.StatusBadRequest, "trekId is required")
		return
	}
	user := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trekIndex(body.TrekID) < 0 {
		fail(c, http.StatusNotFound, "trek not found")
		return
	}
	if !slices.Contains(s.wishlists[user], body.TrekID) {
		s.wishlists[user] = append(s.wishlists[user], body.TrekID)
	}
	succeed(c, nil)
}

func (s *Server) removeWishlist(c *gin.Context) {
	trekID := api.ID(c.Param("trekId"))
	user := caller(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.wishlists[user], trekID)
	if i < 0 {
		fail(c, http.StatusNotFound, "trek not in wishlist")
		return
	}
	s.wishlists[user] = slices.Delete(s.wishlists[user], i, i+1)
	succeed(c, nil)
}

func (s *Server) postIndex(id api.ID) int {
	return slices.IndexFunc(s.posts, func(p api.Post) bool { return p.ID == id })
}

func (s *Server) trekIndex(id api.ID) int {
	return slices.IndexFunc(s.treks, func(t api.Trek) bool { return t.ID == id })
}
