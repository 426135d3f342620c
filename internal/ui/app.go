package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/comments"
	"github.com/five82/basecamp/internal/config"
	"github.com/five82/basecamp/internal/feed"
	"github.com/five82/basecamp/internal/interact"
	"github.com/five82/basecamp/internal/prefs"
	"github.com/five82/basecamp/internal/session"
	"github.com/five82/basecamp/internal/state"
)

// View represents the current screen.
type View int

const (
	ViewTreks View = iota
	ViewCommunity
	ViewWishlist
	viewCount
)

// String returns the screen name used in prefs and the header.
func (v View) String() string {
	switch v {
	case ViewCommunity:
		return "community"
	case ViewWishlist:
		return "wishlist"
	default:
		return "treks"
	}
}

// ParseView maps a prefs start_view value to a screen.
func ParseView(name string) View {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "community":
		return ViewCommunity
	case "wishlist":
		return ViewWishlist
	default:
		return ViewTreks
	}
}

// Sessions is the login state the UI reads and changes.
type Sessions interface {
	Current() session.Session
	Require() (session.Session, error)
	Login(token string) (session.Session, error)
	Logout()
}

// Options configures the UI.
type Options struct {
	Context      context.Context
	Sessions     Sessions
	Interactions *interact.Store
	Threads      *comments.Threads
	Feed         *feed.Aggregator
	Store        *state.Store
	Config       *config.Config
	PollTick     time.Duration
	ThemeName    string
	StartView    string
	PrefsPath    string
}

// screenState is the view-level state of one screen. gen increases on every
// mount; results carrying an older gen belong to a detached view.
type screenState struct {
	gen      int
	loading  bool
	loaded   bool
	loadedAt time.Time
	err      error
	selected int
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx          context.Context
	sessions     Sessions
	interactions *interact.Store
	threads      *comments.Threads
	feed         *feed.Aggregator
	store        *state.Store
	config       *config.Config
	prefsPath    string
	pollTick     time.Duration
	now          func() time.Time

	// UI state
	theme       Theme
	keys        keyMap
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	screens  [viewCount]screenState
	treks    []feed.TrekCard
	posts    []feed.PostCard
	wishlist []feed.TrekCard
	marks    interact.Snapshot
	snapshot state.Snapshot

	detailViewport viewport.Model

	// Comment drafts keyed by post
	composers map[api.ID]*comments.Composer

	// Overlays
	showHelp bool
	modal    Modal
	toast    toast
}

// toast is the single transient notification.
type toast struct {
	text  string
	isErr bool
	seq   int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Basecamp"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:          ctx,
		sessions:     opts.Sessions,
		interactions: opts.Interactions,
		threads:      opts.Threads,
		feed:         opts.Feed,
		store:        opts.Store,
		config:       opts.Config,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		now:          time.Now,
		theme:        GetTheme(themeName),
		keys:         DefaultKeyMap(),
		currentView:  ParseView(opts.StartView),
		composers:    make(map[api.ID]*comments.Composer),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		func() tea.Msg { return mountMsg{view: m.currentView} },
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.refreshMarks()
	next.syncDetail()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.detailViewport = viewport.New(0, 0)
		}
		m.ready = true
		m.resizeDetail()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case mountMsg:
		return m.mount(msg.view, msg.force)

	case mountedMsg:
		m.handleMounted(msg)
		return m, nil

	case settledMsg:
		return m.handleSettled(msg)

	case commentIntentMsg:
		return m.submitComment(msg.postID)

	case commentMsg:
		return m.handleComment(msg)

	case loginIntentMsg:
		return m.login(msg.token)

	case toastExpiredMsg:
		if msg.seq == m.toast.seq {
			m.toast = toast{seq: m.toast.seq}
		}
		return m, nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleTick processes the polling tick.
func (m Model) handleTick() (Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// applySnapshot adopts background refresh results for screens that are not
// mid-mount and were loaded before the refresh landed.
func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	if !snap.HasData || snap.LastError != nil {
		return
	}
	if s := &m.screens[ViewTreks]; s.loaded && !s.loading && snap.LastUpdated.After(s.loadedAt) {
		m.treks = snap.Treks
		s.loadedAt = snap.LastUpdated
		s.selected = clampIndex(s.selected, len(m.treks))
	}
	if s := &m.screens[ViewCommunity]; s.loaded && !s.loading && snap.LastUpdated.After(s.loadedAt) {
		m.posts = snap.Posts
		s.loadedAt = snap.LastUpdated
		s.selected = clampIndex(s.selected, len(m.posts))
	}
}

// refreshMarks copies the interaction store so renders never lock it.
func (m *Model) refreshMarks() {
	if m.interactions != nil {
		m.marks = m.interactions.Snapshot()
	}
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderContent())

	if t := m.renderToast(); t != "" {
		b.WriteString("\n")
		b.WriteString(t)
	}

	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type toastExpiredMsg struct{ seq int }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
