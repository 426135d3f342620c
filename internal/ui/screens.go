package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/basecamp/internal/comments"
	"github.com/five82/basecamp/internal/feed"
	"github.com/five82/basecamp/internal/session"
)

// mountMsg asks the model to switch into view and load it.
type mountMsg struct {
	view  View
	force bool
}

// mountedMsg carries a screen's collection back to the model.
type mountedMsg struct {
	view  View
	gen   int
	treks []feed.TrekCard
	posts []feed.PostCard
	err   error
}

// mount switches to view and starts loading it. Any result still in flight
// for an earlier mount of the same screen is discarded on arrival.
func (m Model) mount(view View, force bool) (Model, tea.Cmd) {
	m.currentView = view
	s := &m.screens[view]
	s.gen++
	s.loading = true
	s.err = nil
	m.detailViewport.GotoTop()
	if m.feed == nil {
		s.loading = false
		return m, nil
	}
	return m, mountCmd(m.ctx, m.feed, view, s.gen, force)
}

func mountCmd(ctx context.Context, agg *feed.Aggregator, view View, gen int, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()

		msg := mountedMsg{view: view, gen: gen}
		switch view {
		case ViewCommunity:
			msg.posts, msg.err = agg.MountCommunity(ctx, force)
		case ViewWishlist:
			msg.treks, msg.err = agg.MountWishlist(ctx, force)
		default:
			msg.treks, msg.err = agg.MountTreks(ctx, force)
		}
		return msg
	}
}

// handleMounted applies a load result if its screen is still the one that
// asked for it.
func (m *Model) handleMounted(msg mountedMsg) {
	s := &m.screens[msg.view]
	if msg.gen != s.gen || msg.view != m.currentView {
		return
	}
	s.loading = false
	s.err = msg.err
	if msg.err != nil {
		return
	}
	s.loaded = true
	s.loadedAt = m.now()
	switch msg.view {
	case ViewCommunity:
		m.posts = msg.posts
		s.selected = clampIndex(s.selected, len(m.posts))
	case ViewWishlist:
		m.wishlist = msg.treks
		s.selected = clampIndex(s.selected, len(m.wishlist))
	default:
		m.treks = msg.treks
		s.selected = clampIndex(s.selected, len(m.treks))
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.toast = toast{seq: m.toast.seq}
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.mount((m.currentView+1)%viewCount, false)

	case key.Matches(msg, m.keys.ShiftTab):
		return m.mount((m.currentView+viewCount-1)%viewCount, false)

	case key.Matches(msg, m.keys.ViewTreks):
		return m.mount(ViewTreks, false)

	case key.Matches(msg, m.keys.ViewCommunity):
		return m.mount(ViewCommunity, false)

	case key.Matches(msg, m.keys.ViewWishlist):
		return m.mount(ViewWishlist, false)

	case key.Matches(msg, m.keys.Refresh):
		return m.mount(m.currentView, true)

	case key.Matches(msg, m.keys.Login):
		m.modal = newLoginModal()
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		return m.logout()

	case key.Matches(msg, m.keys.Like):
		return m.toggleSelectedLike()

	case key.Matches(msg, m.keys.Wishlist):
		return m.toggleSelectedWishlist()

	case key.Matches(msg, m.keys.Comment):
		return m.openComposer()

	case key.Matches(msg, m.keys.HalfPageDown):
		m.detailViewport.HalfPageDown()
		return m, nil

	case key.Matches(msg, m.keys.HalfPageUp):
		m.detailViewport.HalfPageUp()
		return m, nil
	}

	return m.handleListKey(msg), nil
}

// handleListKey moves the selection in the current screen's list.
func (m Model) handleListKey(msg tea.KeyMsg) Model {
	count := m.listLen()
	if count == 0 {
		return m
	}
	s := &m.screens[m.currentView]
	prev := s.selected

	switch {
	case key.Matches(msg, m.keys.Down):
		if s.selected < count-1 {
			s.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if s.selected > 0 {
			s.selected--
		}
	case key.Matches(msg, m.keys.Top):
		s.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		s.selected = count - 1
	}

	if s.selected != prev {
		m.detailViewport.GotoTop()
	}
	return m
}

func (m Model) updateModal(msg tea.Msg) (Model, tea.Cmd) {
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
	} else {
		m.modal = next
	}
	return m, cmd
}

func (m Model) listLen() int {
	switch m.currentView {
	case ViewCommunity:
		return len(m.posts)
	case ViewWishlist:
		return len(m.wishlist)
	default:
		return len(m.treks)
	}
}

// selectedTrek returns the highlighted trek on the trek or wishlist screen.
func (m Model) selectedTrek() (feed.TrekCard, bool) {
	list := m.treks
	switch m.currentView {
	case ViewWishlist:
		list = m.wishlist
	case ViewCommunity:
		return feed.TrekCard{}, false
	}
	i := m.screens[m.currentView].selected
	if i < 0 || i >= len(list) {
		return feed.TrekCard{}, false
	}
	return list[i], true
}

// selectedPost returns the highlighted post on the community screen.
func (m Model) selectedPost() (feed.PostCard, bool) {
	if m.currentView != ViewCommunity {
		return feed.PostCard{}, false
	}
	i := m.screens[ViewCommunity].selected
	if i < 0 || i >= len(m.posts) {
		return feed.PostCard{}, false
	}
	return m.posts[i], true
}

// renderContent renders the list and detail panes for the current screen.
func (m Model) renderContent() string {
	styles := m.theme.Styles()
	height := m.contentHeight()
	s := m.screens[m.currentView]

	if s.err != nil && m.listLen() == 0 {
		msg := "Could not load " + m.currentView.String() + ": " + s.err.Error()
		if errors.Is(s.err, session.ErrNotAuthenticated) {
			msg = "Log in (L) to see your wishlist."
		}
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
			styles.DangerText.Render(truncate(msg, max(m.width-4, 10))))
	}
	if m.listLen() == 0 {
		msg := ternary(s.loading, "Loading "+m.currentView.String()+"...", m.emptyText())
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
	}

	listW, listH, _, _ := m.paneSizes()
	list := styles.Card.Width(listW - 2).Height(listH - 2).Render(m.renderList(listW-4, listH-2))
	detail := m.detailViewport.View()

	if m.compact() {
		return lipgloss.JoinVertical(lipgloss.Left, list, detail)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
}

func (m Model) emptyText() string {
	switch m.currentView {
	case ViewCommunity:
		return "No posts yet."
	case ViewWishlist:
		return "Your wishlist is empty. Press w on a trek to save it."
	default:
		return "No treks available."
	}
}

// renderList renders the visible window of rows around the selection.
func (m Model) renderList(width, height int) string {
	styles := m.theme.Styles()
	selected := m.screens[m.currentView].selected
	count := m.listLen()
	height = max(height, 1)

	start := 0
	if selected >= height {
		start = selected - height + 1
	}
	end := min(start+height, count)

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		switch m.currentView {
		case ViewCommunity:
			rows = append(rows, postRow(m.posts[i], m.marks, styles, width, i == selected))
		case ViewWishlist:
			rows = append(rows, trekRow(m.wishlist[i], m.marks, styles, width, i == selected))
		default:
			rows = append(rows, trekRow(m.treks[i], m.marks, styles, width, i == selected))
		}
	}
	return strings.Join(rows, "\n")
}

// syncDetail renders the selected card into the detail viewport.
func (m *Model) syncDetail() {
	if !m.ready {
		return
	}
	styles := m.theme.Styles()
	width := m.detailViewport.Width
	var content string
	if post, ok := m.selectedPost(); ok {
		var thread []comments.Comment
		if m.threads != nil {
			thread = m.threads.Thread(post.ID)
		}
		content = postDetail(post, thread, m.marks, styles, width, m.now())
	} else if trek, ok := m.selectedTrek(); ok {
		content = trekDetail(trek, m.marks, styles, width)
	}
	m.detailViewport.SetContent(content)
}

func (m *Model) resizeDetail() {
	_, _, w, h := m.paneSizes()
	m.detailViewport.Width = w
	m.detailViewport.Height = h
}

func (m Model) compact() bool {
	return m.width < LayoutCompactWidth
}

// contentHeight is the terminal height minus header, command bar and toast.
func (m Model) contentHeight() int {
	return max(m.height-3, 3)
}

// paneSizes returns the list and detail pane dimensions.
func (m Model) paneSizes() (listW, listH, detailW, detailH int) {
	h := m.contentHeight()
	if m.compact() {
		listH = max(h/2, 3)
		return m.width, listH, m.width, max(h-listH, 3)
	}
	listW = m.width * LayoutListShare / 100
	return listW, h, m.width - listW, h
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	return min(i, n-1)
}
