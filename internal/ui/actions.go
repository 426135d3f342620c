package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/comments"
	"github.com/five82/basecamp/internal/feed"
	"github.com/five82/basecamp/internal/interact"
	"github.com/five82/basecamp/internal/prefs"
	"github.com/five82/basecamp/internal/session"
)

// settledMsg reports the end of an optimistic toggle.
type settledMsg struct {
	key    interact.Key
	result interact.Result
	err    error
}

// commentMsg reports the end of a comment submit.
type commentMsg struct {
	postID  api.ID
	comment comments.Comment
	err     error
}

func (m Model) toggleSelectedLike() (Model, tea.Cmd) {
	post, ok := m.selectedPost()
	if !ok {
		return m, nil
	}
	return m.beginToggle(interact.KindLike, post.ID)
}

func (m Model) toggleSelectedWishlist() (Model, tea.Cmd) {
	trek, ok := m.selectedTrek()
	if !ok {
		return m, nil
	}
	return m.beginToggle(interact.KindWishlist, trek.ID)
}

// beginToggle applies the optimistic flip synchronously and settles it in a
// command. A duplicate intent while the first is pending is ignored.
func (m Model) beginToggle(kind interact.Kind, id api.ID) (Model, tea.Cmd) {
	if m.interactions == nil {
		return m, nil
	}
	mut, err := m.interactions.Begin(kind, id)
	switch {
	case err == nil:
		return m, settleCmd(m.ctx, mut)
	case errors.Is(err, interact.ErrAlreadyInFlight):
		return m, nil
	case errors.Is(err, session.ErrNotAuthenticated):
		return m.showToast(loginPrompt(kind), true)
	default:
		return m.showToast(err.Error(), true)
	}
}

func loginPrompt(kind interact.Kind) string {
	if kind == interact.KindLike {
		return "Please log in to like posts"
	}
	return "Please log in to save treks"
}

func settleCmd(ctx context.Context, mut *interact.Mutation) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		res, err := mut.Settle(ctx)
		return settledMsg{key: mut.Key(), result: res, err: err}
	}
}

// handleSettled reconciles view-level state with a finished toggle. The
// shared store has already committed or rolled back.
func (m Model) handleSettled(msg settledMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, interact.ErrSettled) {
			return m, nil
		}
		verb := ternary(msg.key.Kind == interact.KindLike, "update like", "update wishlist")
		return m.showToast(fmt.Sprintf("Could not %s: %v", verb, msg.err), true)
	}

	if msg.key.Kind != interact.KindWishlist || m.feed == nil {
		return m, nil
	}
	if msg.result.Active {
		m.feed.Invalidate(feed.CollectionWishlist)
		return m, nil
	}
	m.feed.DropFromWishlist(msg.key.ID)
	m.wishlist = dropTrek(m.wishlist, msg.key.ID)
	s := &m.screens[ViewWishlist]
	s.selected = clampIndex(s.selected, len(m.wishlist))
	return m, nil
}

func dropTrek(cards []feed.TrekCard, id api.ID) []feed.TrekCard {
	out := cards[:0:0]
	for _, c := range cards {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// composer returns the draft holder for postID, creating it on first use.
func (m Model) composer(postID api.ID) *comments.Composer {
	c, ok := m.composers[postID]
	if !ok {
		c = &comments.Composer{}
		m.composers[postID] = c
	}
	return c
}

func (m Model) openComposer() (Model, tea.Cmd) {
	post, ok := m.selectedPost()
	if !ok {
		return m, nil
	}
	if _, err := m.sessions.Require(); err != nil {
		return m.showToast("Please log in to comment", true)
	}
	m.modal = newCommentModal(post.ID, post.AuthorName, m.composer(post.ID))
	return m, nil
}

// submitComment moves the composer to Submitting and posts the draft.
func (m Model) submitComment(postID api.ID) (Model, tea.Cmd) {
	if m.threads == nil {
		return m, nil
	}
	c := m.composer(postID)
	content, err := c.Start()
	if err != nil {
		return m, nil
	}
	threads := m.threads
	ctx := m.ctx
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		comment, err := threads.Submit(ctx, postID, content)
		return commentMsg{postID: postID, comment: comment, err: err}
	}
}

// handleComment finishes the composer. On failure the draft is kept and the
// dialog, if still open, shows the error.
func (m Model) handleComment(msg commentMsg) (Model, tea.Cmd) {
	c := m.composer(msg.postID)
	c.Finish(msg.err)

	if cm, ok := m.modal.(commentModal); ok && cm.postID == msg.postID {
		if msg.err == nil {
			m.modal = nil
		} else {
			m.modal = cm.sync()
		}
	}

	if msg.err != nil {
		if errors.Is(msg.err, session.ErrNotAuthenticated) {
			return m.showToast("Please log in to comment", true)
		}
		return m.showToast("Could not post comment: "+msg.err.Error(), true)
	}

	delete(m.composers, msg.postID)
	if m.feed != nil {
		m.feed.AppendComment(msg.comment)
	}
	return m.showToast("Comment posted", false)
}

// login replaces the session and remounts the current screen so membership is
// reconciled for the new user.
func (m Model) login(token string) (Model, tea.Cmd) {
	sess, err := m.sessions.Login(token)
	if err != nil {
		log.Printf("login failed: %v", err)
		return m.showToast("Login failed: "+err.Error(), true)
	}
	m.resetUserState()
	m, toastCmd := m.showToast(fmt.Sprintf("Logged in as user %s (%s)", sess.UserID, sess.Role), false)
	m, remount := m.mount(m.currentView, false)
	return m, tea.Batch(toastCmd, remount)
}

func (m Model) logout() (Model, tea.Cmd) {
	if !m.sessions.Current().IsAuthenticated {
		return m.showToast("Not logged in", false)
	}
	m.sessions.Logout()
	m.resetUserState()
	m, toastCmd := m.showToast("Logged out", false)
	m, remount := m.mount(m.currentView, false)
	return m, tea.Batch(toastCmd, remount)
}

// resetUserState drops everything that belonged to the previous user.
func (m *Model) resetUserState() {
	if m.interactions != nil {
		m.interactions.Reset()
	}
	if m.feed != nil {
		m.feed.Invalidate(feed.CollectionWishlist)
	}
	m.wishlist = nil
	m.screens[ViewWishlist] = screenState{gen: m.screens[ViewWishlist].gen}
	clear(m.composers)
}

// showToast replaces the notification and schedules its expiry.
func (m Model) showToast(text string, isErr bool) (Model, tea.Cmd) {
	m.toast = toast{text: text, isErr: isErr, seq: m.toast.seq + 1}
	seq := m.toast.seq
	return m, tea.Tick(ToastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (m Model) renderToast() string {
	if m.toast.text == "" {
		return ""
	}
	styles := m.theme.Styles()
	text := styles.SuccessText.Render(m.toast.text)
	if m.toast.isErr {
		text = styles.DangerText.Render(m.toast.text)
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, styles.Toast.Render(text))
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, StartView: m.currentView.String()}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		log.Printf("save prefs: %v", err)
	}
}
