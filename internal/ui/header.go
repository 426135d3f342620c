package ui

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/five82/basecamp/internal/api"
)

// renderHeader renders the status bar: logo, screen tabs, session and sync
// state.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.compact()
	sep := bg.Spaces(2)

	parts := []string{bg.Render("basecamp", styles.Logo)}

	tabs := make([]string, 0, viewCount)
	for v := View(0); v < viewCount; v++ {
		label := fmt.Sprintf("%d %s", int(v)+1, titleCase(v.String()))
		if v == m.currentView {
			tabs = append(tabs, bg.Render(label, styles.AccentText.Bold(true)))
		} else {
			tabs = append(tabs, bg.Render(label, styles.MutedText))
		}
	}
	parts = append(parts, bg.Join(tabs, "  "))

	if badge := m.renderSessionBadge(styles, bg); badge != "" {
		parts = append(parts, badge)
	}

	if pending := m.pendingCount(); pending > 0 {
		parts = append(parts,
			bg.Render("Syncing:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", pending), styles.BadgeText("pending")))
	}

	if s := m.screens[m.currentView]; s.loading {
		parts = append(parts, bg.Render("Loading...", styles.WarningText))
	}

	if ts := m.formatTimestamp(); ts != "" && !compact {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.snapshot.IsOffline() {
		msg := classifyConnectionError(m.snapshot.LastError)
		parts = append(parts,
			bg.Render("OFFLINE", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(msg, styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

// renderSessionBadge shows the logged-in user and role, or "guest".
func (m Model) renderSessionBadge(styles Styles, bg BgStyle) string {
	if m.sessions == nil {
		return ""
	}
	sess := m.sessions.Current()
	if !sess.IsAuthenticated {
		return bg.Render("guest", styles.FaintText)
	}
	role := sess.Role
	if role == "" {
		role = "tourist"
	}
	return bg.Render("user "+sess.UserID.String(), styles.Text) + bg.Space() +
		styles.BadgeStyle(role).Render(role)
}

func (m Model) pendingCount() int {
	return len(m.marks.Pending)
}

// formatTimestamp renders when the background refresh last succeeded.
func (m Model) formatTimestamp() string {
	if m.snapshot.LastUpdated.IsZero() {
		return ""
	}
	return "synced " + formatAge(m.snapshot.LastUpdated, m.now())
}

// classifyConnectionError returns a short label for a refresh failure.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var serverErr *api.ServerError
	var netErr net.Error
	switch {
	case errors.As(err, &serverErr):
		return fmt.Sprintf("server error %d", serverErr.Status)
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timed out"
	case errors.As(err, &netErr):
		return "unreachable"
	case errors.Is(err, api.ErrMalformed):
		return "bad response"
	default:
		return truncate(err.Error(), 40)
	}
}

// renderCommandBar renders the command hints bar for the current screen.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewCommunity:
		likeLabel := "Like"
		if post, ok := m.selectedPost(); ok && m.marks.IsLiked(post.ID) {
			likeLabel = "Unlike"
		}
		commands = []cmd{
			{"j/k", "Navigate"},
			{"l", likeLabel},
			{"c", "Comment"},
			{"r", "Reload"},
		}
	default:
		saveLabel := "Save"
		if trek, ok := m.selectedTrek(); ok && m.marks.IsWishlisted(trek.ID) {
			saveLabel = "Unsave"
		}
		commands = []cmd{
			{"j/k", "Navigate"},
			{"w", saveLabel},
			{"r", "Reload"},
		}
	}

	if m.sessions != nil && m.sessions.Current().IsAuthenticated {
		commands = append(commands, cmd{"X", "Logout"})
	} else {
		commands = append(commands, cmd{"L", "Login"})
	}
	commands = append(commands, cmd{"Tab", "Screen"}, cmd{"?", "More"})

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}
