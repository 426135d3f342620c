package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/comments"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// Intents emitted by modals on confirm. The model handles them like any
// other message.
type (
	loginIntentMsg   struct{ token string }
	commentIntentMsg struct{ postID api.ID }
)

// loginModal collects a bearer token.
type loginModal struct {
	input textinput.Model
}

func newLoginModal() loginModal {
	ti := textinput.New()
	ti.Placeholder = "paste bearer token"
	ti.CharLimit = 4096
	ti.Width = 48
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Focus()
	return loginModal{input: ti}
}

func (l loginModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Escape):
			return l, nil, true
		case key.Matches(k, keys.Confirm):
			token := strings.TrimSpace(l.input.Value())
			if token == "" {
				return l, nil, false
			}
			return l, func() tea.Msg { return loginIntentMsg{token: token} }, true
		}
	}
	var cmd tea.Cmd
	l.input, cmd = l.input.Update(msg)
	return l, cmd, false
}

func (l loginModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Log In"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 40)))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Token: "))
	b.WriteString(l.input.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter: log in  esc: cancel"))
	return placeModal(theme, width, height, b.String())
}

// commentModal edits the draft for one post. The draft lives in the shared
// composer so it survives closing the dialog and failed submits.
type commentModal struct {
	postID   api.ID
	author   string
	composer *comments.Composer
	input    textinput.Model
}

func newCommentModal(postID api.ID, author string, composer *comments.Composer) commentModal {
	ti := textinput.New()
	ti.Placeholder = "Write a comment..."
	ti.CharLimit = 1000
	ti.Width = 56
	ti.SetValue(composer.Draft())
	ti.Focus()
	return commentModal{postID: postID, author: author, composer: composer, input: ti}
}

func (c commentModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Escape):
			return c, nil, true
		case key.Matches(k, keys.Confirm):
			id := c.postID
			return c, func() tea.Msg { return commentIntentMsg{postID: id} }, false
		}
	}
	if c.composer.State() == comments.ComposerSubmitting {
		return c, nil, false
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	c.composer.SetDraft(c.input.Value())
	return c, cmd, false
}

// sync reloads the input from the composer after a submit settles.
func (c commentModal) sync() commentModal {
	c.input.SetValue(c.composer.Draft())
	c.input.CursorEnd()
	return c
}

func (c commentModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Comment on " + c.author))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 56)))
	b.WriteString("\n\n")
	b.WriteString(c.input.View())
	b.WriteString("\n\n")
	switch {
	case c.composer.State() == comments.ComposerSubmitting:
		b.WriteString(styles.WarningText.Render("Posting..."))
	case c.composer.Err() != nil:
		b.WriteString(styles.DangerText.Render(truncate(c.composer.Err().Error(), 56)))
	default:
		b.WriteString(styles.FaintText.Render("enter: post  esc: close (draft is kept)"))
	}
	return placeModal(theme, width, height, b.String())
}

func placeModal(theme Theme, width, height int, body string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		Padding(1, 2).
		Render(body)
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
