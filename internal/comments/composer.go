package comments

import (
	"strings"

	"github.com/five82/basecamp/internal/interact"
)

// ComposerState is the lifecycle of the comment input.
type ComposerState int

const (
	ComposerIdle ComposerState = iota
	ComposerSubmitting
)

func (s ComposerState) String() string {
	if s == ComposerSubmitting {
		return "submitting"
	}
	return "idle"
}

// Composer tracks the draft for one post's comment box.
//
// Idle -> Submitting on Start; Submitting -> Idle on Finish. A successful
// finish clears the draft, a failed one keeps it so nothing typed is lost.
// There are no automatic retries.
type Composer struct {
	draft string
	state ComposerState
	err   error
}

// SetDraft replaces the draft. Edits are ignored while submitting.
func (c *Composer) SetDraft(text string) {
	if c.state == ComposerSubmitting {
		return
	}
	c.draft = text
}

// Start moves to Submitting and returns the trimmed content to send. It
// refuses blank drafts and a second start before Finish.
func (c *Composer) Start() (string, error) {
	if c.state == ComposerSubmitting {
		return "", interact.ErrAlreadyInFlight
	}
	content := strings.TrimSpace(c.draft)
	if content == "" {
		c.err = ErrEmptyContent
		return "", ErrEmptyContent
	}
	c.state = ComposerSubmitting
	c.err = nil
	return content, nil
}

// Finish returns to Idle with the outcome of the submit.
func (c *Composer) Finish(err error) {
	c.state = ComposerIdle
	c.err = err
	if err == nil {
		c.draft = ""
	}
}

// State returns the current lifecycle state.
func (c *Composer) State() ComposerState { return c.state }

// Draft returns the current draft text.
func (c *Composer) Draft() string { return c.draft }

// Err returns the last submit error, if any.
func (c *Composer) Err() error { return c.err }
