package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/basecamp/internal/comments"
	"github.com/five82/basecamp/internal/feed"
	"github.com/five82/basecamp/internal/interact"
)

// Glyphs for interaction state.
const (
	glyphLiked    = "♥"
	glyphNotLiked = "♡"
	glyphSaved    = "★"
	glyphNotSaved = "☆"
	glyphPending  = "…"
)

// likeBadge renders the heart and count for a post. The count comes from the
// store when known, else from the card as fetched.
func likeBadge(card feed.PostCard, snap interact.Snapshot, styles Styles) string {
	liked := snap.IsLiked(card.ID)
	count := snap.LikeCount(card.ID, card.LikeCount)
	glyph := ternary(liked, glyphLiked, glyphNotLiked)
	style := styles.MutedText
	if liked {
		style = styles.BadgeText("liked")
	}
	text := style.Render(glyph) + " " + styles.Text.Render(fmt.Sprint(count))
	if snap.IsPending(interact.KindLike, card.ID) {
		text += styles.FaintText.Render(glyphPending)
	}
	return text
}

// wishlistBadge renders the saved star for a trek.
func wishlistBadge(card feed.TrekCard, snap interact.Snapshot, styles Styles) string {
	text := styles.MutedText.Render(glyphNotSaved)
	if snap.IsWishlisted(card.ID) {
		text = styles.BadgeText("saved").Render(glyphSaved)
	}
	if snap.IsPending(interact.KindWishlist, card.ID) {
		text += styles.FaintText.Render(glyphPending)
	}
	return text
}

// trekRow renders a one-line list entry for a trek.
func trekRow(card feed.TrekCard, snap interact.Snapshot, styles Styles, width int, selected bool) string {
	badge := wishlistBadge(card, snap, styles)
	meta := fmt.Sprintf("%s · %s", card.Location, card.Duration)
	titleWidth := max(width-len([]rune(meta))-6, 8)
	line := fmt.Sprintf("%s %s  %s", badge, truncate(card.Title, titleWidth), styles.MutedText.Render(meta))
	if selected {
		return styles.Selected.Width(width).Render(line)
	}
	return line
}

// trekDetail renders the full card for the selected trek.
func trekDetail(card feed.TrekCard, snap interact.Snapshot, styles Styles, width int) string {
	var b strings.Builder
	inner := max(width-4, 10)

	b.WriteString(styles.Text.Bold(true).Render(card.Title))
	b.WriteString("  ")
	b.WriteString(wishlistBadge(card, snap, styles))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%s · %s · %s", card.Location, titleCase(card.Difficulty), card.Duration)))
	b.WriteString("\n")
	b.WriteString(styles.AccentText.Render(formatPrice(card.Price)))
	if card.Rating > 0 {
		b.WriteString(styles.WarningText.Render(fmt.Sprintf("  %.1f/5", card.Rating)))
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("Guide: ") + styles.Text.Render(card.GuideName))
	b.WriteString("\n")
	if card.Image != "" {
		b.WriteString(styles.FaintText.Render("Image: " + card.Image))
		b.WriteString("\n")
	}
	if card.Description != "" {
		b.WriteString("\n")
		b.WriteString(wrap(card.Description, inner))
		b.WriteString("\n")
	}
	writeList(&b, "Highlights", card.Highlights, styles)
	writeList(&b, "Services", card.Services, styles)
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(ternary(snap.IsWishlisted(card.ID), "w: remove from wishlist", "w: save to wishlist")))

	return styles.CardFocus.Width(width - 2).Render(b.String())
}

func writeList(b *strings.Builder, title string, items []string, styles Styles) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(styles.AccentText.Bold(true).Render(title))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("  • ")
		b.WriteString(item)
		b.WriteString("\n")
	}
}

// postRow renders a one-line list entry for a post.
func postRow(card feed.PostCard, snap interact.Snapshot, styles Styles, width int, selected bool) string {
	badge := likeBadge(card, snap, styles)
	author := card.AuthorName
	textWidth := max(width-len([]rune(author))-12, 8)
	line := fmt.Sprintf("%s  %s  %s", badge, styles.AccentText.Render(author), truncate(firstLine(card.Content), textWidth))
	if selected {
		return styles.Selected.Width(width).Render(line)
	}
	return line
}

// postDetail renders the selected post with its comment thread.
func postDetail(card feed.PostCard, thread []comments.Comment, snap interact.Snapshot, styles Styles, width int, now time.Time) string {
	var b strings.Builder
	inner := max(width-4, 10)

	b.WriteString(styles.Text.Bold(true).Render(card.AuthorName))
	if card.AuthorRole != "" {
		b.WriteString(" ")
		b.WriteString(styles.BadgeStyle(card.AuthorRole).Render(card.AuthorRole))
	}
	if age := formatAge(card.CreatedAt, now); age != "" {
		b.WriteString("  ")
		b.WriteString(styles.FaintText.Render(age))
	}
	b.WriteString("\n\n")
	if card.Content != "" {
		b.WriteString(wrap(card.Content, inner))
		b.WriteString("\n")
	}
	for _, img := range card.Images {
		b.WriteString(styles.FaintText.Render("Image: " + img))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(likeBadge(card, snap, styles))
	b.WriteString("  ")
	b.WriteString(styles.MutedText.Render(plural(len(thread), "comment")))
	b.WriteString("\n")

	if len(thread) > 0 {
		b.WriteString(styles.FaintText.Render(strings.Repeat("─", min(inner, 40))))
		b.WriteString("\n")
	}
	for _, c := range thread {
		b.WriteString(styles.AccentText.Render(c.Author()))
		if age := formatAge(c.CreatedAt, now); age != "" {
			b.WriteString(" ")
			b.WriteString(styles.FaintText.Render(age))
		}
		b.WriteString("\n")
		b.WriteString(wrap(c.Content, inner))
		b.WriteString("\n")
	}

	return styles.CardFocus.Width(width - 2).Render(b.String())
}
