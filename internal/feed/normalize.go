package feed

import (
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"

	"github.com/five82/basecamp/internal/api"
	"github.com/five82/basecamp/internal/comments"
)

// Placeholders substituted for missing fields.
const (
	UntitledTrek    = "Untitled trek"
	UnknownLocation = "Unknown location"
	UnknownLevel    = "Unrated"
	UnassignedGuide = "Guide to be assigned"
	DurationTBD     = "Duration TBD"
	UnknownAuthor   = "Anonymous"
)

// TrekCard is the display shape of a trek.
type TrekCard struct {
	ID          api.ID
	Title       string
	Description string
	Location    string
	Difficulty  string
	Price       float64
	Rating      float64
	Duration    string
	Image       string
	Highlights  []string
	Services    []string
	GuideID     api.ID
	GuideName   string
}

// PostCard is the display shape of a community post.
type PostCard struct {
	ID         api.ID
	Content    string
	Images     []string
	LikeCount  int
	CreatedAt  time.Time
	AuthorID   api.ID
	AuthorName string
	AuthorRole string
	Comments   []comments.Comment
}

// NormalizeTrek flattens a wire trek into a card. Missing optional fields get
// empty collections or placeholders.
func NormalizeTrek(t api.Trek) TrekCard {
	card := TrekCard{
		ID:          t.ID,
		Title:       orDefault(comments.Sanitize(t.Title), UntitledTrek),
		Description: comments.Sanitize(t.Description),
		Location:    orDefault(comments.Sanitize(t.Location), UnknownLocation),
		Difficulty:  orDefault(strings.TrimSpace(t.Difficulty), UnknownLevel),
		Price:       max(t.Price, 0),
		Rating:      max(t.Rating, 0),
		Duration:    FormatDuration(t.Duration),
		Image:       PrimaryImage(t.Images),
		Highlights:  cleanList(t.Highlights),
		Services:    cleanList(t.Services),
		GuideName:   UnassignedGuide,
	}
	if t.Guide != nil {
		card.GuideID = t.Guide.ID
		if name := t.Guide.User.FullName(); name != "" {
			card.GuideName = name
		}
	}
	return card
}

// NormalizeTreks maps a trek list, skipping entries without an id.
func NormalizeTreks(treks []api.Trek) []TrekCard {
	cards := make([]TrekCard, 0, len(treks))
	for _, t := range treks {
		if t.ID.IsZero() {
			continue
		}
		cards = append(cards, NormalizeTrek(t))
	}
	return cards
}

// NormalizeWishlist maps wishlist items to trek cards, skipping items whose
// trek is missing.
func NormalizeWishlist(w api.Wishlist) []TrekCard {
	cards := make([]TrekCard, 0, len(w.Items))
	for _, item := range w.Items {
		if item.Trek == nil || item.Trek.ID.IsZero() {
			continue
		}
		cards = append(cards, NormalizeTrek(*item.Trek))
	}
	return cards
}

// NormalizePost flattens a wire post into a card.
func NormalizePost(p api.Post) PostCard {
	card := PostCard{
		ID:         p.ID,
		Content:    comments.Sanitize(p.Content),
		Images:     cleanList(p.Images),
		LikeCount:  max(p.LikeCount, 0),
		CreatedAt:  p.ParsedCreatedAt(),
		AuthorName: UnknownAuthor,
		Comments:   make([]comments.Comment, 0, len(p.CommentsList)),
	}
	if p.User != nil {
		card.AuthorID = p.User.ID
		card.AuthorRole = strings.ToLower(strings.TrimSpace(p.User.Role))
		if name := p.User.FullName(); name != "" {
			card.AuthorName = name
		}
	}
	for _, c := range p.CommentsList {
		card.Comments = append(card.Comments, comments.FromAPI(p.ID, c))
	}
	return card
}

// NormalizePosts maps a feed, skipping entries without an id.
func NormalizePosts(posts []api.Post) []PostCard {
	cards := make([]PostCard, 0, len(posts))
	for _, p := range posts {
		if p.ID.IsZero() {
			continue
		}
		cards = append(cards, NormalizePost(p))
	}
	return cards
}

// PrimaryImage returns the url of the image flagged primary, falling back to
// the first image with a url. It returns "" for an empty gallery.
func PrimaryImage(images []api.TrekImage) string {
	first := ""
	for _, img := range images {
		url := strings.TrimSpace(img.URL)
		if url == "" {
			continue
		}
		if img.IsPrimary {
			return url
		}
		if first == "" {
			first = url
		}
	}
	return first
}

// FormatDuration renders an ISO-8601 duration such as "P5DT12H" as
// "5 days 12 hours". Text that is not ISO-8601 is shown as-is; blank input
// yields DurationTBD.
func FormatDuration(iso string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return DurationTBD
	}
	d, err := duration.Parse(strings.ToUpper(iso))
	if err != nil {
		return iso
	}
	parts := make([]string, 0, 4)
	for _, u := range []struct {
		value float64
		unit  string
	}{
		{d.Years, "year"},
		{d.Months, "month"},
		{d.Weeks, "week"},
		{d.Days, "day"},
		{d.Hours, "hour"},
		{d.Minutes, "minute"},
		{d.Seconds, "second"},
	} {
		if u.value <= 0 {
			continue
		}
		parts = append(parts, plural(u.value, u.unit))
	}
	if len(parts) == 0 {
		return DurationTBD
	}
	return strings.Join(parts, " ")
}

func plural(value float64, unit string) string {
	text := strconv.FormatFloat(value, 'f', -1, 64)
	if value != 1 {
		unit += "s"
	}
	return text + " " + unit
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = comments.Sanitize(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
