package stubapi

import "github.com/five82/basecamp/internal/api"

// Seed is the initial content of a Server.
type Seed struct {
	Users     []api.User
	Treks     []api.Trek
	Posts     []api.Post
	Likes     map[api.ID][]api.ID // post -> users who liked it
	Wishlists map[api.ID][]api.ID // user -> saved treks
}

// DefaultSeed returns a small marketplace: two guides, one tourist, three
// treks and a short community feed.
func DefaultSeed() Seed {
	pema := api.User{ID: "1", FirstName: "Pema", LastName: "Sherpa", Role: "guide"}
	tashi := api.User{ID: "2", FirstName: "Tashi", LastName: "Gurung", Role: "guide"}
	asha := api.User{ID: "7", FirstName: "Asha", LastName: "Rai", Role: "tourist"}

	return Seed{
		Users: []api.User{pema, tashi, asha},
		Treks: []api.Trek{
			{
				ID:          "42",
				Title:       "Annapurna Circuit",
				Description: "A classic high-pass circuit through rice terraces, pine forest and the Thorong La.",
				Location:    "Gandaki, Nepal",
				Difficulty:  "hard",
				Price:       1450,
				Duration:    "P14D",
				Rating:      4.8,
				Images: []api.TrekImage{
					{URL: "https://img.example/annapurna-1.jpg"},
					{URL: "https://img.example/annapurna-pass.jpg", IsPrimary: true},
				},
				Highlights: []string{"Thorong La pass (5,416 m)", "Muktinath temple"},
				Services:   []string{"Teahouse lodging", "Permits"},
				Guide:      &api.Guide{ID: "g1", User: &pema},
			},
			{
				ID:          "43",
				Title:       "Everest Base Camp",
				Description: "Follow the Khumbu valley to the foot of the icefall.",
				Location:    "Solukhumbu, Nepal",
				Difficulty:  "moderate",
				Price:       1890.5,
				Duration:    "P12DT6H",
				Rating:      4.9,
				Images:      []api.TrekImage{{URL: "https://img.example/ebc.jpg"}},
				Highlights:  []string{"Kala Patthar sunrise"},
				Guide:       &api.Guide{ID: "g2", User: &tashi},
			},
			{
				ID:       "44",
				Title:    "Poon Hill Sunrise",
				Location: "Myagdi, Nepal",
				Duration: "P3D",
			},
		},
		Posts: []api.Post{
			{
				ID:        "5",
				Content:   "Fresh snow on Thorong La this morning. Bring microspikes!",
				CreatedAt: "2026-10-18T06:30:00Z",
				User:      &pema,
				CommentsList: []api.Comment{
					{ID: "1", PostID: "5", Content: "Thanks for the heads up!", CreatedAt: "2026-10-18T07:02:00Z", AuthorFirstName: "Asha", AuthorLastName: "Rai"},
				},
			},
			{
				ID:        "6",
				Content:   "Teahouses in Gorak Shep are open again after the storm.",
				Images:    []string{"https://img.example/gorakshep.jpg"},
				CreatedAt: "2026-10-17T15:10:00Z",
				User:      &tashi,
			},
		},
		Likes: map[api.ID][]api.ID{
			"5": {"2"},
		},
		Wishlists: map[api.ID][]api.ID{
			"7": {"43"},
		},
	}
}
