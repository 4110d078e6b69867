// Package recommendation holds the AI recommendation value object and its fixed fallbacks.
package recommendation

import "strings"

// Count is the number of records a successful model reply is normalised to.
const Count = 5

// Record is one recommended book.
type Record struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
	Genre       string `json:"genre"`
}

var fallback = []Record{
	{
		Title:       "The Midnight Library",
		Author:      "Matt Haig",
		Description: "A novel about life's infinite possibilities and the choices that shape our destiny.",
		Reason:      "A thoughtful exploration of life's paths and possibilities",
		Genre:       "Contemporary Fiction",
	},
	{
		Title:       "Educated",
		Author:      "Tara Westover",
		Description: "A memoir about education, family, and the struggle between loyalty and self-discovery.",
		Reason:      "An inspiring story of personal growth and transformation",
		Genre:       "Memoir",
	},
	{
		Title:       "The Seven Husbands of Evelyn Hugo",
		Author:      "Taylor Jenkins Reid",
		Description: "A captivating novel about a reclusive Hollywood icon's life and secrets.",
		Reason:      "A compelling character-driven story with mystery and glamour",
		Genre:       "Historical Fiction",
	},
}

// padding extends fallback to Count entries; used only to top up short model replies.
var padding = append(append([]Record{}, fallback...),
	Record{
		Title:       "Project Hail Mary",
		Author:      "Andy Weir",
		Description: "A lone astronaut must save Earth with science, wit and an unlikely friend.",
		Reason:      "A fast, funny survival story that rewards curious readers",
		Genre:       "Science Fiction",
	},
	Record{
		Title:       "Atomic Habits",
		Author:      "James Clear",
		Description: "A practical guide to building good habits and breaking bad ones.",
		Reason:      "Actionable ideas that pair well with almost any reading list",
		Genre:       "Self-Help",
	},
)

// Fallback returns the fixed records used when a model reply cannot be parsed.
func Fallback() []Record {
	out := make([]Record, len(fallback))
	copy(out, fallback)
	return out
}

// Normalize returns exactly Count records: entries without a title are dropped,
// extras are truncated and short lists are padded with fixed titles not already present.
func Normalize(records []Record) []Record {
	out := make([]Record, 0, Count)
	seen := make(map[string]bool, Count)
	for _, r := range records {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			continue
		}
		out = append(out, r)
		seen[strings.ToLower(r.Title)] = true
		if len(out) == Count {
			return out
		}
	}
	for _, p := range padding {
		if len(out) == Count {
			break
		}
		if seen[strings.ToLower(p.Title)] {
			continue
		}
		out = append(out, p)
	}
	return out
}
