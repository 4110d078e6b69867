package recommend

import (
	"fmt"
	"strings"
)

// Prior is a book the user has already found.
type Prior struct {
	Title  string
	Author string
}

const promptInstructions = `For each recommendation, provide:
1. Title
2. Author
3. Brief description (1-2 sentences)
4. Why it relates to their search
5. Genre/category

Format your response as a JSON array with objects containing: title, author, description, reason, genre.

Example format:
[
  {
    "title": "Book Title",
    "author": "Author Name",
    "description": "Brief description of the book",
    "reason": "Why this relates to the search query",
    "genre": "Fiction/Non-fiction/etc"
  }
]

Please provide exactly 5 recommendations in valid JSON format.`

// buildPrompt renders the model instruction for query and the books already found.
func buildPrompt(query string, prior []Prior) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the search query %q, recommend 5 books that someone might be interested in reading. ", query)

	found := make([]string, 0, len(prior))
	for _, p := range prior {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		author := strings.TrimSpace(p.Author)
		if author == "" {
			author = "Unknown Author"
		}
		found = append(found, fmt.Sprintf("%q by %s", title, author))
	}
	if len(found) > 0 {
		fmt.Fprintf(&b, "The user has already found these books: %s. ", strings.Join(found, ", "))
		b.WriteString("Suggest different books that complement or relate to their interests. ")
	}

	b.WriteString(promptInstructions)
	return b.String()
}
