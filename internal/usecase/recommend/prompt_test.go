package recommend

import (
	"strings"
	"testing"
)

func TestBuildPrompt_QueryOnly(t *testing.T) {
	p := buildPrompt("space opera", nil)

	if !strings.HasPrefix(p, `Based on the search query "space opera", recommend 5 books`) {
		t.Errorf("unexpected prefix: %q", p[:80])
	}
	if strings.Contains(p, "already found") {
		t.Error("prompt should not mention prior books")
	}
	for _, want := range []string{"title, author, description, reason, genre", "Example format:", "exactly 5 recommendations"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_WithPrior(t *testing.T) {
	p := buildPrompt("hemingway", []Prior{
		{Title: "The Sun Also Rises", Author: "Ernest Hemingway"},
		{Title: "  "},
		{Title: "A Farewell to Arms"},
	})

	want := `The user has already found these books: "The Sun Also Rises" by Ernest Hemingway, "A Farewell to Arms" by Unknown Author. `
	if !strings.Contains(p, want) {
		t.Errorf("prompt missing prior list:\n%s", p)
	}
	if !strings.Contains(p, "Suggest different books that complement or relate to their interests.") {
		t.Error("prompt missing complement instruction")
	}
}
