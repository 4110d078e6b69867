package book

import (
	"net/url"
	"strings"
)

// Links builds deep links into the public library website.
type Links struct {
	site string
}

// NewLinks creates a link builder for the given site root.
func NewLinks(siteURL string) Links {
	return Links{site: strings.TrimRight(siteURL, "/")}
}

// Hold returns the record detail page when a record key is known, otherwise a title search.
func (l Links) Hold(key, title string) string {
	if key != "" {
		return l.site + "/detail.jsp?Entt=RDM" + key
	}
	return l.Catalog(title)
}

// Catalog returns a title search page.
func (l Links) Catalog(title string) string {
	return l.site + "/search.jsp?Ntt=" + escapeComponent(title)
}

// escapeComponent percent-encodes s for a query value, spaces as %20.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
