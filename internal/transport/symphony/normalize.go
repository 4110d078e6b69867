package symphony

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/tplsearch/internal/domain/book"
)

// Field paths tried in order; the first non-empty string or number wins.
var (
	resultPaths     = []string{"results", "titleInfo", "records", "entries"}
	titlePaths      = []string{"title", "titleInfo.title", "marc.245a"}
	authorPaths     = []string{"author", "authorInfo.author", "marc.100a", "marc.110a"}
	callNumberPaths = []string{"callNumber", "callInfo.callNumber", "marc.090a", "marc.050a"}
	isbnPaths       = []string{"isbn", "standardNumbers.isbn", "marc.020a"}
	yearPaths       = []string{"publishYear", "publication.year", "marc.260c"}
	formatPaths     = []string{"format", "formatInfo.format", "materialType"}
	keyPaths        = []string{"titleKey", "id", "recordId"}

	holdingPaths   = []string{"holdings", "copyInfo", "items", "availability"}
	copiesPaths    = []string{"copies", "totalCopies"}
	availablePaths = []string{"available", "availableCopies"}
	branchPaths    = []string{"library", "branch", "location"}
)

var (
	marcDelimiters = regexp.MustCompile(`[|\[\]/]`)
	whitespace     = regexp.MustCompile(`\s+`)
	nonDigits      = regexp.MustCompile(`\D`)
)

// Normalizer maps vendor search responses onto book records.
type Normalizer struct {
	links book.Links
}

// NewNormalizer creates a normalizer that builds deep links under siteURL.
func NewNormalizer(siteURL string) *Normalizer {
	return &Normalizer{links: book.NewLinks(siteURL)}
}

// Records normalises every record in a search response body.
// A body without a known result array yields no records.
func (n *Normalizer) Records(body []byte, branch string) []book.Record {
	root := gjson.ParseBytes(body)

	var items []gjson.Result
	for _, p := range resultPaths {
		if v := root.Get(p); v.IsArray() {
			items = v.Array()
			break
		}
	}

	out := make([]book.Record, 0, len(items))
	for i, item := range items {
		out = append(out, n.Record(item, i, branch))
	}
	return out
}

// Record normalises a single vendor record. It never fails: missing fields get placeholders.
func (n *Normalizer) Record(item gjson.Result, index int, branch string) book.Record {
	title := cleanText(extractField(item, titlePaths))
	author := cleanText(extractField(item, authorPaths))
	callNumber := cleanText(extractField(item, callNumberPaths))
	format := cleanText(extractField(item, formatPaths))
	key := strings.TrimSpace(extractField(item, keyPaths))

	if callNumber == "" {
		callNumber = book.NoCallNumber
	}

	id := "tpl_" + key
	if key == "" {
		id = "tpl_" + strconv.Itoa(index)
	}

	displayBranch := branch
	if book.IsAllBranches(branch) {
		displayBranch = ""
	}

	r := book.Record{
		ID:           id,
		Title:        title,
		Author:       author,
		ISBN:         cleanText(extractField(item, isbnPaths)),
		PublishYear:  parseYear(extractField(item, yearPaths)),
		CallNumber:   callNumber,
		Format:       format,
		Branch:       displayBranch,
		Availability: extractAvailability(item, branch),
		Source:       book.SourceLive,
	}.WithDefaults()

	r.Description = describe(r)
	r.HoldURL = n.links.Hold(key, r.Title)
	r.CatalogURL = n.links.Catalog(r.Title)
	return r
}

func extractField(item gjson.Result, paths []string) string {
	for _, p := range paths {
		v := item.Get(p)
		switch v.Type {
		case gjson.String, gjson.Number:
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// cleanText strips MARC delimiters and collapses whitespace.
func cleanText(s string) string {
	s = marcDelimiters.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// parseYear keeps the first four digits of a year field ("c2008]" -> 2008).
func parseYear(raw string) *int {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) < 4 {
		return nil
	}
	y, err := strconv.Atoi(digits[:4])
	if err != nil {
		return nil
	}
	return &y
}

func describe(r book.Record) string {
	var parts []string
	if r.Format != book.DefaultFormat {
		parts = append(parts, r.Format)
	}
	if r.HasKnownAuthor() {
		parts = append(parts, "by "+r.Author)
	}
	if r.PublishYear != nil {
		parts = append(parts, fmt.Sprintf("(%d)", *r.PublishYear))
	}
	if len(parts) == 0 {
		return r.Format + " from Toronto Public Library"
	}
	return strings.Join(parts, " ")
}

type holding struct {
	branch           string
	total, available int
}

// extractAvailability summarises copy counts. With a branch preference the
// first holding whose name contains it (case-insensitive) is reported alone;
// otherwise counts are summed system-wide.
func extractAvailability(item gjson.Result, branch string) book.Availability {
	var raw gjson.Result
	for _, p := range holdingPaths {
		if v := item.Get(p); v.Exists() && v.Type != gjson.Null {
			raw = v
			break
		}
	}
	if !raw.IsArray() {
		return book.UnknownAvailability(branch)
	}

	var holdings []holding
	for _, h := range raw.Array() {
		if !h.IsObject() {
			continue
		}
		name := cleanText(extractField(h, branchPaths))
		if name == "" {
			name = book.UnknownBranch
		}
		total := firstCount(h, copiesPaths, 1)
		avail := firstCount(h, availablePaths, 0)
		if total < 0 {
			total = 0
		}
		if avail < 0 {
			avail = 0
		}
		if avail > total {
			avail = total
		}
		holdings = append(holdings, holding{branch: name, total: total, available: avail})
	}
	if len(holdings) == 0 {
		return book.UnknownAvailability(branch)
	}

	if !book.IsAllBranches(branch) {
		want := strings.ToLower(branch)
		for _, h := range holdings {
			if !strings.Contains(strings.ToLower(h.branch), want) {
				continue
			}
			status, msg := book.StatusAvailable,
				fmt.Sprintf("%d of %d copies available at %s", h.available, h.total, h.branch)
			if h.available == 0 {
				status, msg = book.StatusOnHold,
					fmt.Sprintf("All copies checked out at %s. Place a hold?", h.branch)
			}
			return book.NewAvailability(status, h.total, h.available, msg, []book.Holding{toHolding(h)})
		}
	}

	total, avail := 0, 0
	list := make([]book.Holding, 0, len(holdings))
	for _, h := range holdings {
		total += h.total
		avail += h.available
		list = append(list, toHolding(h))
	}

	status, msg := book.StatusAvailable,
		fmt.Sprintf("%d of %d copies available across TPL system", avail, total)
	if avail == 0 {
		status, msg = book.StatusOnHold,
			fmt.Sprintf("All %d copies checked out. Place a hold?", total)
	}
	return book.NewAvailability(status, total, avail, msg, list)
}

func toHolding(h holding) book.Holding {
	status := book.StatusCheckedOut
	if h.available > 0 {
		status = book.StatusAvailable
	}
	return book.NewHolding(h.branch, h.total, h.available, status)
}

// firstCount returns the first non-zero integer among paths, accepting
// numbers and numeric strings, or def when none is found.
func firstCount(obj gjson.Result, paths []string, def int) int {
	for _, p := range paths {
		v := obj.Get(p)
		var n int64
		switch v.Type {
		case gjson.Number:
			n = v.Int()
		case gjson.String:
			parsed, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
			if err != nil {
				continue
			}
			n = parsed
		default:
			continue
		}
		if n != 0 {
			return int(n)
		}
	}
	return def
}
