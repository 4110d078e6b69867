package recommend

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/tplsearch/internal/domain/recommendation"
)

// Parse strategy labels, reported in metrics.
const (
	strategySpan     = "span"
	strategyBalanced = "balanced"
	strategyWhole    = "whole"
	strategyFallback = "fallback"
)

// extractor proposes candidate array texts from a model reply.
type extractor struct {
	name       string
	candidates func(reply string) []string
}

var extractors = []extractor{
	{name: strategySpan, candidates: outerSpan},
	{name: strategyBalanced, candidates: balancedArrays},
	{name: strategyWhole, candidates: func(reply string) []string { return []string{strings.TrimSpace(reply)} }},
}

// parseReply turns a model reply into recommendation records.
// The first strategy that yields at least one titled record wins; when none does,
// the fixed fallback records are returned. It never fails.
func parseReply(reply string) ([]recommendation.Record, string) {
	for _, ex := range extractors {
		for _, c := range ex.candidates(reply) {
			if records, ok := decodeRecords(c); ok {
				return records, ex.name
			}
		}
	}
	return recommendation.Fallback(), strategyFallback
}

// outerSpan returns the text from the first '[' to the last ']'.
func outerSpan(reply string) []string {
	start := strings.IndexByte(reply, '[')
	end := strings.LastIndexByte(reply, ']')
	if start < 0 || end <= start {
		return nil
	}
	return []string{reply[start : end+1]}
}

// balancedArrays returns every top-level balanced bracket expression, in order.
// Brackets inside JSON string literals are ignored.
func balancedArrays(reply string) []string {
	var out []string
	depth, start := 0, -1
	inString, escaped := false, false

	for i := 0; i < len(reply); i++ {
		ch := reply[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				out = append(out, reply[start:i+1])
			}
		}
	}
	return out
}

// decodeRecords decodes a JSON array of objects. Non-object elements and
// records without a title are skipped; ok is false when nothing usable remains.
func decodeRecords(text string) ([]recommendation.Record, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, false
	}

	out := make([]recommendation.Record, 0, len(items))
	for _, raw := range items {
		obj := gjson.ParseBytes(raw)
		if !obj.IsObject() {
			continue
		}
		r := recommendation.Record{
			Title:       field(obj, "title"),
			Author:      field(obj, "author"),
			Description: field(obj, "description"),
			Reason:      field(obj, "reason"),
			Genre:       field(obj, "genre"),
		}
		if r.Title == "" {
			continue
		}
		out = append(out, r)
	}
	return out, len(out) > 0
}

func field(obj gjson.Result, name string) string {
	v := obj.Get(name)
	switch v.Type {
	case gjson.String, gjson.Number:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}
