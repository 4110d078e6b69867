// Package tplsearch is a Go client for the tplsearch HTTP API: Toronto Public
// Library catalogue search with language-model book recommendations.
//
//	client, _ := tplsearch.New("http://localhost:8080")
//	res, _ := client.Search(ctx, "old man and the sea", "")
//	recs, _ := client.Recommend(ctx, "old man and the sea", tplsearch.PriorFromBooks(res.Results))
//
// Discover issues both calls concurrently and reports each outcome separately:
//
//	d := client.Discover(ctx, "hemingway", "central")
//	if d.SearchErr == nil { ... }
//	if d.RecommendErr == nil { ... }
package tplsearch
