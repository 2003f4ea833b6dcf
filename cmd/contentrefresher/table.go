package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"ContentRefresher/internal/domain"
)

// renderResults prints one row per refresh result followed by a summary footer.
func renderResults(w io.Writer, results []domain.RefreshResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No articles to refresh.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Article", "Success", "Title", "Search Results", "Scraped", "Error"})

	for _, r := range results {
		t.AppendRow(table.Row{r.ArticleID, r.Success, r.Title, r.SearchResultsCount, r.ScrapedCount, r.Error})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%d/%d", domain.CountSucceeded(results), len(results))})
	t.Render()
}
