package main

import (
	"fmt"
	"io"
	"time"

	"github.com/aluiziolira/go-scrape-opinions/models"
	"github.com/aluiziolira/go-scrape-opinions/parser"
	"github.com/aluiziolira/go-scrape-opinions/pipeline"
)

const contentPreview = 100

// printResults renders each session's articles and repeated words in the
// order the sessions were configured.
func printResults(w io.Writer, sessions []models.SessionConfig, store *pipeline.ResultStore) {
	for _, session := range sessions {
		fmt.Fprintf(w, "\nResults for %s:\n", session.Name)

		result, ok := store.Get(session.Name)
		if !ok || result.Empty() {
			fmt.Fprintln(w, "No articles found (possibly BrowserStack did not return results in time).")
			continue
		}

		for i, article := range result.Articles {
			image := "None"
			if article.HasImage() {
				image = article.ImagePath
			}
			fmt.Fprintf(w, "\nArticle %d:\n", i+1)
			fmt.Fprintf(w, "Spanish Title: %s\n", article.OriginalTitle)
			fmt.Fprintf(w, "Content: %s...\n", parser.Truncate(article.Content, contentPreview))
			fmt.Fprintf(w, "Cover Image Path: %s\n", image)
			fmt.Fprintf(w, "Translated Header: %s\n", article.TranslatedTitle)
		}

		if len(result.Repeated) > 0 {
			fmt.Fprintln(w, "\nRepeated Words in English Headers (more than twice):")
			for _, wc := range result.Repeated.Ranked() {
				fmt.Fprintf(w, "%s: %d\n", wc.Word, wc.Count)
			}
		}
	}
}

func printSummary(w io.Writer, summary models.RunSummary, outputFiles []string) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "Run complete")
	fmt.Fprintf(w, "  Run ID:        %s\n", summary.RunID)
	fmt.Fprintf(w, "  Sessions:      %d\n", summary.Sessions)
	fmt.Fprintf(w, "  Failed:        %d\n", summary.Failed)
	fmt.Fprintf(w, "  Empty:         %d\n", summary.Empty)
	fmt.Fprintf(w, "  Articles:      %d\n", summary.Articles)
	fmt.Fprintf(w, "  Duration:      %v\n", summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))
	for _, path := range outputFiles {
		fmt.Fprintf(w, "  Output file:   %s\n", path)
	}
	fmt.Fprintln(w, separator)
}
