package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aluiziolira/go-scrape-opinions/models"
)

// wordPattern matches runs of word characters. Letters and digits are matched
// across scripts so accented tokens stay whole.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// ValidateArticle ensures the extractor captured the required fields.
func ValidateArticle(a *models.Article) error {
	if a == nil {
		return fmt.Errorf("article is nil")
	}
	if strings.TrimSpace(a.OriginalTitle) == "" {
		return fmt.Errorf("article missing title")
	}
	return nil
}

// FirstLine returns the first line of text, trimmed. A blank first line
// yields "" even when later lines have content.
func FirstLine(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(first)
}

// JoinNonEmpty space-joins the values that are not blank.
func JoinNonEmpty(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		kept = append(kept, v)
	}
	return strings.Join(kept, " ")
}

// Truncate returns at most n runes of text.
func Truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n])
}

// IsAbsoluteHTTP reports whether raw starts with an http(s) scheme.
func IsAbsoluteHTTP(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), "http")
}

// Tokenize lowercases text and returns its word tokens in order.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// CountWords counts tokens across titles and keeps those occurring more than
// threshold times.
func CountWords(titles []string, threshold int) models.WordFrequency {
	counts := make(map[string]int)
	for _, title := range titles {
		for _, word := range Tokenize(title) {
			counts[word]++
		}
	}

	repeated := make(models.WordFrequency)
	for word, count := range counts {
		if count > threshold {
			repeated[word] = count
		}
	}
	return repeated
}
