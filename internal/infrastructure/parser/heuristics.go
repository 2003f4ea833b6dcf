package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	untitled = "Untitled"

	// minBodyLength is the length a candidate body must exceed to be accepted.
	minBodyLength = 200
	// minParagraphLength is the per-paragraph threshold of the fallback rule.
	minParagraphLength = 50

	strippedSelector = "script, style, nav, header, footer, iframe, noscript"
	blockSelector    = "p, h1, h2, h3, h4, h5, h6"
)

// Rule is one step of an ordered extraction cascade.
// Extract returns the candidate text; Accept decides whether the cascade stops there.
type Rule struct {
	Name    string
	Extract func(doc *goquery.Document) string
	Accept  func(text string) bool
}

// TitleRules run in order; the first non-empty title wins.
var TitleRules = []Rule{
	firstText("h1"),
	firstText("title"),
	firstText(".article-title"),
	firstText(".post-title"),
	firstText(`[class*="title"]`),
}

// BodyRules run in order; the first body longer than minBodyLength wins.
var BodyRules = []Rule{
	blockText("article"),
	blockText("main"),
	blockText(`[role="main"]`),
	blockText(".article-content"),
	blockText(".post-content"),
	blockText(".entry-content"),
	blockText(`[class*="content"]`),
	blockText("body"),
}

// ParagraphFallback collects long paragraphs when no body rule qualified.
var ParagraphFallback = Rule{
	Name: "long-paragraphs",
	Extract: func(doc *goquery.Document) string {
		var sb strings.Builder
		doc.Find("p").Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if utf8.RuneCountInString(text) > minParagraphLength {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
		})
		return sb.String()
	},
	Accept: func(string) bool { return true },
}

// Strip removes markup that never carries article text.
func Strip(doc *goquery.Document) {
	doc.Find(strippedSelector).Remove()
}

// ExtractTitle runs the title cascade and falls back to "Untitled".
func ExtractTitle(doc *goquery.Document) string {
	if title, ok := runCascade(doc, TitleRules); ok {
		return title
	}
	return untitled
}

// ExtractBody runs the body cascade, then the paragraph fallback. An empty result is normal.
func ExtractBody(doc *goquery.Document) string {
	if body, ok := runCascade(doc, BodyRules); ok {
		return body
	}
	return strings.TrimSpace(ParagraphFallback.Extract(doc))
}

func runCascade(doc *goquery.Document, rules []Rule) (string, bool) {
	for _, rule := range rules {
		text := rule.Extract(doc)
		if rule.Accept(text) {
			return strings.TrimSpace(text), true
		}
	}
	return "", false
}

func firstText(selector string) Rule {
	return Rule{
		Name: selector,
		Extract: func(doc *goquery.Document) string {
			return strings.TrimSpace(doc.Find(selector).First().Text())
		},
		Accept: func(text string) bool { return text != "" },
	}
}

// blockText joins the paragraph and heading text of the first element matching selector.
// The joined text keeps its trailing blank line while it is measured.
func blockText(selector string) Rule {
	return Rule{
		Name: selector,
		Extract: func(doc *goquery.Document) string {
			el := doc.Find(selector).First()
			if el.Length() == 0 {
				return ""
			}
			var sb strings.Builder
			el.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
				text := strings.TrimSpace(s.Text())
				if text != "" {
					sb.WriteString(text)
					sb.WriteString("\n\n")
				}
			})
			return sb.String()
		},
		Accept: func(text string) bool { return utf8.RuneCountInString(text) > minBodyLength },
	}
}
