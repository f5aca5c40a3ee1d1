package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Elements that never hold article text.
const boilerplate = "script, style, noscript, template, iframe, svg, form, nav, header, footer, aside, button, " +
	".navbar, .sidebar, .menu, .breadcrumbs, .pagination-nav, .theme-doc-toc-desktop, .theme-doc-footer"

// Block elements get a trailing space so adjacent blocks don't run together.
const blocks = "p, h1, h2, h3, h4, h5, h6, li, dt, dd, pre, blockquote, tr, td, th, div, section, br"

// Candidate main-content containers, most specific first.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".theme-doc-markdown",
	".markdown",
	".content",
	"#content",
	".documentation",
	"#documentation",
}

func extractMainContent(doc *goquery.Document) string {
	doc.Find(boilerplate).Remove()
	doc.Find(blocks).AppendHtml(" ")

	var content string
	for _, selector := range contentSelectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = cleanContent(selected.First().Text())
			if content != "" {
				break
			}
		}
	}

	// Fallback to body if no main content found
	if content == "" {
		content = cleanContent(doc.Find("body").Text())
	}

	return content
}

func cleanContent(content string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(content), " "))
}
