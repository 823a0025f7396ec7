package service

import (
	"strings"

	"github.com/gocolly/colly/v2"
)

type scrapedPage struct {
	Title   string
	Content string
}

// scrapePage pulls the title and the longer paragraphs out of an article
// page. Heuristic selectors cover the common documentation and blog layouts.
func scrapePage(url string) (*scrapedPage, error) {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	page := &scrapedPage{}
	var contentBuilder strings.Builder

	c.OnHTML("title", func(e *colly.HTMLElement) {
		if page.Title == "" {
			page.Title = strings.TrimSpace(e.Text)
		}
	})

	c.OnHTML("h1", func(e *colly.HTMLElement) {
		title := strings.TrimSpace(e.Text)
		if title != "" {
			page.Title = title
		}
	})

	c.OnHTML("article, main, .entry-content, #main-content", func(e *colly.HTMLElement) {
		e.ForEach("p", func(_ int, el *colly.HTMLElement) {
			text := strings.TrimSpace(el.Text)
			// Skip nav crumbs and captions
			if len(text) > 50 {
				contentBuilder.WriteString(text)
				contentBuilder.WriteString("\n\n")
			}
		})
	})

	if err := c.Visit(url); err != nil {
		return nil, err
	}

	page.Content = strings.TrimSpace(contentBuilder.String())
	return page, nil
}
