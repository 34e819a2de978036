// Package scraper
package scraper

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/CrazyJK/image-download/packages/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/abadojack/whatlanggo"
)

// ScrapeError is a page-level failure. Its message text surfaces verbatim
// in BatchResult.Message, so the short forms are part of the contract.
type ScrapeError struct {
	PageURL string
	Message string
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("%s - [%s]", e.Message, e.PageURL)
}

type ExtractOptions struct {
	TitlePrefix string
	PageNo      int
	TitleQuery  string
}

// Extract parses one fetched page and yields its composed title and the
// ordered list of image source URLs. finalURL is the page URL after
// redirects; relative img srcs are resolved against it.
func Extract(html []byte, finalURL string, opts ExtractOptions) (*domain.PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, &ScrapeError{PageURL: finalURL, Message: "document is null"}
	}

	title := composeTitle(doc, opts)
	if title == "" {
		return nil, &ScrapeError{PageURL: finalURL, Message: "title is empty"}
	}

	srcs := extractImageSrcs(doc, finalURL)
	if len(srcs) == 0 {
		return nil, &ScrapeError{PageURL: finalURL, Message: "no image exist"}
	}

	content := &domain.PageContent{
		FinalURL:  finalURL,
		Title:     title,
		Language:  detectLanguage(doc),
		ImageSrcs: srcs,
	}
	slog.Debug("Page scraped", "url", finalURL, "title", title, "images", len(srcs), "language", content.Language)
	return content, nil
}

// composeTitle joins prefix, page number and the resolved page title with
// "-", omitting empty segments. The title query wins over <title> when it
// matches something non-empty.
func composeTitle(doc *goquery.Document, opts ExtractOptions) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if opts.TitleQuery != "" {
		if byQuery := strings.TrimSpace(doc.Find(opts.TitleQuery).First().Text()); byQuery != "" {
			title = byQuery
		}
	}

	var segments []string
	if opts.TitlePrefix != "" {
		segments = append(segments, opts.TitlePrefix)
	}
	if opts.PageNo != 0 {
		segments = append(segments, strconv.Itoa(opts.PageNo))
	}
	if title != "" {
		segments = append(segments, title)
	}
	return strings.Join(segments, "-")
}

func extractImageSrcs(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	var srcs []string
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if src == "" {
			return
		}
		if base != nil {
			resolved, err := base.Parse(src)
			if err != nil {
				return
			}
			src = resolved.String()
		}
		srcs = append(srcs, src)
	})
	return srcs
}

// detectLanguage samples title, description and the first hundred words of
// body text. Informational only; an empty result means detection had
// nothing to work with.
func detectLanguage(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	description, _ := doc.Find("meta[name='description']").Attr("content")

	clone := goquery.CloneDocument(doc)
	clone.Find("script, style, noscript").Remove()
	re := strings.NewReplacer("\n", " ", "\t", " ", "\r", " ")
	text := strings.Join(strings.Fields(re.Replace(clone.Text())), " ")

	words := strings.Fields(text)
	if len(words) > 100 {
		text = strings.Join(words[:100], " ")
	}

	sample := strings.TrimSpace(title + " " + strings.TrimSpace(description) + " " + text)
	if sample == "" {
		return ""
	}
	info := whatlanggo.Detect(sample)
	return info.Lang.Iso6393()
}
