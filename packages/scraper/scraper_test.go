package scraper

import (
	"errors"
	"reflect"
	"testing"
)

const galleryPage = `<html>
<head><title> Gallery Page </title></head>
<body>
<h1 class="subject">Board Subject</h1>
<img src="http://cdn.example.com/a.jpg">
<img src="/relative/b.png">
<img src="c.gif">
<img src="">
<img alt="no source">
</body>
</html>`

func TestExtract_ImageOrderAndResolution(t *testing.T) {
	content, err := Extract([]byte(galleryPage), "http://example.com/board/17", ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	expected := []string{
		"http://cdn.example.com/a.jpg",
		"http://example.com/relative/b.png",
		"http://example.com/board/c.gif",
	}
	if !reflect.DeepEqual(content.ImageSrcs, expected) {
		t.Errorf("ImageSrcs = %v, expected %v", content.ImageSrcs, expected)
	}
}

func TestExtract_TitleComposition(t *testing.T) {
	tests := []struct {
		name     string
		opts     ExtractOptions
		expected string
	}{
		{"document title", ExtractOptions{}, "Gallery Page"},
		{"css query wins", ExtractOptions{TitleQuery: "h1.subject"}, "Board Subject"},
		{"query without match falls back", ExtractOptions{TitleQuery: ".missing"}, "Gallery Page"},
		{"prefix", ExtractOptions{TitlePrefix: "pics"}, "pics-Gallery Page"},
		{"page number", ExtractOptions{PageNo: 3}, "3-Gallery Page"},
		{"all segments", ExtractOptions{TitlePrefix: "pics", PageNo: 3, TitleQuery: "h1.subject"}, "pics-3-Board Subject"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			content, err := Extract([]byte(galleryPage), "http://example.com/", test.opts)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if content.Title != test.expected {
				t.Errorf("Title = %q, expected %q", content.Title, test.expected)
			}
		})
	}
}

func TestExtract_EmptyTitle(t *testing.T) {
	page := `<html><head></head><body><img src="a.jpg"></body></html>`
	_, err := Extract([]byte(page), "http://example.com/", ExtractOptions{})

	var scrapeErr *ScrapeError
	if !errors.As(err, &scrapeErr) {
		t.Fatalf("expected ScrapeError, got %v", err)
	}
	if scrapeErr.Message != "title is empty" {
		t.Errorf("message = %q, expected %q", scrapeErr.Message, "title is empty")
	}
}

func TestExtract_PrefixAloneSatisfiesTitle(t *testing.T) {
	page := `<html><body><img src="a.jpg"></body></html>`
	content, err := Extract([]byte(page), "http://example.com/", ExtractOptions{TitlePrefix: "pics"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if content.Title != "pics" {
		t.Errorf("Title = %q, expected %q", content.Title, "pics")
	}
}

func TestExtract_NoImages(t *testing.T) {
	page := `<html><head><title>Empty</title></head><body><p>text only</p></body></html>`
	_, err := Extract([]byte(page), "http://example.com/", ExtractOptions{})

	var scrapeErr *ScrapeError
	if !errors.As(err, &scrapeErr) {
		t.Fatalf("expected ScrapeError, got %v", err)
	}
	if scrapeErr.Message != "no image exist" {
		t.Errorf("message = %q, expected %q", scrapeErr.Message, "no image exist")
	}
}

func TestExtract_DetectsLanguage(t *testing.T) {
	page := `<html><head><title>The quiet garden</title></head><body>
<p>The garden behind the old house stayed quiet through the whole afternoon,
and nobody walked the gravel path before the light finally failed.</p>
<img src="a.jpg"></body></html>`

	content, err := Extract([]byte(page), "http://example.com/", ExtractOptions{})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if content.Language != "eng" {
		t.Errorf("Language = %q, expected %q", content.Language, "eng")
	}
}
