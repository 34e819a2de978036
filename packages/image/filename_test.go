package image

import "testing"

func TestResolveFileName(t *testing.T) {
	tests := []struct {
		candidate   string
		contentType string
		expected    string
	}{
		{"photo.png", "image/jpeg", "photo.png"},
		{"photo.PNG", "image/jpeg", "photo.PNG"},
		{"photo.JpEg", "image/png", "photo.JpEg"},
		{"photo", "image/jpeg", "photo.jpeg"},
		{"photo", "image/png", "photo.png"},
		{"photo", "image/webp; charset=binary", "photo.webp"},
		{"photo.txt", "image/gif", "photo.txt.gif"},
		{"photo", "image/", "photo.jpg"},
		{"photo", "image", "photo.jpg"},
		{"photo.tiff", "image/tiff", "photo.tiff.tiff"},
	}

	for _, test := range tests {
		result := ResolveFileName(test.candidate, test.contentType)
		if result != test.expected {
			t.Errorf("ResolveFileName(%q, %q) = %q, expected %q",
				test.candidate, test.contentType, result, test.expected)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		titleHint   string
		sourceURL   string
		index       int
		contentType string
		expected    string
	}{
		{"My Gallery", "http://img.example.com/a/b/pic.png", 3, "image/jpeg", "My Gallery-3.jpeg"},
		{"", "http://img.example.com/a/b/pic.png", 3, "image/jpeg", "pic-3.png"},
		{"", "http://img.example.com/a/b/pic", 1, "image/gif", "pic-1.gif"},
		{"", "http://img.example.com/a/b/pic.php?id=9", 2, "image/jpeg", "pic.php-2.jpeg"},
		{"", "http://img.example.com/pic.webp#frag", 7, "image/png", "pic-7.webp"},
		{"Title", "http://img.example.com/x", 1, "image/", "Title-1.jpg"},
	}

	for _, test := range tests {
		result := FileName(test.titleHint, test.sourceURL, test.index, test.contentType)
		if result != test.expected {
			t.Errorf("FileName(%q, %q, %d, %q) = %q, expected %q",
				test.titleHint, test.sourceURL, test.index, test.contentType, result, test.expected)
		}
	}
}
