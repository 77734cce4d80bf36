package memory

import "testing"

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"photo.jpg", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"icon.png", "image/png"},
		{"clip.gif", "image/gif"},
		{"movie.mp4", "video/mp4"},
		{"song.mp3", "audio/mpeg"},
		{"report.pdf", "application/pdf"},
		{"notes.txt", "text/plain"},
		{"archive.tar.gz", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := contentTypeFor(tt.path); got != tt.expected {
				t.Errorf("contentTypeFor(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}
