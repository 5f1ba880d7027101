package handlers

import (
	"testing"

	"wainbox/pkg/models"
)

func TestKindForMime(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", models.KindImage},
		{"image/png", models.KindImage},
		{"video/mp4", models.KindVideo},
		{"audio/ogg", models.KindAudio},
		{"application/pdf", models.KindDocument},
		{"text/plain", models.KindDocument},
		{"", models.KindDocument},
	}

	for _, test := range tests {
		if got := kindForMime(test.mime); got != test.want {
			t.Errorf("kindForMime(%q) = %q, expected %q", test.mime, got, test.want)
		}
	}
}

func TestProviderMediaType(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{models.KindImage, "image"},
		{models.KindVideo, "video"},
		{models.KindAudio, "audio"},
		{models.KindDocument, "document"},
		{models.KindSticker, "document"},
	}

	for _, test := range tests {
		if got := providerMediaType(test.kind); got != test.want {
			t.Errorf("providerMediaType(%q) = %q, expected %q", test.kind, got, test.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"34600111222", "34600111222"},
		{"+34 600 111 222", "34600111222"},
		{"+34-600-111-222", "34600111222"},
		{"(34) 600111222", "34600111222"},
		{"", ""},
	}

	for _, test := range tests {
		if got := normalizePhone(test.input); got != test.want {
			t.Errorf("normalizePhone(%q) = %q, expected %q", test.input, got, test.want)
		}
	}
}
