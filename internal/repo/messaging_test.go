package repo

import (
	"strings"
	"testing"

	"wainbox/pkg/models"
)

func TestTruncatePreview(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short", "Hola", "Hola"},
		{"empty", "", ""},
		{"exact", strings.Repeat("a", models.PreviewLength), strings.Repeat("a", models.PreviewLength)},
		{"long", strings.Repeat("a", models.PreviewLength+50), strings.Repeat("a", models.PreviewLength)},
	}

	for _, test := range tests {
		got := truncatePreview(test.input)
		if got != test.want {
			t.Errorf("%s: truncatePreview returned %d chars, expected %d", test.name, len(got), len(test.want))
		}
	}
}

func TestTruncatePreviewMultibyte(t *testing.T) {
	input := strings.Repeat("ñ", models.PreviewLength+10)
	got := truncatePreview(input)

	runes := []rune(got)
	if len(runes) != models.PreviewLength {
		t.Errorf("truncated to %d runes, expected %d", len(runes), models.PreviewLength)
	}
	for _, r := range runes {
		if r != 'ñ' {
			t.Fatal("truncation split a multibyte character")
		}
	}
}

func TestDeliveryStatusRankOrdering(t *testing.T) {
	if deliveryStatusRank[models.StatusSent] >= deliveryStatusRank[models.StatusDelivered] {
		t.Error("sent must rank below delivered")
	}
	if deliveryStatusRank[models.StatusDelivered] >= deliveryStatusRank[models.StatusRead] {
		t.Error("delivered must rank below read")
	}
	if _, ranked := deliveryStatusRank[models.StatusFailed]; ranked {
		t.Error("failed must stay outside the lifecycle ranking")
	}
	if _, ranked := deliveryStatusRank[models.StatusReceived]; ranked {
		t.Error("received must stay outside the lifecycle ranking")
	}
}
