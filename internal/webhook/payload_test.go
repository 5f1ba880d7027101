package webhook

import (
	"testing"

	"wainbox/pkg/models"
)

func TestMapContentText(t *testing.T) {
	content := MapContent(&InboundMessage{
		Type: "text",
		Text: &TextContent{Body: "Hola"},
	})
	if content.Kind != models.KindText {
		t.Errorf("Kind = %q, expected %q", content.Kind, models.KindText)
	}
	if content.Body != "Hola" {
		t.Errorf("Body = %q, expected %q", content.Body, "Hola")
	}
}

func TestMapContentMedia(t *testing.T) {
	tests := []struct {
		name     string
		message  InboundMessage
		wantKind string
		wantBody string
		wantRef  string
		wantMime string
	}{
		{
			name: "image with caption",
			message: InboundMessage{
				Type:  "image",
				Image: &MediaContent{ID: "media-1", MimeType: "image/jpeg", Caption: "mira"},
			},
			wantKind: models.KindImage,
			wantBody: "mira",
			wantRef:  "media-1",
			wantMime: "image/jpeg",
		},
		{
			name: "image without caption",
			message: InboundMessage{
				Type:  "image",
				Image: &MediaContent{ID: "media-2", MimeType: "image/png"},
			},
			wantKind: models.KindImage,
			wantBody: "",
			wantRef:  "media-2",
			wantMime: "image/png",
		},
		{
			name: "document falls back to filename",
			message: InboundMessage{
				Type:     "document",
				Document: &DocumentContent{ID: "doc-1", MimeType: "application/pdf", Filename: "factura.pdf"},
			},
			wantKind: models.KindDocument,
			wantBody: "factura.pdf",
			wantRef:  "doc-1",
			wantMime: "application/pdf",
		},
		{
			name: "document without metadata",
			message: InboundMessage{
				Type:     "document",
				Document: &DocumentContent{ID: "doc-2", MimeType: "application/pdf"},
			},
			wantKind: models.KindDocument,
			wantBody: "Documento",
			wantRef:  "doc-2",
			wantMime: "application/pdf",
		},
		{
			name: "audio",
			message: InboundMessage{
				Type:  "audio",
				Audio: &MediaContent{ID: "aud-1", MimeType: "audio/ogg"},
			},
			wantKind: models.KindAudio,
			wantBody: "Audio",
			wantRef:  "aud-1",
			wantMime: "audio/ogg",
		},
		{
			name: "video with caption",
			message: InboundMessage{
				Type:  "video",
				Video: &MediaContent{ID: "vid-1", MimeType: "video/mp4", Caption: "clip"},
			},
			wantKind: models.KindVideo,
			wantBody: "clip",
			wantRef:  "vid-1",
			wantMime: "video/mp4",
		},
		{
			name: "sticker",
			message: InboundMessage{
				Type:    "sticker",
				Sticker: &MediaContent{ID: "stk-1", MimeType: "image/webp"},
			},
			wantKind: models.KindSticker,
			wantBody: "Sticker",
			wantRef:  "stk-1",
			wantMime: "image/webp",
		},
	}

	for _, test := range tests {
		content := MapContent(&test.message)
		if content.Kind != test.wantKind {
			t.Errorf("%s: Kind = %q, expected %q", test.name, content.Kind, test.wantKind)
		}
		if content.Body != test.wantBody {
			t.Errorf("%s: Body = %q, expected %q", test.name, content.Body, test.wantBody)
		}
		if content.MediaRef != test.wantRef {
			t.Errorf("%s: MediaRef = %q, expected %q", test.name, content.MediaRef, test.wantRef)
		}
		if content.MediaMime != test.wantMime {
			t.Errorf("%s: MediaMime = %q, expected %q", test.name, content.MediaMime, test.wantMime)
		}
	}
}

func TestMapContentLocation(t *testing.T) {
	content := MapContent(&InboundMessage{
		Type:     "location",
		Location: &LocationContent{Latitude: 40.4168, Longitude: -3.7038, Name: "Madrid"},
	})
	if content.Kind != models.KindLocation {
		t.Errorf("Kind = %q, expected %q", content.Kind, models.KindLocation)
	}
	want := `{"lat":40.4168,"lng":-3.7038,"name":"Madrid"}`
	if content.Body != want {
		t.Errorf("Body = %q, expected %q", content.Body, want)
	}
}

func TestMapContentReaction(t *testing.T) {
	content := MapContent(&InboundMessage{
		Type:     "reaction",
		Reaction: &ReactionContent{MessageID: "wamid.1", Emoji: "👍"},
	})
	if content.Kind != models.KindReaction {
		t.Errorf("Kind = %q, expected %q", content.Kind, models.KindReaction)
	}
	if content.Body != "👍" {
		t.Errorf("Body = %q, expected the emoji", content.Body)
	}
}

func TestMapContentUnknownType(t *testing.T) {
	content := MapContent(&InboundMessage{Type: "contacts"})
	if content.Kind != models.KindUnknown {
		t.Errorf("Kind = %q, expected %q", content.Kind, models.KindUnknown)
	}
	if content.Body != "[contacts]" {
		t.Errorf("Body = %q, expected %q", content.Body, "[contacts]")
	}
	if content.RawType != "contacts" {
		t.Errorf("RawType = %q, expected %q", content.RawType, "contacts")
	}
}
