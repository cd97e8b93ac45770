package i18n

import "testing"

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		locale string
		key    string
		vars   map[string]string
		want   string
	}{
		{
			name:   "english with variable",
			locale: "en",
			key:    "notification.conversation_assigned.body",
			vars:   map[string]string{"reference": "CNV-1A2B3C4D"},
			want:   "CNV-1A2B3C4D was assigned to you",
		},
		{
			name:   "turkish with variable",
			locale: "tr",
			key:    "notification.conversation_assigned.body",
			vars:   map[string]string{"reference": "CNV-1A2B3C4D"},
			want:   "CNV-1A2B3C4D size atandı",
		},
		{
			name:   "region suffix normalized",
			locale: "tr-TR",
			key:    "notification.report_ready.title",
			want:   "Rapor hazır",
		},
		{
			name:   "unknown locale falls back to english",
			locale: "de",
			key:    "notification.mention.title",
			want:   "You were mentioned",
		},
		{
			name:   "unknown key returns key",
			locale: "en",
			key:    "notification.unknown.title",
			want:   "notification.unknown.title",
		},
		{
			name:   "missing variable left in place",
			locale: "en",
			key:    "notification.mention.body",
			vars:   map[string]string{"sender": "Ada"},
			want:   "Ada mentioned you in #{channel}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := T(tt.locale, tt.key, tt.vars); got != tt.want {
				t.Errorf("T(%q, %q) = %q, want %q", tt.locale, tt.key, got, tt.want)
			}
		})
	}
}

func TestSupported(t *testing.T) {
	if !Supported("en") || !Supported("TR") {
		t.Error("expected en and tr catalogs to be present")
	}
	if Supported("de") {
		t.Error("did not expect a de catalog")
	}
}
