package slug

import (
	"context"
	"errors"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple two words", "Hello World", "hello-world"},
		{"title with year", "Old Town Tour 2026", "old-town-tour-2026"},
		{"punctuation marks", "Hello, World! How's it going?", "hello-world-hows-it-going"},
		{"ampersand and at sign", "Rock & Roll @ the Arena", "rock-roll-the-arena"},
		{"brackets", "Version (2.0) [Beta]", "version-20-beta"},
		{"accents folded", "Café Résumé Noël", "cafe-resume-noel"},
		{"german umlauts", "Über die Brücke", "uber-die-brucke"},
		{"romanian diacritics", "Mănăstirea Sâmbăta", "manastirea-sambata"},
		{"tabs and newlines", "hello\tnew\nworld", "hello-new-world"},
		{"multiple spaces", "hello    world", "hello-world"},
		{"hyphen runs", "  --hello -- world--  ", "hello-world"},
		{"well-known kept", "well-known fact", "well-known-fact"},
		{"empty", "", ""},
		{"only symbols", "!@#$%^&*()", ""},
		{"non-latin dropped", "東京 Tower", "tower"},
		{"date", "2026-02-25", "2026-02-25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	for _, s := range []string{"hello-world", "my-tour-2026", "a", "123"} {
		if got := Generate(s); got != s {
			t.Errorf("Generate(%q) = %q, want idempotent result", s, got)
		}
	}
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"old-town": true, "old-town-2": true}
	exists := func(_ context.Context, c string) (bool, error) { return taken[c], nil }

	tests := []struct {
		input, want string
	}{
		{"Old Town", "old-town-3"},
		{"New Town", "new-town"},
		{"!!!", "article"},
	}
	for _, tt := range tests {
		got, err := Unique(context.Background(), tt.input, exists)
		if err != nil {
			t.Fatalf("Unique(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Unique(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	boom := errors.New("db down")
	_, err := Unique(context.Background(), "x", func(context.Context, string) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped db error", err)
	}
}
