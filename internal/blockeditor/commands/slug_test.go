package commands

import "testing"

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Release Notes", "release-notes"},
		{"  Release   Notes!  ", "release-notes"},
		{"Café déjà vu", "cafe-deja-vu"},
		{"Итоги года 2024", "итоги-года-2024"},
		{"Новый й и ё", "новый-й-и-ё"},
		{"v1.2 - draft", "v1-2-draft"},
		{"", "heading"},
		{"!!!", "heading"},
	}

	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateHeadingIDStable(t *testing.T) {
	d := New(nil, nil)
	if d.GenerateHeadingID("Release Notes") != d.GenerateHeadingID("Release Notes") {
		t.Error("heading id must be deterministic")
	}
}
