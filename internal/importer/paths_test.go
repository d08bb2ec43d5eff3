package importer

import "testing"

func TestSafeSlug(t *testing.T) {
	valid := map[string]string{
		"my-article":        "my-article",
		"nested/slug":       "nested/slug",
		"dotted.name":       "dotted.name",
		"trailing/":         "trailing",
		"a/./b":             "a/b",
		`windows\separator`: "windows/separator",
	}
	for in, want := range valid {
		got, err := safeSlug(in)
		if err != nil {
			t.Fatalf("safeSlug(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("safeSlug(%q) = %q, want %q", in, got, want)
		}
	}

	invalid := []string{
		"",
		"/etc/passwd",
		"../outside",
		"a/../../outside",
		"..",
		".",
		"nul\x00byte",
		`\\server\share`,
	}
	for _, in := range invalid {
		if got, err := safeSlug(in); err == nil {
			t.Fatalf("safeSlug(%q) accepted as %q", in, got)
		}
	}
}
