package walk

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func rel(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		r, err := filepath.Rel(root, f)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.txt":            "John 3:16",
		"a.md":             "Gen 1:1",
		"docs/page.html":   "<p>Ps 23:1</p>",
		"docs/deep/x.htm":  "",
		"main.go":          "package main",
		"notes/ignored.md": "",
		".gitignore":       "notes/\n",
	})

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"defaults", nil, []string{"a.md", "b.txt", "docs/deep/x.htm", "docs/page.html"}},
		{"html only", []string{"**/*.html"}, []string{"docs/page.html"}},
		{"several patterns", []string{"*.txt", "docs/**/*.htm"}, []string{"b.txt", "docs/deep/x.htm"}},
		{"nothing matches", []string{"**/*.pdf"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Files(context.Background(), root, tt.patterns)
			if err != nil {
				t.Fatal(err)
			}
			if r := rel(t, root, got); !reflect.DeepEqual(r, tt.want) && !(len(r) == 0 && len(tt.want) == 0) {
				t.Errorf("Files() = %q, want %q", r, tt.want)
			}
		})
	}
}

func TestFilesErrors(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": ""})

	if _, err := Files(context.Background(), root, []string{"[invalid"}); err == nil {
		t.Error("invalid pattern should fail")
	}
	if _, err := Files(context.Background(), filepath.Join(root, "a.txt"), nil); err == nil {
		t.Error("file root should fail")
	}
	if _, err := Files(context.Background(), filepath.Join(root, "missing"), nil); err == nil {
		t.Error("missing root should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Files(ctx, root, nil); err == nil {
		t.Error("cancelled context should fail")
	}
}

func TestMatch(t *testing.T) {
	if !Match(DefaultPatterns, "x/y/z.md") {
		t.Error("nested markdown should match the defaults")
	}
	if Match(DefaultPatterns, "x/y/z.go") {
		t.Error("go source should not match the defaults")
	}
}
