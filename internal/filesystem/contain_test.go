package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func setupRoot(t *testing.T) (base, root string) {
	t.Helper()

	base = t.TempDir()
	root = filepath.Join(base, "managed")
	if err := os.MkdirAll(filepath.Join(root, "docs"), 0o755); err != nil {
		t.Fatalf("failed to create managed directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "docs", "report.pdf"), []byte("pdf"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatalf("failed to create outside file: %v", err)
	}
	return base, root
}

func TestContain(t *testing.T) {
	_, root := setupRoot(t)

	tests := []struct {
		name    string
		rel     string
		wantErr error
	}{
		{name: "file inside root", rel: "docs/report.pdf"},
		{name: "dot segments staying inside", rel: "docs/../docs/report.pdf"},
		{name: "parent traversal to existing file", rel: "../secret.txt", wantErr: ErrOutsideRoot},
		{name: "deep traversal", rel: "../../etc/passwd", wantErr: ErrOutsideRoot},
		{name: "sibling with shared prefix", rel: "../managed-other/file.txt", wantErr: ErrOutsideRoot},
		{name: "missing file inside root", rel: "docs/missing.pdf", wantErr: ErrNotExist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Contain(root, filepath.Join(root, filepath.FromSlash(tt.rel)))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Contain() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Contain() unexpected error: %v", err)
			}
			if filepath.Base(got) != "report.pdf" {
				t.Errorf("Contain() = %q, want path ending in report.pdf", got)
			}
		})
	}
}

func TestContainRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on Windows")
	}

	base, root := setupRoot(t)

	link := filepath.Join(root, "escape.txt")
	if err := os.Symlink(filepath.Join(base, "secret.txt"), link); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	if _, err := Contain(root, link); !errors.Is(err, ErrOutsideRoot) {
		t.Fatalf("Contain() error = %v, want ErrOutsideRoot", err)
	}
}

func TestContainFollowsSymlinkedRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require elevated privileges on Windows")
	}

	base, root := setupRoot(t)

	alias := filepath.Join(base, "alias")
	if err := os.Symlink(root, alias); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	got, err := Contain(alias, filepath.Join(alias, "docs", "report.pdf"))
	if err != nil {
		t.Fatalf("Contain() unexpected error: %v", err)
	}
	if filepath.Base(got) != "report.pdf" {
		t.Errorf("Contain() = %q, want path ending in report.pdf", got)
	}
}

func TestWithin(t *testing.T) {
	sep := string(filepath.Separator)
	root := sep + filepath.Join("srv", "managed")

	tests := []struct {
		path string
		want bool
	}{
		{root, true},
		{filepath.Join(root, "a.txt"), true},
		{filepath.Join(root, "nested", "b.txt"), true},
		{filepath.Join(root, "..x"), true},
		{sep + filepath.Join("srv", "managed2", "a.txt"), false},
		{sep + filepath.Join("srv", "a.txt"), false},
		{sep + "etc", false},
	}

	for _, tt := range tests {
		if got := within(root, tt.path); got != tt.want {
			t.Errorf("within(%q, %q) = %v, want %v", root, tt.path, got, tt.want)
		}
	}
}
