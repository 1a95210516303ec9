package pkg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "engine")
	for _, dir := range []string{filepath.Join(root, "deps", "glfw"), nested} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	for _, start := range []string{root, nested, filepath.Join(root, "deps")} {
		got, err := GetProjectRoot(start, "deps")
		if err != nil {
			t.Fatalf("GetProjectRoot(%s) failed: %v", start, err)
		}
		// "deps/deps" doesn't exist, so starting inside deps still finds root
		if got != root {
			t.Errorf("GetProjectRoot(%s) = %s, want %s", start, got, root)
		}
	}
}

func TestGetProjectRootNotFound(t *testing.T) {
	root := t.TempDir()
	if _, err := GetProjectRoot(root, "setup-test-no-such-dir"); err == nil {
		t.Error("expected an error")
	}
}

func TestGetProjectRootIgnoresFiles(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "app")
	if err := os.MkdirAll(filepath.Join(nested), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "deps"), 0755); err != nil {
		t.Fatal(err)
	}
	// a file named deps must not stop the search
	if err := os.WriteFile(filepath.Join(nested, "deps"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := GetProjectRoot(nested, "deps")
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Errorf("GetProjectRoot = %s, want %s", got, root)
	}
}
