package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestCacheDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"default", "", filepath.Join(home, ".cache", appName)},
		{"xdg", "/tmp/custom-cache", filepath.Join("/tmp/custom-cache", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			got, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStoresUnderCacheDir(t *testing.T) {
	c := testCLI(t)

	store, err := c.newStore()
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer store.Close()
	if ok, _ := afero.DirExists(c.Fs, filepath.Join("/xdg", appName, runsDir)); !ok {
		t.Error("run store directory not created under the cache dir")
	}

	cache, err := c.newCache(t.Context(), false)
	if err != nil {
		t.Fatalf("newCache: %v", err)
	}
	defer cache.Close()
	if ok, _ := afero.DirExists(c.Fs, filepath.Join("/xdg", appName, solvesDir)); !ok {
		t.Error("solve cache directory not created under the cache dir")
	}
}
